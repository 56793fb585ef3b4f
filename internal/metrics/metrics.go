// Package metrics holds the Prometheus instrumentation for the scan and
// store layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for MyQuantTool.
type Registry struct {
	ScanDuration       *prometheus.HistogramVec
	InstrumentsScanned prometheus.Counter
	DegradedRecords    prometheus.Counter
	PoolSize           *prometheus.GaugeVec
	SnapshotWrites     *prometheus.CounterVec
	WriteConflicts     prometheus.Counter
}

// NewRegistry creates the metric set, unregistered.
func NewRegistry() *Registry {
	return &Registry{
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "myquant_scan_duration_seconds",
				Help:    "Duration of a full market scan in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		InstrumentsScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "myquant_instruments_scanned_total",
				Help: "Total instruments classified across all scans",
			},
		),
		DegradedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "myquant_degraded_records_total",
				Help: "Instruments routed to watchlist on degraded data quality",
			},
		),
		PoolSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "myquant_pool_size",
				Help: "Pool sizes of the most recent snapshot",
			},
			[]string{"pool"},
		),
		SnapshotWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myquant_snapshot_writes_total",
				Help: "Snapshot write attempts by result",
			},
			[]string{"result"},
		),
		WriteConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "myquant_write_conflicts_total",
				Help: "Writes rejected because the snapshot key already existed",
			},
		),
	}
}

// Register attaches all metrics to the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		r.ScanDuration,
		r.InstrumentsScanned,
		r.DegradedRecords,
		r.PoolSize,
		r.SnapshotWrites,
		r.WriteConflicts,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
