package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/store"
	"github.com/Stuuu223/myquanttool/internal/store/filestore"
)

// fakeAuction serves canned rows.
type fakeAuction struct {
	rows []store.AuctionRow
}

func (f *fakeAuction) InsertBatch(context.Context, []store.AuctionRow) error { return nil }

func (f *fakeAuction) Query(_ context.Context, date, code string) ([]store.AuctionRow, error) {
	var out []store.AuctionRow
	for _, r := range f.rows {
		if r.Date == date && (code == "" || r.Code == code) {
			out = append(out, r)
		}
	}
	return out, nil
}

func seededServer(t *testing.T, auction store.AuctionRepo) *Server {
	t.Helper()
	st, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	snap := &snapshot.MarketSnapshot{
		SchemaVersion: snapshot.SchemaVersion,
		TradeDate:     "20240311",
		ScanTime:      "2024-03-11 09:30:00",
		Mode:          snapshot.ModeIntraday,
		Results: snapshot.Results{
			Opportunities: []snapshot.InstrumentRecord{{
				Code:       "603607.SH",
				Code6Digit: "603607",
				Price:      snapshot.PriceData{Close: 12.48, PctChg: 0.021, AmountYuan: 180_000_000},
				RiskScore:  22.5,
			}},
		},
	}
	snap.ComputeSummary()
	require.NoError(t, st.WriteSnapshot(context.Background(), snap))

	return NewServer(DefaultServerConfig(), st, auction, prometheus.NewRegistry())
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestGetSnapshot_LatestForDate(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/snapshots/20240311")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var snap snapshot.MarketSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "20240311", snap.TradeDate)
	assert.Equal(t, 1, snap.Summary.Opportunities)
}

func TestGetSnapshot_ExactKey(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/snapshots/20240311?scan_time=093000&mode=intraday")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetSnapshot_NotFoundIs404(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/snapshots/20990101")
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "20990101")
}

func TestListSnapshots(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/snapshots")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Count int            `json:"count"`
		Keys  []snapshot.Key `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "20240311", body.Keys[0].TradeDate)
}

func TestListSnapshots_RangeExcludes(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/snapshots?from=20240401&to=20240430")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Zero(t, body.Count)
}

func TestGetAuction(t *testing.T) {
	auction := &fakeAuction{rows: []store.AuctionRow{
		{Date: "20240311", AuctionTime: "09:20:00", Code: "603607.SH", AuctionPrice: 12.48, AuctionChange: 0.021},
		{Date: "20240311", AuctionTime: "09:20:00", Code: "600519.SH", AuctionPrice: 1688, AuctionChange: -0.004},
	}}
	srv := seededServer(t, auction)

	rr := doGet(t, srv, "/api/v1/auction/20240311?code=603607.SH")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Count int                `json:"count"`
		Rows  []store.AuctionRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "603607.SH", body.Rows[0].Code)
}

func TestGetAuction_UnconfiguredIs503(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/api/v1/auction/20240311")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealth(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpointMounted(t *testing.T) {
	srv := seededServer(t, nil)

	rr := doGet(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
}
