package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// Handlers serves the read-only endpoints.
type Handlers struct {
	snapshots store.SnapshotStore
	auction   store.AuctionRepo
	started   time.Time
}

// NewHandlers wires handler state.
func NewHandlers(snapshots store.SnapshotStore, auction store.AuctionRepo) *Handlers {
	return &Handlers{snapshots: snapshots, auction: auction, started: time.Now()}
}

// GetSnapshot answers GET /api/v1/snapshots/{date}?scan_time=&mode=.
// Omitting scan_time returns the date's latest snapshot.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	scanTime := r.URL.Query().Get("scan_time")
	mode := snapshot.Mode(r.URL.Query().Get("mode"))

	snap, err := h.snapshots.ReadSnapshot(r.Context(), date, scanTime, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListSnapshots answers GET /api/v1/snapshots?from=YYYYMMDD&to=YYYYMMDD.
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	dr := store.DateRange{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	keys, err := h.snapshots.ListSnapshots(r.Context(), dr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(keys),
		"keys":  keys,
	})
}

// GetAuction answers GET /api/v1/auction/{date}?code=.
func (h *Handlers) GetAuction(w http.ResponseWriter, r *http.Request) {
	if h.auction == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "auction store not configured"})
		return
	}
	date := mux.Vars(r)["date"]
	code := r.URL.Query().Get("code")

	rows, err := h.auction.Query(r.Context(), date, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date,
		"count": len(rows),
		"rows":  rows,
	})
}

// Health answers GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case store.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case store.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
