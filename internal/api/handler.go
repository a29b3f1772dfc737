// Package api serves the status endpoints of a running fanout: probes,
// metrics, run progress and journaled job results.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fanout/internal/apperrors"
	"fanout/internal/health"
	"fanout/internal/journal"
	"fanout/internal/pool"
)

const defaultListLimit = 100

// StatsProvider reports live pool statistics.
type StatsProvider interface {
	Stats() pool.Stats
}

// ResultStore looks up journaled job results.
type ResultStore interface {
	Get(jobID string) (*journal.Entry, error)
	List(limit int) ([]*journal.Entry, error)
}

// RunInfo describes the run being served.
type RunInfo struct {
	RunID     string    `json:"runId"`
	Command   []string  `json:"command"`
	Executor  string    `json:"executor"`
	StartedAt time.Time `json:"startedAt"`
}

// RunResponse is the body of GET /v1/run.
type RunResponse struct {
	RunInfo
	Stats pool.Stats `json:"stats"`
}

// Handler contains the status HTTP handlers.
type Handler struct {
	run     RunInfo
	stats   StatsProvider
	results ResultStore
	health  *health.Checker
}

// NewHandler creates a new API handler. results may be nil when no journal
// is kept.
func NewHandler(run RunInfo, stats StatsProvider, results ResultStore, healthChecker *health.Checker) *Handler {
	return &Handler{
		run:     run,
		stats:   stats,
		results: results,
		health:  healthChecker,
	}
}

// GetRun handles GET /v1/run
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	resp := RunResponse{RunInfo: h.run}
	if h.stats != nil {
		resp.Stats = h.stats.Stats()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ListJobs handles GET /v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		h.writeError(w, http.StatusNotImplemented, "journal is not enabled")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.results.List(limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"jobs": entries})
}

// GetJob handles GET /v1/jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		h.writeError(w, http.StatusNotImplemented, "journal is not enabled")
		return
	}

	entry, err := h.results.Get(chi.URLParam(r, "jobId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

// Livez handles GET /livez - liveness probe.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz - readiness probe.
// Returns 503 if the executor backend or the journal is unavailable, or
// once the run is finishing.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
