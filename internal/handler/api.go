package handler

import (
	"errors"
	"net/http"
	"strconv"

	"roadviz/internal/domain"
	"roadviz/internal/repository"
	"roadviz/internal/service"

	"github.com/rs/zerolog"
)

// defaultRunLimit is used when ?limit is absent
const defaultRunLimit = 20

// StateReader returns the latest snapshot without blocking
type StateReader interface {
	Read() (*domain.SimulationState, bool)
}

// SimulationControl is the lifecycle surface of a running traversal
type SimulationControl interface {
	Info() service.SimulationInfo
	Stop() error
}

// APIHandler serves the traversal state, the simulation and run history
type APIHandler struct {
	state StateReader
	sim   SimulationControl
	runs  repository.RunStore
	log   zerolog.Logger
}

// NewAPIHandler creates an API handler. sim and runs may be nil.
func NewAPIHandler(state StateReader, sim SimulationControl, runs repository.RunStore, log zerolog.Logger) *APIHandler {
	return &APIHandler{state: state, sim: sim, runs: runs, log: log}
}

// GetState returns the latest snapshot, or 204 before the first one.
// ?full=1 includes the visited list.
func (h *APIHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state.Read()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full {
		data, err := s.MarshalFull()
		if err != nil {
			writeError(w, "Failed to encode state", err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, s, http.StatusOK)
}

// GetSimulation returns the lifecycle state
func (h *APIHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	if h.sim == nil {
		writeError(w, "No simulation", "", http.StatusNotFound)
		return
	}
	writeJSON(w, h.sim.Info(), http.StatusOK)
}

// StopSimulation cancels the traversal and waits for the worker to exit
func (h *APIHandler) StopSimulation(w http.ResponseWriter, r *http.Request) {
	if h.sim == nil {
		writeError(w, "No simulation", "", http.StatusNotFound)
		return
	}
	if err := h.sim.Stop(); err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, "Simulation not started", err.Error(), http.StatusConflict)
			return
		}
		writeError(w, "Failed to stop simulation", err.Error(), http.StatusInternalServerError)
		return
	}

	info := h.sim.Info()
	h.log.Info().Str("run_id", info.RunID).Msg("Simulation stopped over HTTP")
	writeJSON(w, info, http.StatusOK)
}

// ListRuns returns the most recent runs
func (h *APIHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, "Run store unavailable", "", http.StatusServiceUnavailable)
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		writeError(w, "Failed to list runs", err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	writeJSON(w, runs, http.StatusOK)
}

// GetRun returns one run
func (h *APIHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, "Run store unavailable", "", http.StatusServiceUnavailable)
		return
	}

	run, err := h.runs.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		writeError(w, "Failed to get run", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, run, http.StatusOK)
}
