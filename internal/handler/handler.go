package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"roadviz/internal/codec"
	"roadviz/internal/domain"
	"roadviz/internal/repository"
	"roadviz/internal/service"

	"github.com/rs/zerolog"
)

// maxImportSize bounds uploaded graph documents
const maxImportSize = 64 << 20

// GraphHandler serves the loaded graph and the graph store
type GraphHandler struct {
	graph *domain.Graph
	name  string
	svc   *service.GraphService
	log   zerolog.Logger
}

// NewGraphHandler creates a graph handler. svc may be nil when no store is open.
func NewGraphHandler(g *domain.Graph, name string, svc *service.GraphService, log zerolog.Logger) *GraphHandler {
	return &GraphHandler{graph: g, name: name, svc: svc, log: log}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GraphResponse is the JSON view of the loaded graph
type GraphResponse struct {
	Name   string        `json:"name,omitempty"`
	Nodes  []domain.Node `json:"nodes"`
	Edges  []domain.Edge `json:"edges"`
	Bounds domain.Bounds `json:"bounds"`
}

// GetGraph returns the loaded graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	if h.graph == nil {
		writeError(w, "No graph loaded", "", http.StatusNotFound)
		return
	}
	writeJSON(w, GraphResponse{
		Name:   h.name,
		Nodes:  h.graph.Nodes(),
		Edges:  h.graph.Edges(),
		Bounds: h.graph.Bounds(),
	}, http.StatusOK)
}

// ListGraphs returns the stored graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	graphs, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list graphs")
		writeError(w, "Failed to list graphs", err.Error(), http.StatusInternalServerError)
		return
	}
	if graphs == nil {
		graphs = []domain.GraphInfo{}
	}
	writeJSON(w, graphs, http.StatusOK)
}

// ImportGraph stores the request body as a graph
func (h *GraphHandler) ImportGraph(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	name := r.PathValue("name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	body := http.MaxBytesReader(w, r.Body, maxImportSize)
	defer body.Close()

	result, err := h.svc.Import(r.Context(), name, format, body)
	if err != nil {
		h.log.Warn().Err(err).Str("graph", name).Str("format", format).Msg("Graph import rejected")
		writeError(w, "Import failed", err.Error(), http.StatusBadRequest)
		return
	}

	h.log.Info().Str("graph", result.Name).Int("nodes", result.Nodes).Int("edges", result.Edges).Msg("Imported graph")
	writeJSON(w, result, http.StatusCreated)
}

// ExportGraph writes a stored graph in the requested format
func (h *GraphHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	name := r.PathValue("name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	c, err := codec.ByFormat(format)
	if err != nil {
		writeError(w, "Unknown format", err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.export(r, name, format)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("graph", name).Msg("Failed to export graph")
		writeError(w, "Export failed", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(c.Format()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+c.Format()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *GraphHandler) export(r *http.Request, name, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), name, format, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeleteGraph removes a stored graph
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	name := r.PathValue("name")
	if err := h.svc.Delete(r.Context(), name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("graph", name).Msg("Failed to delete graph")
		writeError(w, "Failed to delete graph", err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GraphHandler) requireStore(w http.ResponseWriter) bool {
	if h.svc == nil {
		writeError(w, "Graph store unavailable", "", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func contentType(format string) string {
	switch format {
	case "yaml":
		return "application/yaml"
	case "geojson":
		return "application/geo+json"
	}
	return "application/json"
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
