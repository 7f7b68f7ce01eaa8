package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Streams serves the push endpoints
type Streams interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// NewRouter registers every endpoint and applies the middleware chain.
// streams and gatherer may be nil.
func NewRouter(graphs *GraphHandler, api *APIHandler, streams Streams, gatherer prometheus.Gatherer, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/graph", graphs.GetGraph)
	mux.HandleFunc("GET /api/graphs", graphs.ListGraphs)
	mux.HandleFunc("POST /api/graphs/{name}", graphs.ImportGraph)
	mux.HandleFunc("GET /api/graphs/{name}/export", graphs.ExportGraph)
	mux.HandleFunc("DELETE /api/graphs/{name}", graphs.DeleteGraph)

	mux.HandleFunc("GET /api/state", api.GetState)
	mux.HandleFunc("GET /api/simulation", api.GetSimulation)
	mux.HandleFunc("POST /api/simulation/stop", api.StopSimulation)
	mux.HandleFunc("GET /api/runs", api.ListRuns)
	mux.HandleFunc("GET /api/runs/{id}", api.GetRun)

	if streams != nil {
		mux.Handle("GET /events", streams)
		mux.HandleFunc("GET /ws", streams.ServeWS)
	}
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return Chain(mux,
		Recover(log),
		CORS,
		Logger(log),
	)
}
