// Package handler implements the HTTP API of roadviz.
//
// The API is read-mostly: it exposes the loaded road network, the latest
// traversal snapshot and the run history, and lets a client stop the
// running traversal. Stored graphs can be imported, exported and deleted.
//
// # Endpoints
//
//	GET    /api/graph                 loaded graph: nodes, edges, bounds
//	GET    /api/state                 latest snapshot, 204 before the first one
//	GET    /api/simulation            run id, seed, started/finished, result
//	POST   /api/simulation/stop       stop the traversal and wait for the worker
//	GET    /api/runs                  recent runs, ?limit=N
//	GET    /api/runs/{id}             one run
//	GET    /api/graphs                stored graphs
//	POST   /api/graphs/{name}         import, ?format=json|yaml|geojson
//	GET    /api/graphs/{name}/export  export, ?format=json|yaml|geojson
//	DELETE /api/graphs/{name}         delete a stored graph
//	GET    /events                    server-sent events
//	GET    /ws                        websocket events
//	GET    /metrics                   Prometheus metrics
//
// Errors are returned as JSON with an {error, details} structure.
package handler
