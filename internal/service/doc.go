// Package service implements the traversal pipeline of roadviz.
//
// # Pipeline
//
// TraversalWorker visits every node of a graph once in a shuffled order and
// publishes a domain.SimulationState after each visit to a StateChannel.
// The channel keeps only the latest snapshot and fans it out to observers,
// each through its own single-slot mailbox, so the worker never waits on a
// renderer, a log display or a network client.
//
// Simulation wraps a worker with the lifecycle the host needs: Start launches
// the worker goroutine, Stop raises cancellation and waits for the goroutine
// to exit, and Finished is closed exactly once when the run completes or is
// cancelled. Runs are recorded through repository.RunStore.
//
// # Event System
//
// Lifecycle and graph changes are published on EventBus for the SSE and
// websocket hub.
//
// GraphService imports, exports and loads road networks kept in the
// repository.
package service
