// Package domain defines the core domain types for the roadviz traversal visualizer.
//
// This package contains the fundamental entities and value objects that describe
// a road network and the progress of a traversal over it.
//
// # Core Types
//
// Node is a road-network junction with a stable identity and a 2D position in the
// graph's native coordinate units (longitude/latitude for geographic sources).
//
// Edge is an unordered pair of node identities. Edges are only used for drawing.
//
// Graph is the immutable network built once from a GraphFragment. It owns the
// fixed node ordering used by every renderer buffer and the bounding box used by
// the camera.
//
// # Snapshots
//
// SimulationState is an immutable snapshot of traversal progress: the visited
// nodes so far, the current node, the progress percentage and an optional route.
// Snapshots of one run are produced by a VisitLedger, which shares the
// append-only visit log between snapshots so publishing is O(1).
//
// # Design Principles
//
// - Immutable value objects once constructed
// - No database or external dependencies
// - Sentinel errors for precondition failures
package domain
