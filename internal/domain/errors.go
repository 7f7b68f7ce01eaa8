package domain

import "errors"

// Precondition and validation failures. Callers compare with errors.Is.
var (
	// ErrEmptyGraph is returned when a graph has no nodes.
	ErrEmptyGraph = errors.New("domain: graph has no nodes")

	// ErrSourceNotFound is returned when the requested source node is not in the graph.
	ErrSourceNotFound = errors.New("domain: source node not found")

	// ErrDuplicateNode is returned when two nodes share an identity.
	ErrDuplicateNode = errors.New("domain: duplicate node id")

	// ErrEmptyNodeID is returned for a node without identity.
	ErrEmptyNodeID = errors.New("domain: node id is empty")

	// ErrUnknownEndpoint is returned when an edge references a node that does not exist.
	ErrUnknownEndpoint = errors.New("domain: edge endpoint not found")

	// ErrInvalidPosition is returned for NaN or infinite coordinates.
	ErrInvalidPosition = errors.New("domain: node position is not finite")

	// ErrInvalidSnapshot is returned when snapshot invariants would be violated.
	ErrInvalidSnapshot = errors.New("domain: invalid simulation state")
)
