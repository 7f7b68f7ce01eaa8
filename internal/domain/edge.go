package domain

import (
	"crypto/sha256"
	"fmt"
)

// Edge represents an undirected road segment between two nodes
type Edge struct {
	ID     string `json:"id" yaml:"id,omitempty"`
	FromID string `json:"from_id" yaml:"from_id"`
	ToID   string `json:"to_id" yaml:"to_id"`
}

// NewEdge creates a new edge with normalized endpoints
func NewEdge(fromID, toID string) Edge {
	edge := Edge{FromID: fromID, ToID: toID}
	edge.Normalize()
	edge.ID = edge.GenerateID()
	return edge
}

// Normalize orders the endpoints so that (a,b) and (b,a) are the same edge
func (e *Edge) Normalize() {
	if e.FromID > e.ToID {
		e.FromID, e.ToID = e.ToID, e.FromID
	}
}

// GenerateID creates a deterministic ID for the edge based on endpoints
func (e Edge) GenerateID() string {
	from, to := e.FromID, e.ToID
	if from > to {
		from, to = to, from
	}

	key := fmt.Sprintf("%s-%s", from, to)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Key returns the normalized endpoint pair, used for de-duplication
func (e Edge) Key() [2]string {
	if e.FromID > e.ToID {
		return [2]string{e.ToID, e.FromID}
	}
	return [2]string{e.FromID, e.ToID}
}

// IsLoop reports whether both endpoints are the same node
func (e Edge) IsLoop() bool {
	return e.FromID == e.ToID
}
