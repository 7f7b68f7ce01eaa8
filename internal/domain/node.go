package domain

import (
	"fmt"
	"math"
)

// Node represents a junction of the road network
type Node struct {
	ID string  `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

// NewNode creates a node at the given position
func NewNode(id string, x, y float64) Node {
	return Node{ID: id, X: x, Y: y}
}

// Validate checks identity and position
func (n Node) Validate() error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if !isFinite(n.X) || !isFinite(n.Y) {
		return fmt.Errorf("%w: %s (%v, %v)", ErrInvalidPosition, n.ID, n.X, n.Y)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
