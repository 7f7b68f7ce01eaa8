package domain

// minHalfExtent keeps projections finite for single-node or collinear graphs
const minHalfExtent = 1e-6

// Bounds is an axis-aligned rectangle in world coordinates
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// BoundsOf computes the bounding box of the given nodes.
// Returns the zero Bounds for an empty slice.
func BoundsOf(nodes []Node) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: nodes[0].X, MaxX: nodes[0].X, MinY: nodes[0].Y, MaxY: nodes[0].Y}
	for _, n := range nodes[1:] {
		if n.X < b.MinX {
			b.MinX = n.X
		}
		if n.X > b.MaxX {
			b.MaxX = n.X
		}
		if n.Y < b.MinY {
			b.MinY = n.Y
		}
		if n.Y > b.MaxY {
			b.MaxY = n.Y
		}
	}
	return b
}

// Center returns the midpoint of the rectangle
func (b Bounds) Center() (float64, float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// HalfWidth returns half the horizontal extent, never below a tiny positive floor
func (b Bounds) HalfWidth() float64 {
	return max((b.MaxX-b.MinX)/2, minHalfExtent)
}

// HalfHeight returns half the vertical extent, never below a tiny positive floor
func (b Bounds) HalfHeight() float64 {
	return max((b.MaxY-b.MinY)/2, minHalfExtent)
}

// Width returns the horizontal extent
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// Contains reports whether the point lies inside or on the rectangle
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ContainsBounds reports whether other lies entirely inside b
func (b Bounds) ContainsBounds(other Bounds) bool {
	return b.Contains(other.MinX, other.MinY) && b.Contains(other.MaxX, other.MaxY)
}
