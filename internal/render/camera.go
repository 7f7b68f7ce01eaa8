package render

import (
	"math"

	"roadviz/internal/domain"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinZoom and MaxZoom bound the zoom factor so projections stay finite
	MinZoom = 1e-4
	MaxZoom = 1e4

	// zoomStep is the scale applied per wheel notch
	zoomStep = 0.9
)

// Projection is an orthographic mapping from a world rectangle to a viewport
type Projection struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
	ViewW  int     `json:"view_w"`
	ViewH  int     `json:"view_h"`
}

// Width returns the visible world width
func (p Projection) Width() float64 { return p.Right - p.Left }

// Height returns the visible world height
func (p Projection) Height() float64 { return p.Top - p.Bottom }

// Visible returns the visible world rectangle
func (p Projection) Visible() domain.Bounds {
	return domain.Bounds{MinX: p.Left, MinY: p.Bottom, MaxX: p.Right, MaxY: p.Top}
}

// WorldToView maps world coordinates to viewport pixels (origin top-left, y down)
func (p Projection) WorldToView(x, y float64) (float64, float64) {
	px := (x - p.Left) / p.Width() * float64(p.ViewW)
	py := (p.Top - y) / p.Height() * float64(p.ViewH)
	return px, py
}

// ViewToWorld maps viewport pixels back to world coordinates
func (p Projection) ViewToWorld(px, py float64) (float64, float64) {
	x := p.Left + px/float64(p.ViewW)*p.Width()
	y := p.Top - py/float64(p.ViewH)*p.Height()
	return x, y
}

// Matrix returns the 3x3 affine transform equivalent to WorldToView
func (p Projection) Matrix() *mat.Dense {
	sx := float64(p.ViewW) / p.Width()
	sy := float64(p.ViewH) / p.Height()
	return mat.NewDense(3, 3, []float64{
		sx, 0, -p.Left * sx,
		0, -sy, p.Top * sy,
		0, 0, 1,
	})
}

// Contains reports whether the visible rectangle covers b, allowing for
// rounding on the order of the rectangle size.
func (p Projection) Contains(b domain.Bounds) bool {
	eps := 1e-9 * math.Max(math.Abs(p.Width()), math.Abs(p.Height()))
	return b.MinX >= p.Left-eps && b.MaxX <= p.Right+eps &&
		b.MinY >= p.Bottom-eps && b.MaxY <= p.Top+eps
}

// Camera holds pan and zoom over a fixed world bounding box.
// It is only mutated by the render goroutine.
type Camera struct {
	PanX float64
	PanY float64
	Zoom float64

	bounds domain.Bounds
}

// NewCamera creates a camera framing bounds at zoom 1
func NewCamera(bounds domain.Bounds) *Camera {
	return &Camera{Zoom: 1, bounds: bounds}
}

// Bounds returns the world bounding box the camera frames
func (c *Camera) Bounds() domain.Bounds {
	return c.bounds
}

// Reset restores zoom 1 and no pan
func (c *Camera) Reset() {
	c.PanX, c.PanY, c.Zoom = 0, 0, 1
}

// ZoomBy scales the zoom by 0.9^delta. Positive deltas zoom in.
func (c *Camera) ZoomBy(delta float64) {
	z := c.Zoom * math.Pow(zoomStep, delta)
	if math.IsNaN(z) {
		return
	}
	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Pan moves the camera by a pointer delta in viewport pixels. The map
// follows the pointer: x is subtracted and y added since screen y grows down.
func (c *Camera) Pan(dx, dy float64, viewW, viewH int) {
	p := c.Projection(viewW, viewH)
	c.PanX -= dx * p.Width() / float64(p.ViewW)
	c.PanY += dy * p.Height() / float64(p.ViewH)
}

// Projection computes the visible rectangle for a viewport. The rectangle is
// centered on the bounds center plus pan, sized by zoom, then grown along
// one axis until its aspect ratio matches the viewport.
func (c *Camera) Projection(viewW, viewH int) Projection {
	if viewW < 1 {
		viewW = 1
	}
	if viewH < 1 {
		viewH = 1
	}

	cx, cy := c.bounds.Center()
	cx += c.PanX
	cy += c.PanY
	hw := c.bounds.HalfWidth() * c.Zoom
	hh := c.bounds.HalfHeight() * c.Zoom

	aspect := float64(viewW) / float64(viewH)
	if hw/hh < aspect {
		hw = hh * aspect
	} else {
		hh = hw / aspect
	}

	return Projection{
		Left:   cx - hw,
		Right:  cx + hw,
		Bottom: cy - hh,
		Top:    cy + hh,
		ViewW:  viewW,
		ViewH:  viewH,
	}
}
