package render

import "math"

// QuadFloats is the number of floats AppendStrokeQuad writes per segment:
// four viewport corners, x then y.
const QuadFloats = 8

// AppendStrokeQuad appends the corners of a stroke from a to b, in viewport
// pixels, with square caps of half the width. A zero-length segment
// appends nothing and reports false.
func AppendStrokeQuad(dst []float32, ax, ay, bx, by float64, width float32) ([]float32, bool) {
	dx, dy := bx-ax, by-ay
	l := math.Hypot(dx, dy)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return dst, false
	}
	hw := float64(width) / 2
	ux, uy := dx/l*hw, dy/l*hw
	nx, ny := -uy, ux

	return append(dst,
		float32(ax-ux+nx), float32(ay-uy+ny),
		float32(bx+ux+nx), float32(by+uy+ny),
		float32(bx+ux-nx), float32(by+uy-ny),
		float32(ax-ux-nx), float32(ay-uy-ny),
	), true
}

// AppendSegmentQuads strokes every x1, y1, x2, y2 world segment in segs
func AppendSegmentQuads(dst, segs []float32, p Projection, width float32) []float32 {
	for i := 0; i+3 < len(segs); i += 4 {
		ax, ay := p.WorldToView(float64(segs[i]), float64(segs[i+1]))
		bx, by := p.WorldToView(float64(segs[i+2]), float64(segs[i+3]))
		dst, _ = AppendStrokeQuad(dst, ax, ay, bx, by, width)
	}
	return dst
}

// AppendStripQuads strokes each consecutive pair of world points in pts
func AppendStripQuads(dst, pts []float32, p Projection, width float32) []float32 {
	for i := 0; i+3 < len(pts); i += 2 {
		ax, ay := p.WorldToView(float64(pts[i]), float64(pts[i+1]))
		bx, by := p.WorldToView(float64(pts[i+2]), float64(pts[i+3]))
		dst, _ = AppendStrokeQuad(dst, ax, ay, bx, by, width)
	}
	return dst
}

// StrokeCache holds the stroke quads of a static line buffer. They are
// rebuilt only when the buffer, projection or width changes.
type StrokeCache struct {
	src    *SliceBuffer
	proj   Projection
	width  float32
	quads  []float32
	builds uint64
}

// Quads returns the quads for src, rebuilding them if needed. The result
// is owned by the cache and valid until the next call.
func (c *StrokeCache) Quads(src *SliceBuffer, p Projection, width float32) []float32 {
	if c.builds > 0 && src == c.src && p == c.proj && width == c.width {
		return c.quads
	}
	c.src, c.proj, c.width = src, p, width
	c.quads = AppendSegmentQuads(c.quads[:0], src.Data(), p, width)
	c.builds++
	return c.quads
}

// Builds returns how many times the quads were rebuilt
func (c *StrokeCache) Builds() uint64 {
	return c.builds
}

// Reset drops the cached quads
func (c *StrokeCache) Reset() {
	c.src = nil
	c.quads = c.quads[:0]
	c.builds = 0
}
