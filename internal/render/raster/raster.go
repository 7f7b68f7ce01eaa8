// Package raster is a software render.Device drawing into an *image.RGBA.
// It needs no display and backs headless frame export.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"roadviz/internal/domain"
	"roadviz/internal/render"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Device rasterizes lines and quads with golang.org/x/image/vector
type Device struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	proj render.Projection
	live int
}

// New creates a device with a w×h canvas
func New(w, h int) (*Device, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid canvas %dx%d", render.ErrDeviceInit, w, h)
	}
	return &Device{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		z:   vector.NewRasterizer(w, h),
	}, nil
}

// Size returns the canvas size
func (d *Device) Size() (int, int) {
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the canvas
func (d *Device) Image() *image.RGBA {
	return d.img
}

// Live returns the number of buffers not yet released
func (d *Device) Live() int {
	return d.live
}

// EncodePNG writes the canvas as PNG
func (d *Device) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, d.img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

func (d *Device) CreateBuffer(kind render.BufferKind, usage render.BufferUsage, data []float32) (render.Buffer, error) {
	b, err := render.NewSliceBuffer(kind, usage, data)
	if err != nil {
		return nil, err
	}
	d.live++
	return b, nil
}

func (d *Device) UpdateBuffer(b render.Buffer, data []float32) error {
	sb, err := render.AsSliceBuffer(b)
	if err != nil {
		return err
	}
	return sb.Update(data)
}

func (d *Device) Release(b render.Buffer) {
	sb, ok := b.(*render.SliceBuffer)
	if !ok || sb.Released() {
		return
	}
	sb.Release()
	d.live--
}

func (d *Device) SetProjection(p render.Projection) {
	d.proj = p
}

func (d *Device) Clear(c render.Color) {
	draw.Draw(d.img, d.img.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// DrawGradientQuad fills the projected bounds row by row, blending from
// bottom to top in world space.
func (d *Device) DrawGradientQuad(b domain.Bounds, bottom, top render.Color) {
	x0, y0 := d.proj.WorldToView(b.MinX, b.MaxY)
	x1, y1 := d.proj.WorldToView(b.MaxX, b.MinY)
	rect := image.Rect(round(x0), round(y0), round(x1), round(y1)).Intersect(d.img.Bounds())
	if rect.Empty() {
		return
	}

	height := b.MaxY - b.MinY
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		_, wy := d.proj.ViewToWorld(0, float64(py)+0.5)
		t := 0.0
		if height > 0 {
			t = math.Max(0, math.Min(1, (wy-b.MinY)/height))
		}
		row := image.Rect(rect.Min.X, py, rect.Max.X, py+1)
		draw.Draw(d.img, row, image.NewUniform(lerp(bottom, top, t).RGBA()), image.Point{}, draw.Src)
	}
}

func (d *Device) DrawLines(vertices render.Buffer, c render.Color, width float32) {
	sb, err := render.AsSliceBuffer(vertices)
	if err != nil {
		return
	}
	data := sb.Data()

	d.z.Reset(d.Size())
	n := 0
	for i := 0; i+3 < len(data); i += 4 {
		if d.segment(data[i], data[i+1], data[i+2], data[i+3], width) {
			n++
		}
	}
	if n > 0 {
		d.fill(c)
	}
}

func (d *Device) DrawLineStrip(points []float32, c render.Color, width float32) {
	d.z.Reset(d.Size())
	n := 0
	for i := 0; i+3 < len(points); i += 2 {
		if d.segment(points[i], points[i+1], points[i+2], points[i+3], width) {
			n++
		}
	}
	if n > 0 {
		d.fill(c)
	}
}

// DrawPoints draws each node as an axis-aligned square of size pixels
func (d *Device) DrawPoints(positions, colors render.Buffer, size float32) {
	pos, err := render.AsSliceBuffer(positions)
	if err != nil {
		return
	}
	col, err := render.AsSliceBuffer(colors)
	if err != nil {
		return
	}
	p, c := pos.Data(), col.Data()
	half := float64(size) / 2
	if half <= 0 {
		return
	}

	for i := 0; 2*i+1 < len(p) && 3*i+2 < len(c); i++ {
		px, py := d.proj.WorldToView(float64(p[2*i]), float64(p[2*i+1]))
		r := image.Rect(round(px-half), round(py-half), round(px+half), round(py+half))
		if r.Empty() {
			r = image.Rect(int(px), int(py), int(px)+1, int(py)+1)
		}
		fill := render.RGB(c[3*i], c[3*i+1], c[3*i+2]).RGBA()
		draw.Draw(d.img, r, image.NewUniform(fill), image.Point{}, draw.Src)
	}
}

// DrawText writes one line of text with its baseline at (x, y)
func (d *Device) DrawText(x, y int, text string, c render.Color) {
	dr := font.Drawer{
		Dst:  d.img,
		Src:  image.NewUniform(c.RGBA()),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(text)
}

// DrawHUD writes lines in the top-left corner
func (d *Device) DrawHUD(lines []string, c render.Color) {
	face := basicfont.Face7x13
	for i, line := range lines {
		d.DrawText(4, 4+face.Ascent+i*face.Height, line, c)
	}
}

// segment adds a line of the given pixel width as a quad to the rasterizer
func (d *Device) segment(x1, y1, x2, y2, width float32) bool {
	ax, ay := d.proj.WorldToView(float64(x1), float64(y1))
	bx, by := d.proj.WorldToView(float64(x2), float64(y2))
	dx, dy := bx-ax, by-ay
	length := math.Hypot(dx, dy)
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return false
	}
	w := math.Max(float64(width), 1) / 2
	nx, ny := -dy/length*w, dx/length*w

	d.z.MoveTo(float32(ax+nx), float32(ay+ny))
	d.z.LineTo(float32(bx+nx), float32(by+ny))
	d.z.LineTo(float32(bx-nx), float32(by-ny))
	d.z.LineTo(float32(ax-nx), float32(ay-ny))
	d.z.ClosePath()
	return true
}

func (d *Device) fill(c render.Color) {
	d.z.DrawOp = draw.Over
	d.z.Draw(d.img, d.img.Bounds(), image.NewUniform(c.RGBA()), image.Point{})
}

func lerp(a, b render.Color, t float64) render.Color {
	f := float32(t)
	return render.Color{
		R: a.R + (b.R-a.R)*f,
		G: a.G + (b.G-a.G)*f,
		B: a.B + (b.B-a.B)*f,
		A: a.A + (b.A-a.A)*f,
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

var _ render.Device = (*Device)(nil)
