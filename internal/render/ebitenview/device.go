package ebitenview

import (
	"image"
	"image/color"

	"roadviz/internal/domain"
	"roadviz/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
)

// maxQuadsPerBatch keeps index values inside uint16
const maxQuadsPerBatch = 16000

var whiteImage = func() *ebiten.Image {
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return img
}()

// whiteSubImage avoids sampling the image edges
var whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

// Device implements render.Device on an *ebiten.Image. Buffers stay in Go
// memory. Edge geometry is cached per projection; nodes and the route are
// turned into vertices at draw time.
type Device struct {
	target *ebiten.Image
	proj   render.Projection
	live   int

	vertices []ebiten.Vertex
	indices  []uint16

	// edge quads follow the projection; vertices follow the quads and color
	edges      render.StrokeCache
	edgeVerts  []ebiten.Vertex
	edgeBuild  uint64
	edgeColor  render.Color
	quadIndex  []uint16
	stripQuads []float32
}

// NewDevice creates a device. SetTarget must be called before drawing.
func NewDevice() *Device {
	return &Device{}
}

// SetTarget selects the image drawn on by the next calls
func (d *Device) SetTarget(img *ebiten.Image) {
	d.target = img
}

// Live returns the number of buffers not yet released
func (d *Device) Live() int {
	return d.live
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
	if sb.Kind() == render.VertexBuffer {
		d.edges.Reset()
		d.edgeVerts = d.edgeVerts[:0]
		d.edgeBuild = 0
	}
	sb.Release()
	d.live--
}

func (d *Device) SetProjection(p render.Projection) {
	d.proj = p
}

func (d *Device) Clear(c render.Color) {
	if d.target == nil {
		return
	}
	d.target.Fill(c.RGBA())
}

// DrawGradientQuad draws one quad with bottom and top vertex colors
func (d *Device) DrawGradientQuad(b domain.Bounds, bottom, top render.Color) {
	if d.target == nil {
		return
	}
	corners := [4][2]float64{{b.MinX, b.MinY}, {b.MaxX, b.MinY}, {b.MaxX, b.MaxY}, {b.MinX, b.MaxY}}
	colors := [4]render.Color{bottom, bottom, top, top}

	d.vertices = d.vertices[:0]
	for i, c := range corners {
		x, y := d.proj.WorldToView(c[0], c[1])
		d.vertices = append(d.vertices, vertex(x, y, colors[i]))
	}
	d.indices = append(d.indices[:0], 0, 1, 2, 0, 2, 3)
	d.target.DrawTriangles(d.vertices, d.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{})
}

// DrawLines strokes every segment of a static vertex buffer. The quads are
// built once per projection and drawn in batches.
func (d *Device) DrawLines(vertices render.Buffer, c render.Color, width float32) {
	sb, err := render.AsSliceBuffer(vertices)
	if err != nil || d.target == nil {
		return
	}
	quads := d.edges.Quads(sb, d.proj, width)
	if d.edges.Builds() != d.edgeBuild || c != d.edgeColor {
		d.edgeVerts = appendQuadVertices(d.edgeVerts[:0], quads, c)
		d.edgeBuild, d.edgeColor = d.edges.Builds(), c
	}
	d.drawQuads(d.edgeVerts)
}

// DrawLineStrip strokes the route. It changes every frame so nothing is cached.
func (d *Device) DrawLineStrip(points []float32, c render.Color, width float32) {
	if d.target == nil {
		return
	}
	d.stripQuads = render.AppendStripQuads(d.stripQuads[:0], points, d.proj, width)
	d.vertices = appendQuadVertices(d.vertices[:0], d.stripQuads, c)
	d.drawQuads(d.vertices)
}

// drawQuads issues one DrawTriangles call per maxQuadsPerBatch quads,
// sharing a single index pattern across batches.
func (d *Device) drawQuads(verts []ebiten.Vertex) {
	if len(d.quadIndex) == 0 {
		d.quadIndex = make([]uint16, 0, 6*maxQuadsPerBatch)
		for q := 0; q < maxQuadsPerBatch; q++ {
			base := uint16(4 * q)
			d.quadIndex = append(d.quadIndex, base, base+1, base+2, base, base+2, base+3)
		}
	}
	opts := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	for start := 0; start < len(verts); start += 4 * maxQuadsPerBatch {
		end := min(start+4*maxQuadsPerBatch, len(verts))
		n := (end - start) / 4
		d.target.DrawTriangles(verts[start:end], d.quadIndex[:6*n], whiteSubImage, opts)
	}
}

func appendQuadVertices(dst []ebiten.Vertex, quads []float32, c render.Color) []ebiten.Vertex {
	for i := 0; i+1 < len(quads); i += 2 {
		dst = append(dst, vertex(float64(quads[i]), float64(quads[i+1]), c))
	}
	return dst
}

// DrawPoints draws every node as a colored square, batching quads into
// as few DrawTriangles calls as the index range allows.
func (d *Device) DrawPoints(positions, colors render.Buffer, size float32) {
	pos, err := render.AsSliceBuffer(positions)
	if err != nil || d.target == nil {
		return
	}
	col, err := render.AsSliceBuffer(colors)
	if err != nil {
		return
	}
	p, c := pos.Data(), col.Data()
	half := float64(size) / 2

	d.vertices, d.indices = d.vertices[:0], d.indices[:0]
	for i := 0; 2*i+1 < len(p) && 3*i+2 < len(c); i++ {
		x, y := d.proj.WorldToView(float64(p[2*i]), float64(p[2*i+1]))
		clr := render.RGB(c[3*i], c[3*i+1], c[3*i+2])

		base := uint16(len(d.vertices))
		d.vertices = append(d.vertices,
			vertex(x-half, y-half, clr),
			vertex(x+half, y-half, clr),
			vertex(x+half, y+half, clr),
			vertex(x-half, y+half, clr),
		)
		d.indices = append(d.indices, base, base+1, base+2, base, base+2, base+3)

		if len(d.vertices) >= 4*maxQuadsPerBatch {
			d.flushTriangles()
		}
	}
	d.flushTriangles()
}

func (d *Device) flushTriangles() {
	if len(d.indices) > 0 {
		d.target.DrawTriangles(d.vertices, d.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{})
	}
	d.vertices, d.indices = d.vertices[:0], d.indices[:0]
}

func vertex(x, y float64, c render.Color) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   1,
		SrcY:   1,
		ColorR: c.R,
		ColorG: c.G,
		ColorB: c.B,
		ColorA: c.A,
	}
}

var _ render.Device = (*Device)(nil)
