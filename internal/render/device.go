package render

import (
	"fmt"

	"roadviz/internal/domain"
)

// BufferKind tells what a buffer holds
type BufferKind int

const (
	// VertexBuffer holds x, y pairs
	VertexBuffer BufferKind = iota
	// ColorBuffer holds r, g, b triples
	ColorBuffer
)

// Stride returns the number of floats per element
func (k BufferKind) Stride() int {
	if k == ColorBuffer {
		return 3
	}
	return 2
}

func (k BufferKind) String() string {
	if k == ColorBuffer {
		return "color"
	}
	return "vertex"
}

// BufferUsage tells how often a buffer changes
type BufferUsage int

const (
	// StaticDraw buffers are written once
	StaticDraw BufferUsage = iota
	// DynamicDraw buffers are rewritten every frame
	DynamicDraw
)

// Buffer is a device-owned array of floats
type Buffer interface {
	Kind() BufferKind
	Usage() BufferUsage
	Len() int
}

// Device is a drawing backend. All methods must be called from the
// goroutine that owns the drawing context.
type Device interface {
	CreateBuffer(kind BufferKind, usage BufferUsage, data []float32) (Buffer, error)
	UpdateBuffer(b Buffer, data []float32) error
	Release(b Buffer)

	Clear(c Color)
	SetProjection(p Projection)
	DrawGradientQuad(b domain.Bounds, bottom, top Color)
	DrawLines(vertices Buffer, c Color, width float32)
	DrawPoints(positions, colors Buffer, size float32)
	DrawLineStrip(points []float32, c Color, width float32)
}

// SliceBuffer is a Buffer backed by a Go slice, for devices that draw on the CPU
type SliceBuffer struct {
	kind     BufferKind
	usage    BufferUsage
	data     []float32
	released bool
}

// NewSliceBuffer copies data into a new buffer
func NewSliceBuffer(kind BufferKind, usage BufferUsage, data []float32) (*SliceBuffer, error) {
	if len(data)%kind.Stride() != 0 {
		return nil, fmt.Errorf("%w: %d floats is not a multiple of %d for a %s buffer",
			ErrBufferCreate, len(data), kind.Stride(), kind)
	}
	return &SliceBuffer{
		kind:  kind,
		usage: usage,
		data:  append([]float32(nil), data...),
	}, nil
}

func (b *SliceBuffer) Kind() BufferKind   { return b.kind }
func (b *SliceBuffer) Usage() BufferUsage { return b.usage }
func (b *SliceBuffer) Len() int           { return len(b.data) }

// Data returns the backing slice. Callers must not modify it.
func (b *SliceBuffer) Data() []float32 {
	return b.data
}

// Released reports whether Release was called
func (b *SliceBuffer) Released() bool {
	return b.released
}

// Update overwrites the contents. The length never changes and static
// buffers cannot be updated.
func (b *SliceBuffer) Update(data []float32) error {
	if b.released {
		return ErrBufferReleased
	}
	if b.usage != DynamicDraw {
		return fmt.Errorf("%s buffer is static", b.kind)
	}
	if len(data) != len(b.data) {
		return fmt.Errorf("%w: got %d floats, buffer holds %d", ErrBufferSize, len(data), len(b.data))
	}
	copy(b.data, data)
	return nil
}

// Release drops the contents
func (b *SliceBuffer) Release() {
	b.released = true
	b.data = nil
}

// AsSliceBuffer unwraps a buffer created by a slice-backed device
func AsSliceBuffer(b Buffer) (*SliceBuffer, error) {
	sb, ok := b.(*SliceBuffer)
	if !ok {
		return nil, fmt.Errorf("foreign buffer %T", b)
	}
	if sb.released {
		return nil, ErrBufferReleased
	}
	return sb, nil
}
