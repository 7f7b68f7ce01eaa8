package render

import (
	"errors"
	"testing"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDevice keeps slice buffers and logs the draw calls of a frame
type recordingDevice struct {
	calls    []string
	buffers  []*SliceBuffer
	released int
	failOn   int

	proj   Projection
	size   float32
	strips [][]float32
}

func (d *recordingDevice) CreateBuffer(kind BufferKind, usage BufferUsage, data []float32) (Buffer, error) {
	if d.failOn > 0 && len(d.buffers)+1 == d.failOn {
		return nil, errors.New("out of memory")
	}
	b, err := NewSliceBuffer(kind, usage, data)
	if err != nil {
		return nil, err
	}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *recordingDevice) UpdateBuffer(b Buffer, data []float32) error {
	sb, err := AsSliceBuffer(b)
	if err != nil {
		return err
	}
	d.calls = append(d.calls, "update")
	return sb.Update(data)
}

func (d *recordingDevice) Release(b Buffer) {
	if sb, ok := b.(*SliceBuffer); ok {
		sb.Release()
	}
	d.released++
}

func (d *recordingDevice) Clear(Color) { d.calls = append(d.calls, "clear") }

func (d *recordingDevice) SetProjection(p Projection) {
	d.proj = p
	d.calls = append(d.calls, "projection")
}

func (d *recordingDevice) DrawGradientQuad(domain.Bounds, Color, Color) {
	d.calls = append(d.calls, "background")
}

func (d *recordingDevice) DrawLines(Buffer, Color, float32) {
	d.calls = append(d.calls, "edges")
}

func (d *recordingDevice) DrawPoints(_, _ Buffer, size float32) {
	d.size = size
	d.calls = append(d.calls, "nodes")
}

func (d *recordingDevice) DrawLineStrip(points []float32, _ Color, _ float32) {
	d.strips = append(d.strips, append([]float32(nil), points...))
	d.calls = append(d.calls, "route")
}

func (d *recordingDevice) reset() {
	d.calls = nil
	d.strips = nil
}

// constPulse returns a fixed value
type constPulse float64

func (p constPulse) Name() string                     { return "const" }
func (p constPulse) Pulse(time.Time) (float64, error) { return float64(p), nil }
func (p constPulse) Close() error                     { return nil }

func testGraph(t *testing.T) *domain.Graph {
	t.Helper()
	f := domain.NewGraphFragment()
	f.AddNode(domain.NewNode("A", 0, 0))
	f.AddNode(domain.NewNode("B", 1, 0))
	f.AddNode(domain.NewNode("C", 1, 1))
	f.AddNode(domain.NewNode("D", 0, 1))
	f.AddEdge(domain.NewEdge("A", "B"))
	f.AddEdge(domain.NewEdge("B", "C"))
	f.AddEdge(domain.NewEdge("C", "D"))
	g, err := domain.NewGraph(f)
	require.NoError(t, err)
	return g
}

func newTestRenderer(t *testing.T, pulse PulseSource) (*Renderer, *recordingDevice) {
	t.Helper()
	dev := &recordingDevice{}
	r, err := NewRenderer(testGraph(t), dev, pulse, DefaultPalette(), DefaultOptions())
	require.NoError(t, err)
	return r, dev
}

func TestNewRendererBuffers(t *testing.T) {
	r, dev := newTestRenderer(t, nil)
	require.Len(t, dev.buffers, 3)

	edges, positions, colors := dev.buffers[0], dev.buffers[1], dev.buffers[2]
	assert.Equal(t, 12, edges.Len())
	assert.Equal(t, StaticDraw, edges.Usage())
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 0, 1, 1, 1, 1, 0, 1}, edges.Data())
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 1, 0, 1}, positions.Data())
	assert.Equal(t, 12, colors.Len())
	assert.Equal(t, DynamicDraw, colors.Usage())
	assert.Equal(t, DefaultPalette().Node, RGB(colors.Data()[0], colors.Data()[1], colors.Data()[2]))
	assert.Zero(t, r.Stats().Frames)
}

func TestNewRendererPreconditions(t *testing.T) {
	_, err := NewRenderer(nil, &recordingDevice{}, nil, DefaultPalette(), DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrEmptyGraph)

	_, err = NewRenderer(testGraph(t), nil, nil, DefaultPalette(), DefaultOptions())
	assert.ErrorIs(t, err, ErrDeviceInit)

	dev := &recordingDevice{failOn: 3}
	_, err = NewRenderer(testGraph(t), dev, nil, DefaultPalette(), DefaultOptions())
	assert.ErrorIs(t, err, ErrBufferCreate)
	assert.Equal(t, 2, dev.released, "buffers created before the failure are released")
}

func TestFrameOrder(t *testing.T) {
	r, dev := newTestRenderer(t, constPulse(0.5))

	state, err := domain.NewSimulationState([]string{"A", "B"}, "B", 4)
	require.NoError(t, err)
	state = state.WithRoute([]string{"A", "B", "C"})

	require.NoError(t, r.Frame(time.Now(), 800, 600, state))
	assert.Equal(t, []string{"projection", "clear", "background", "edges", "update", "nodes", "route"}, dev.calls)
	assert.True(t, dev.proj.Contains(r.Graph().Bounds()))
}

func TestFrameColorMapping(t *testing.T) {
	r, dev := newTestRenderer(t, nil)
	p := DefaultPalette()

	state, err := domain.NewSimulationState([]string{"A", "B"}, "B", 4)
	require.NoError(t, err)
	require.NoError(t, r.Frame(time.Now(), 100, 100, state))

	a, _ := r.NodeColor("A")
	b, _ := r.NodeColor("B")
	c, _ := r.NodeColor("C")
	assert.Equal(t, p.Visited, a)
	assert.Equal(t, p.Active, b)
	assert.Equal(t, p.Node, c)

	assert.Equal(t, r.NodeColors(), dev.buffers[2].Data())
}

func TestFrameEmptyState(t *testing.T) {
	r, dev := newTestRenderer(t, constPulse(1))
	opts := DefaultOptions()

	for _, state := range []*domain.SimulationState{nil, domain.EmptyState()} {
		dev.reset()
		require.NoError(t, r.Frame(time.Now(), 640, 480, state))

		for _, id := range []string{"A", "B", "C", "D"} {
			c, ok := r.NodeColor(id)
			require.True(t, ok)
			assert.Equal(t, DefaultPalette().Node, c)
		}
		assert.Equal(t, opts.PointSize, dev.size, "zero pulse before any visit")
		assert.Empty(t, dev.strips)
	}
}

func TestFramePointSize(t *testing.T) {
	r, dev := newTestRenderer(t, constPulse(1))
	state, err := domain.NewSimulationState([]string{"A"}, "A", 4)
	require.NoError(t, err)

	require.NoError(t, r.Frame(time.Now(), 640, 480, state))
	assert.InDelta(t, 5*1.3, dev.size, 1e-6)
	assert.Equal(t, 1.0, r.Stats().Pulse)
	assert.InDelta(t, 25.0, r.Stats().Progress, 1e-9)
}

func TestFrameRouteSkipsUnknownNodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	opts := DefaultOptions()
	opts.Metrics = m

	dev := &recordingDevice{}
	r, err := NewRenderer(testGraph(t), dev, nil, DefaultPalette(), opts)
	require.NoError(t, err)

	state, err := domain.NewSimulationState([]string{"A"}, "A", 4)
	require.NoError(t, err)
	state = state.WithRoute([]string{"A", "B", "ghost", "C", "D", "nowhere"})

	require.NoError(t, r.Frame(time.Now(), 640, 480, state))
	require.Len(t, dev.strips, 2)
	assert.Equal(t, []float32{0, 0, 1, 0}, dev.strips[0])
	assert.Equal(t, []float32{1, 1, 0, 1}, dev.strips[1])

	stats := r.Stats()
	assert.Equal(t, 2, stats.RouteSegments)
	assert.Equal(t, 3, stats.RouteSkipped)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RouteSegmentsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesRendered))

	dev.reset()
	short := state.WithRoute([]string{"A"})
	require.NoError(t, r.Frame(time.Now(), 640, 480, short))
	assert.Empty(t, dev.strips)
}

func TestFrameBuffersFixed(t *testing.T) {
	r, dev := newTestRenderer(t, nil)
	lens := []int{dev.buffers[0].Len(), dev.buffers[1].Len(), dev.buffers[2].Len()}

	for k, visited := range [][]string{{"A"}, {"A", "C"}, {"A", "C", "D"}, {"A", "C", "D", "B"}} {
		state, err := domain.NewSimulationState(visited, visited[k], 4)
		require.NoError(t, err)
		require.NoError(t, r.Frame(time.Now(), 320, 240, state))
	}

	assert.Equal(t, lens, []int{dev.buffers[0].Len(), dev.buffers[1].Len(), dev.buffers[2].Len()})
	assert.Len(t, dev.buffers, 3)
	assert.Equal(t, uint64(4), r.Stats().Frames)
}

func TestRendererClose(t *testing.T) {
	r, dev := newTestRenderer(t, nil)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 3, dev.released)
	for _, b := range dev.buffers {
		assert.True(t, b.Released())
	}

	assert.ErrorIs(t, r.Frame(time.Now(), 10, 10, nil), ErrRendererClosed)
}

func TestSliceBufferUpdate(t *testing.T) {
	_, err := NewSliceBuffer(ColorBuffer, DynamicDraw, []float32{1, 2})
	assert.ErrorIs(t, err, ErrBufferCreate)

	static, err := NewSliceBuffer(VertexBuffer, StaticDraw, []float32{1, 2})
	require.NoError(t, err)
	assert.Error(t, static.Update([]float32{3, 4}))

	dyn, err := NewSliceBuffer(ColorBuffer, DynamicDraw, []float32{0, 0, 0})
	require.NoError(t, err)
	assert.ErrorIs(t, dyn.Update([]float32{1}), ErrBufferSize)
	require.NoError(t, dyn.Update([]float32{1, 0.5, 0}))
	assert.Equal(t, []float32{1, 0.5, 0}, dyn.Data())

	dyn.Release()
	assert.ErrorIs(t, dyn.Update([]float32{1, 1, 1}), ErrBufferReleased)
}

func TestHUDLines(t *testing.T) {
	lines := HUDLines(FrameStats{Progress: 42.5, Visited: 1234, Current: "n7", PulseSource: "cpu"}, 2900)
	require.Len(t, lines, 3)
	assert.Equal(t, "progress  42.5%  visited 1,234/2,900", lines[0])
	assert.Equal(t, "current n7", lines[1])
	assert.Contains(t, lines[2], "pulse cpu")

	assert.Equal(t, "current -", HUDLines(FrameStats{}, 0)[1])
}
