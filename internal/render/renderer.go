package render

import (
	"fmt"
	"time"

	"roadviz/internal/config"
	"roadviz/internal/domain"
	"roadviz/internal/metrics"

	"github.com/rs/zerolog"
)

// Options sizes the drawn primitives
type Options struct {
	PointSize  float32
	PulseGain  float32
	EdgeWidth  float32
	RouteWidth float32

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns the stock sizes with a no-op logger
func DefaultOptions() Options {
	return OptionsFrom(config.DefaultConfig().Render)
}

// OptionsFrom converts the render section of the configuration
func OptionsFrom(cfg config.RenderConfig) Options {
	return Options{
		PointSize:  float32(cfg.PointSize),
		PulseGain:  float32(cfg.PulseGain),
		EdgeWidth:  float32(cfg.EdgeWidth),
		RouteWidth: float32(cfg.RouteWidth),
		Logger:     zerolog.Nop(),
	}
}

// FrameStats describes the last drawn frame
type FrameStats struct {
	Frames        uint64
	Duration      time.Duration
	Projection    Projection
	Pulse         float64
	PulseSource   string
	PointSize     float32
	Visited       int
	Current       string
	Progress      float64
	RouteSegments int
	RouteSkipped  int
}

// StateSource hands out the latest published snapshot without blocking
type StateSource interface {
	Read() (*domain.SimulationState, bool)
}

// Renderer owns the camera and the device buffers for one graph
type Renderer struct {
	graph   *domain.Graph
	device  Device
	pulse   PulseSource
	palette Palette
	opts    Options
	log     zerolog.Logger

	camera *Camera

	edges     Buffer
	positions Buffer
	colors    Buffer
	colorData []float32

	stats  FrameStats
	closed bool
}

// NewRenderer builds the static edge and node buffers and the dynamic color
// buffer. Any buffer failure is fatal and wrapped in ErrBufferCreate.
func NewRenderer(g *domain.Graph, device Device, pulse PulseSource, palette Palette, opts Options) (*Renderer, error) {
	if g == nil || g.Len() == 0 {
		return nil, domain.ErrEmptyGraph
	}
	if device == nil {
		return nil, fmt.Errorf("%w: no device", ErrDeviceInit)
	}
	if pulse == nil {
		pulse = CPUPulse{}
	}

	r := &Renderer{
		graph:     g,
		device:    device,
		pulse:     pulse,
		palette:   palette,
		opts:      opts,
		log:       opts.Logger,
		camera:    NewCamera(g.Bounds()),
		colorData: make([]float32, 3*g.Len()),
	}

	var err error
	if r.edges, err = device.CreateBuffer(VertexBuffer, StaticDraw, edgeVertices(g)); err != nil {
		return nil, r.createFailed("edge", err)
	}
	if r.positions, err = device.CreateBuffer(VertexBuffer, StaticDraw, nodePositions(g)); err != nil {
		return nil, r.createFailed("node", err)
	}
	r.fillColors(nil)
	if r.colors, err = device.CreateBuffer(ColorBuffer, DynamicDraw, r.colorData); err != nil {
		return nil, r.createFailed("color", err)
	}

	r.log.Debug().
		Int("nodes", g.Len()).
		Int("edges", len(g.Edges())).
		Str("pulse", pulse.Name()).
		Msg("Created renderer")

	return r, nil
}

func (r *Renderer) createFailed(what string, err error) error {
	r.releaseBuffers()
	return fmt.Errorf("%w: %s buffer: %v", ErrBufferCreate, what, err)
}

func edgeVertices(g *domain.Graph) []float32 {
	edges := g.Edges()
	data := make([]float32, 0, 4*len(edges))
	for _, e := range edges {
		x1, y1, _ := g.Position(e.FromID)
		x2, y2, _ := g.Position(e.ToID)
		data = append(data, float32(x1), float32(y1), float32(x2), float32(y2))
	}
	return data
}

func nodePositions(g *domain.Graph) []float32 {
	nodes := g.Nodes()
	data := make([]float32, 0, 2*len(nodes))
	for _, n := range nodes {
		data = append(data, float32(n.X), float32(n.Y))
	}
	return data
}

// Camera returns the camera driven by input events
func (r *Renderer) Camera() *Camera {
	return r.camera
}

// Graph returns the drawn graph
func (r *Renderer) Graph() *domain.Graph {
	return r.graph
}

// Stats returns figures about the last frame
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// NodeColors returns a copy of the color buffer contents
func (r *Renderer) NodeColors() []float32 {
	return append([]float32(nil), r.colorData...)
}

// NodeColor returns the color last assigned to a node
func (r *Renderer) NodeColor(id string) (Color, bool) {
	i, ok := r.graph.Index(id)
	if !ok {
		return Color{}, false
	}
	return RGB(r.colorData[3*i], r.colorData[3*i+1], r.colorData[3*i+2]), true
}

// Frame draws one frame for a viewport. state may be nil before the first
// snapshot is published.
func (r *Renderer) Frame(now time.Time, viewW, viewH int, state *domain.SimulationState) error {
	if r.closed {
		return ErrRendererClosed
	}
	start := time.Now()

	proj := r.camera.Projection(viewW, viewH)
	r.device.SetProjection(proj)

	r.device.Clear(Color{A: 1})
	r.device.DrawGradientQuad(r.graph.Bounds(), r.palette.BackgroundBottom, r.palette.BackgroundTop)

	r.device.DrawLines(r.edges, r.palette.Edge, r.opts.EdgeWidth)

	r.fillColors(state)
	if err := r.device.UpdateBuffer(r.colors, r.colorData); err != nil {
		return fmt.Errorf("failed to update node colors: %w", err)
	}

	pulse := r.samplePulse(now, state)
	size := r.opts.PointSize * (1 + r.opts.PulseGain*float32(pulse))
	r.device.DrawPoints(r.positions, r.colors, size)

	segments, skipped := r.drawRoute(state)

	r.stats = FrameStats{
		Frames:        r.stats.Frames + 1,
		Duration:      time.Since(start),
		Projection:    proj,
		Pulse:         pulse,
		PulseSource:   r.pulse.Name(),
		PointSize:     size,
		RouteSegments: segments,
		RouteSkipped:  skipped,
	}
	if state != nil {
		r.stats.Visited = state.VisitedCount()
		r.stats.Current, _ = state.Current()
		r.stats.Progress = state.Progress()
	}
	r.opts.Metrics.FrameRendered(r.stats.Duration)
	r.opts.Metrics.RouteSegmentSkipped(skipped)

	return nil
}

// fillColors assigns default, visited and active colors. The active node
// wins over visited.
func (r *Renderer) fillColors(state *domain.SimulationState) {
	for i, n := range r.graph.Nodes() {
		c := r.palette.Node
		if state != nil && state.IsVisited(n.ID) {
			c = r.palette.Visited
		}
		r.setColor(i, c)
	}
	if state == nil {
		return
	}
	if current, ok := state.Current(); ok {
		if i, ok := r.graph.Index(current); ok {
			r.setColor(i, r.palette.Active)
		}
	}
}

func (r *Renderer) setColor(i int, c Color) {
	r.colorData[3*i] = c.R
	r.colorData[3*i+1] = c.G
	r.colorData[3*i+2] = c.B
}

// samplePulse is zero until something was visited
func (r *Renderer) samplePulse(now time.Time, state *domain.SimulationState) float64 {
	if state == nil || state.VisitedCount() == 0 {
		return 0
	}
	v, err := r.pulse.Pulse(now)
	if err != nil {
		r.log.Debug().Err(err).Msg("Pulse sample failed")
		return 0
	}
	return ClampPulse(v)
}

// drawRoute draws the route as line strips. A pair with an unknown
// endpoint is skipped and splits the strip.
func (r *Renderer) drawRoute(state *domain.SimulationState) (segments, skipped int) {
	if state == nil {
		return 0, 0
	}
	route := state.Route()
	if len(route) < 2 {
		return 0, 0
	}

	strip := make([]float32, 0, 2*len(route))
	flush := func() {
		if len(strip) >= 4 {
			r.device.DrawLineStrip(strip, r.palette.Route, r.opts.RouteWidth)
		}
		strip = strip[:0]
	}

	prevKnown := false
	for i, id := range route {
		x, y, ok := r.graph.Position(id)
		if i > 0 {
			if ok && prevKnown {
				segments++
			} else {
				skipped++
			}
		}
		if !ok {
			flush()
			prevKnown = false
			continue
		}
		strip = append(strip, float32(x), float32(y))
		prevKnown = true
	}
	flush()

	return segments, skipped
}

// Close releases every buffer. It is safe to call more than once.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.releaseBuffers()
	if err := r.pulse.Close(); err != nil {
		return fmt.Errorf("failed to release pulse source: %w", err)
	}
	return nil
}

func (r *Renderer) releaseBuffers() {
	for _, b := range []Buffer{r.edges, r.positions, r.colors} {
		if b != nil {
			r.device.Release(b)
		}
	}
	r.edges, r.positions, r.colors = nil, nil, nil
}
