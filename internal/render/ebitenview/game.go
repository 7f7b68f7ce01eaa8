// Package ebitenview shows the renderer in a desktop window using ebiten.
package ebitenview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/metrics"
	"roadviz/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
)

// Options configures the window
type Options struct {
	Title       string
	Width       int
	Height      int
	HUD         bool
	Accelerated bool

	Graph   *domain.Graph
	Source  render.StateSource
	Palette render.Palette
	Render  render.Options

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Done closes the window when it is closed; nil means never.
	Done <-chan struct{}

	// BeforeRelease runs after the window closed and before the renderer
	// releases its buffers. The host stops the traversal here.
	BeforeRelease func()
}

// Game implements ebiten.Game on top of a render.Renderer
type Game struct {
	renderer *render.Renderer
	device   *Device
	input    *render.InputHandler
	source   render.StateSource
	done     <-chan struct{}
	hud      bool
	log      zerolog.Logger

	width  int
	height int
	err    error
}

// NewGame wires a renderer to window input
func NewGame(r *render.Renderer, dev *Device, source render.StateSource, w, h int, hud bool, log zerolog.Logger) *Game {
	return &Game{
		renderer: r,
		device:   dev,
		input:    render.NewInputHandler(r.Camera(), w, h),
		source:   source,
		hud:      hud,
		log:      log,
		width:    w,
		height:   h,
	}
}

// Update handles input and window closing
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}

	x, y := ebiten.CursorPosition()
	_, wy := ebiten.Wheel()
	g.input.Apply(render.PointerState{
		X:            float64(x),
		Y:            float64(y),
		JustPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		JustReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		Held:         ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Wheel:        wy,
		Reset:        inpututil.IsKeyJustPressed(ebiten.KeyR),
	})
	return nil
}

// Draw renders the latest snapshot
func (g *Game) Draw(screen *ebiten.Image) {
	if g.err != nil {
		return
	}
	g.device.SetTarget(screen)

	state, _ := g.source.Read()
	w, h := g.input.Viewport()
	if err := g.renderer.Frame(time.Now(), w, h, state); err != nil {
		g.log.Error().Err(err).Msg("Failed to draw frame")
		g.err = err
		return
	}

	if g.hud {
		lines := render.HUDLines(g.renderer.Stats(), g.renderer.Graph().Len())
		ebitenutil.DebugPrint(screen, strings.Join(lines, "\n"))
	}
}

// Layout follows the window size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.input.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed. Shutdown happens in
// two phases: BeforeRelease stops the producer, then the buffers go.
func Run(opts Options) error {
	log := opts.Logger

	pulse := render.SelectPulseSource(opts.Accelerated, ProbeShaderPulse, log, opts.Metrics)

	dev := NewDevice()
	ropts := opts.Render
	ropts.Logger = log
	ropts.Metrics = opts.Metrics
	r, err := render.NewRenderer(opts.Graph, dev, pulse, opts.Palette, ropts)
	if err != nil {
		pulse.Close()
		return err
	}

	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	game := NewGame(r, dev, opts.Source, opts.Width, opts.Height, opts.HUD, log)
	game.done = opts.Done
	log.Info().Int("width", opts.Width).Int("height", opts.Height).Str("pulse", pulse.Name()).Msg("Opening window")

	runErr := ebiten.RunGame(game)
	if errors.Is(runErr, ebiten.Termination) {
		runErr = nil
	}

	if opts.BeforeRelease != nil {
		opts.BeforeRelease()
	}
	if err := r.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to release renderer")
	}
	log.Info().Uint64("frames", r.Stats().Frames).Msg("Window closed")

	if runErr != nil {
		return fmt.Errorf("window: %w", runErr)
	}
	return nil
}
