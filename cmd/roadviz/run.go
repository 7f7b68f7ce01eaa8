package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"roadviz/internal/config"
	"roadviz/internal/core/bootstrap"
	"roadviz/internal/domain"
	"roadviz/internal/handler"
	"roadviz/internal/hub"
	"roadviz/internal/logger"
	"roadviz/internal/metrics"
	"roadviz/internal/render"
	"roadviz/internal/render/ebitenview"
	"roadviz/internal/repository/sqlite"
	"roadviz/internal/service"
	"roadviz/internal/ui"
)

const shutdownTimeout = 5 * time.Second

type runFlags struct {
	headless    bool
	window      bool
	addr        string
	tui         bool
	quiet       bool
	keepServing bool
	png         string
}

func runCmd(a *app) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Traverse a graph in a window or headless, serving observers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyGraphFlags(cmd)
			rf.apply(cmd, a.cfg)
			return a.run(cmd.Context(), rf)
		},
	}

	a.graphFlags(cmd)
	f := cmd.Flags()
	f.BoolVar(&rf.headless, "headless", false, "never open a window")
	f.BoolVar(&rf.window, "window", false, "open a window without probing the display")
	f.StringVar(&rf.addr, "addr", "", "observer HTTP listen address (empty string in config disables)")
	f.BoolVar(&rf.tui, "tui", false, "show the terminal progress view")
	f.BoolVar(&rf.quiet, "quiet", false, "do not print a console line per snapshot")
	f.BoolVar(&rf.keepServing, "keep-serving", false, "keep the HTTP observer up after the traversal finished")
	f.StringVar(&rf.png, "png", "", "write the final frame to this PNG file (headless)")
	cmd.MarkFlagsMutuallyExclusive("headless", "window")

	return cmd
}

func (rf runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	switch {
	case rf.headless:
		cfg.Render.Mode = config.ModeHeadless
	case rf.window:
		cfg.Render.Mode = config.ModeWindow
	}
	if cmd.Flags().Changed("addr") {
		cfg.Observer.Addr = rf.addr
	}
	if rf.tui {
		cfg.Observer.TUI = true
		cfg.Capabilities.Plugins.TUI.Enabled = true
	}
	if rf.quiet {
		cfg.Observer.ConsoleLog = false
	}
}

// run wires the producer, the observers and the presenter, then shuts them
// down in two phases: the traversal stops first, the consumers after.
func (a *app) run(parent context.Context, rf runFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	if cfg.NeedsBootstrap() {
		res, err := bootstrap.Run(ctx, logger.Component("bootstrap"))
		if err != nil {
			return err
		}
		cfg.SetBootstrapResult(res.ToConfigBootstrap())
	}
	mode := cfg.EffectiveMode()
	if cfg.ModeExceedsRecommendation() {
		a.log.Warn().Str("mode", string(mode)).
			Str("recommended", string(cfg.Bootstrap.Recommendation.Mode)).
			Msg("Render mode exceeds the probed recommendation")
	}
	a.log.Info().Msg(cfg.Summary())

	repo, err := a.openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	g, name, err := a.loadGraph(ctx, repo)
	if err != nil {
		return err
	}
	source, err := a.pickSource(g)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := service.NewEventBus()
	ch := service.NewStateChannel(
		service.WithChannelMetrics(m),
		service.WithChannelLogger(logger.Component("channel")),
	)
	defer ch.Close()

	opts := append(a.simulationOptions(name), service.WithMetrics(m), service.WithEventBus(bus))
	sim, err := service.NewSimulation(g, source, ch, repo, opts...)
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if cfg.Observer.Addr != "" && cfg.Capabilities.IsEnabled("http_observer", mode) {
		a.serveHTTP(serveCtx, group, g, name, repo, ch, bus, sim, reg)
	}

	useTUI := cfg.Observer.TUI && mode == config.ModeHeadless && cfg.Capabilities.IsEnabled("tui", mode)
	var tui *ui.TUI
	if useTUI {
		tui = ui.NewTUI(ch, fmt.Sprintf("%s from %s", graphLabel(name, cfg.Graph.Path), source))
		sim.OnFinished(tui.Finish)
	} else if cfg.Observer.ConsoleLog {
		console := ui.NewConsoleLog(os.Stdout, a.flags.noColor)
		sub := console.Attach(ch)
		sim.OnFinished(func(res service.Result) {
			sub.Close()
			console.Finished(res)
		})
	}

	if err := sim.Start(gctx); err != nil {
		return err
	}

	var runErr error
	switch {
	case mode == config.ModeWindow && cfg.Capabilities.IsEnabled("window", mode):
		runErr = ebitenview.Run(ebitenview.Options{
			Title:       cfg.Render.Title,
			Width:       cfg.Render.Width,
			Height:      cfg.Render.Height,
			HUD:         cfg.Render.HUD,
			Accelerated: cfg.Pulse.Accelerated && cfg.Capabilities.IsEnabled("accelerated_pulse", mode),
			Graph:       g,
			Source:      ch,
			Palette:     render.PaletteFrom(cfg.Render.Palette),
			Render:      render.OptionsFrom(cfg.Render),
			Logger:      logger.Component("window"),
			Metrics:     m,
			Done:        gctx.Done(),
			BeforeRelease: func() {
				stopSimulation(sim, a.log)
			},
		})
	case tui != nil:
		runErr = tui.Run()
		stopSimulation(sim, a.log)
	default:
		runErr = a.waitHeadless(gctx, sim, rf.keepServing && cfg.Observer.Addr != "")
	}

	// Phase one: no snapshot is published after this returns.
	stopSimulation(sim, a.log)
	if res, ok := sim.Result(); ok {
		a.log.Info().Int("emitted", res.Emitted).Int("total", res.Total).
			Bool("cancelled", res.Cancelled).Dur("duration", res.Duration).Msg("Traversal finished")
	}
	if rf.png != "" && mode == config.ModeHeadless {
		if err := writeFramePNG(rf.png, g, ch, cfg, m); err != nil {
			a.log.Error().Err(err).Str("path", rf.png).Msg("Failed to write frame")
		}
	}

	// Phase two: the consumers go.
	stopServing()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func (a *app) waitHeadless(ctx context.Context, sim *service.Simulation, keepServing bool) error {
	if _, err := sim.Wait(ctx); err != nil {
		return err
	}
	if keepServing {
		a.log.Info().Msg("Traversal complete; serving until interrupted")
		<-ctx.Done()
	}
	return nil
}

func (a *app) serveHTTP(ctx context.Context, group *errgroup.Group, g *domain.Graph, name string,
	repo *sqlite.Repository, ch *service.StateChannel, bus *service.EventBus,
	sim *service.Simulation, reg *prometheus.Registry) {

	cfg := a.cfg.Observer
	hlog := logger.Component("http")

	var streams handler.Streams
	if cfg.SSE || cfg.WebSocket {
		h := hub.New(logger.Component("hub"))
		sub := h.AttachState(ch)
		detach := h.AttachBus(bus)
		group.Go(func() error {
			h.Run(ctx)
			sub.Close()
			detach()
			return nil
		})
		streams = h
	}
	var gatherer prometheus.Gatherer
	if cfg.Metrics {
		gatherer = reg
	}

	graphs := handler.NewGraphHandler(g, name, service.NewGraphService(repo, bus), hlog)
	api := handler.NewAPIHandler(ch, sim, repo, hlog)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(graphs, api, streams, gatherer, hlog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		a.log.Info().Str("addr", cfg.Addr).Msg("Observer HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
}

func stopSimulation(sim *service.Simulation, log zerolog.Logger) {
	if err := sim.Stop(); err != nil && !errors.Is(err, service.ErrNotStarted) {
		log.Warn().Err(err).Msg("Failed to stop traversal")
	}
}

func graphLabel(name, path string) string {
	if name != "" {
		return name
	}
	return path
}
