package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"roadviz/internal/config"
	"roadviz/internal/domain"
	"roadviz/internal/logger"
	"roadviz/internal/metrics"
	"roadviz/internal/render"
	"roadviz/internal/render/raster"
	"roadviz/internal/repository/sqlite"
	"roadviz/internal/service"
)

func frameCmd(a *app) *cobra.Command {
	var (
		out    string
		steps  int
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Run a traversal headless and write one frame as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyGraphFlags(cmd)
			if width > 0 {
				a.cfg.Render.Width = width
			}
			if height > 0 {
				a.cfg.Render.Height = height
			}
			if !cmd.Flags().Changed("interval") {
				a.cfg.Traversal.Interval = 0
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.frame(ctx, out, steps)
		},
	}

	a.graphFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "frame.png", "output PNG file")
	f.IntVar(&steps, "steps", 0, "stop after this many snapshots (0 = run to completion)")
	f.IntVar(&width, "width", 0, "frame width (default: render.width)")
	f.IntVar(&height, "height", 0, "frame height (default: render.height)")

	return cmd
}

func (a *app) frame(ctx context.Context, out string, steps int) error {
	var repo *sqlite.Repository
	if a.cfg.Graph.Path == "" {
		r, err := a.openRepo()
		if err != nil {
			return err
		}
		defer r.Close()
		repo = r
	}

	g, name, err := a.loadGraph(ctx, repo)
	if err != nil {
		return err
	}
	source, err := a.pickSource(g)
	if err != nil {
		return err
	}

	ch := service.NewStateChannel(service.WithChannelLogger(logger.Component("channel")))
	defer ch.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := a.simulationOptions(name)
	if steps > 0 {
		// the worker checks its context before each visit
		opts = append(opts, service.WithClock(func(ctx context.Context, d time.Duration) {
			if ch.Published() >= uint64(steps) {
				cancel()
				return
			}
			if d <= 0 {
				return
			}
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		}))
	}

	sim, err := service.NewSimulation(g, source, ch, nil, opts...)
	if err != nil {
		return err
	}
	if err := sim.Start(runCtx); err != nil {
		return err
	}
	res, err := sim.Wait(ctx)
	if err != nil {
		stopSimulation(sim, a.log)
		return err
	}

	if err := writeFramePNG(out, g, ch, a.cfg, nil); err != nil {
		return err
	}

	state, _ := ch.Read()
	visited := 0
	if state != nil {
		visited = state.VisitedCount()
	}
	good.Printf("wrote %s", out)
	muted.Printf("  (%s of %s nodes visited, source %s, %s)\n",
		humanize.Comma(int64(visited)), humanize.Comma(int64(g.Len())), source,
		res.Duration.Round(time.Millisecond))
	return nil
}

// writeFramePNG renders the latest snapshot of ch with the software device
func writeFramePNG(path string, g *domain.Graph, ch *service.StateChannel, cfg *config.Config, m *metrics.Metrics) error {
	w, h := cfg.Render.Width, cfg.Render.Height
	dev, err := raster.New(w, h)
	if err != nil {
		return err
	}

	opts := render.OptionsFrom(cfg.Render)
	opts.Logger = logger.Component("raster")
	opts.Metrics = m
	r, err := render.NewRenderer(g, dev, render.CPUPulse{}, render.PaletteFrom(cfg.Render.Palette), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	state, _ := ch.Read()
	if err := r.Frame(time.Now(), w, h, state); err != nil {
		return err
	}
	if cfg.Render.HUD {
		dev.DrawHUD(render.HUDLines(r.Stats(), g.Len()), render.RGB(1, 1, 1))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dev.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
