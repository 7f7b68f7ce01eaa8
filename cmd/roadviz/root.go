package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"roadviz/internal/config"
	"roadviz/internal/domain"
	"roadviz/internal/loader"
	"roadviz/internal/logger"
	"roadviz/internal/repository/sqlite"
	"roadviz/internal/service"
)

var version = "0.3.0"

var (
	bold  = color.New(color.Bold)
	good  = color.New(color.FgGreen)
	bad   = color.New(color.FgRed)
	muted = color.New(color.Faint)
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	logLevel   string
	dbPath     string
	envFile    string
	noColor    bool
}

// app is the state prepared before any subcommand runs
type app struct {
	flags   globalFlags
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "roadviz",
		Short:         "Animate a traversal over a road network",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}
	root.SetVersionTemplate("roadviz {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default: search path)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "dotenv file loaded before the config")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		runCmd(a),
		frameCmd(a),
		importCmd(a),
		runsCmd(a),
		probeCmd(a),
		configCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(a.flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.flags.envFile, err)
	}

	var err error
	if a.flags.configPath != "" {
		a.cfg, a.cfgPath, err = config.LoadFromPath(a.flags.configPath)
	} else {
		a.cfg, a.cfgPath, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.flags.logLevel != "" {
		a.cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.dbPath != "" {
		a.cfg.Database.Path = a.flags.dbPath
	}
	if a.flags.noColor {
		color.NoColor = true
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log, err = logger.Init(a.cfg.Log)
	if err != nil {
		return err
	}
	if a.cfgPath != "" {
		a.log.Debug().Str("path", a.cfgPath).Str("command", cmd.Name()).Msg("Loaded config")
	}
	return nil
}

func (a *app) openRepo() (*sqlite.Repository, error) {
	repo, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("path", a.cfg.Database.Path).Msg("Database opened")
	return repo, nil
}

// loadGraph reads the configured graph file, or the stored graph by name.
// The returned name is empty for file graphs.
func (a *app) loadGraph(ctx context.Context, repo *sqlite.Repository) (*domain.Graph, string, error) {
	gc := a.cfg.Graph
	if gc.Path != "" {
		g, err := loader.LoadGraph(gc.Path, gc.Format)
		if err != nil {
			return nil, "", err
		}
		a.log.Info().Str("path", gc.Path).Int("nodes", g.Len()).Int("edges", len(g.Edges())).Msg("Loaded graph")
		return g, "", nil
	}
	if gc.Name == "" {
		return nil, "", errors.New("no graph: pass --graph FILE or --name NAME, or set graph.path in the config")
	}
	if repo == nil {
		return nil, "", fmt.Errorf("graph %q needs the graph store", gc.Name)
	}

	g, err := service.NewGraphService(repo, nil).Load(ctx, gc.Name)
	if err != nil {
		return nil, "", err
	}
	a.log.Info().Str("graph", gc.Name).Int("nodes", g.Len()).Int("edges", len(g.Edges())).Msg("Loaded stored graph")
	return g, gc.Name, nil
}

// simulationOptions builds the traversal options shared by run and frame
func (a *app) simulationOptions(name string) []service.Option {
	opts := []service.Option{
		service.WithInterval(a.cfg.Traversal.Interval.Duration()),
		service.WithLogger(logger.Component("traversal")),
		service.WithGraphName(name),
	}
	if a.cfg.Traversal.Seed != nil {
		opts = append(opts, service.WithSeed(*a.cfg.Traversal.Seed))
	}
	return opts
}

func (a *app) pickSource(g *domain.Graph) (string, error) {
	seed := time.Now().UnixNano()
	if a.cfg.Traversal.Seed != nil {
		seed = *a.cfg.Traversal.Seed
	}
	return loader.PickSource(g, a.cfg.Graph.Source, rand.New(rand.NewSource(seed)))
}

// graphFlags binds the graph selection flags onto the config
func (a *app) graphFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("graph", "", "graph file (GeoJSON, JSON or YAML)")
	f.String("format", "", "graph file format (default: from extension)")
	f.String("name", "", "stored graph name")
	f.String("source", "", "source node (default: random)")
	f.Int64("seed", 0, "traversal seed (default: time based)")
	f.Duration("interval", 0, "pause between visits")
}

func (a *app) applyGraphFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if v, _ := f.GetString("graph"); v != "" {
		a.cfg.Graph.Path = v
	}
	if v, _ := f.GetString("format"); v != "" {
		a.cfg.Graph.Format = v
	}
	if v, _ := f.GetString("name"); v != "" {
		a.cfg.Graph.Name = v
		if !f.Changed("graph") {
			a.cfg.Graph.Path = ""
		}
	}
	if v, _ := f.GetString("source"); v != "" {
		a.cfg.Graph.Source = v
	}
	if f.Changed("seed") {
		v, _ := f.GetInt64("seed")
		a.cfg.Traversal.Seed = &v
	}
	if f.Changed("interval") {
		v, _ := f.GetDuration("interval")
		a.cfg.Traversal.Interval = config.Duration(v)
	}
}
