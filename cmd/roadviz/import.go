package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"roadviz/internal/codec"
	"roadviz/internal/logger"
	"roadviz/internal/service"
	"roadviz/internal/watcher"
)

func importCmd(a *app) *cobra.Command {
	var (
		name   string
		format string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a graph file in the database under a name",
		Long: "Parse a road network (" + strings.Join(codec.Formats(), ", ") + ") and store it.\n" +
			"The name defaults to the file name without its extension.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				c, err := codec.ForPath(path)
				if err != nil {
					return err
				}
				format = c.Format()
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()
			svc := service.NewGraphService(repo, nil)

			ctx := cmd.Context()
			if err := importFile(ctx, svc, path, name, format); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			w := watcher.New(path, func(p string) {
				// a half-written file fails to parse; the next write retries
				_ = importFile(ctx, svc, p, name, format)
			}, logger.Component("watcher"))
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "stored graph name")
	f.StringVar(&format, "format", "", "file format (default: from extension)")
	f.BoolVarP(&watch, "watch", "w", false, "re-import whenever the file changes")
	return cmd
}

func importFile(ctx context.Context, svc *service.GraphService, path, name, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := svc.Import(ctx, name, format, f)
	if err != nil {
		bad.Printf("import failed: %v\n", err)
		return err
	}
	good.Printf("imported %s", res.Name)
	fmt.Printf(" (%d nodes, %d edges, %s)\n", res.Nodes, res.Edges, res.Format)
	return nil
}
