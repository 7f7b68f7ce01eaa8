package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"roadviz/internal/core/bootstrap"
	"roadviz/internal/logger"
)

func probeCmd(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe the host and recommend a render mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := bootstrap.Run(cmd.Context(), logger.Component("bootstrap"))
			if err != nil {
				return err
			}

			items := res.Evidence.All()
			sort.SliceStable(items, func(i, j int) bool { return items[i].Category < items[j].Category })
			for _, e := range items {
				fmt.Printf("  %-12s %-20s %-14v %s\n", e.Category, e.Property, e.Value,
					muted.Sprintf("%.0f%%  %s", e.Confidence*100, e.Method))
			}
			fmt.Println()

			rec := res.Recommendation
			bold.Printf("Recommended mode: %s", rec.Mode)
			fmt.Printf(" (confidence %.0f%%)\n", rec.Confidence*100)
			for _, r := range rec.Reasons {
				fmt.Printf("  - %s\n", r)
			}
			for _, w := range rec.Warnings {
				bad.Printf("  ! %s\n", w)
			}

			if !save {
				return nil
			}
			a.cfg.SetBootstrapResult(res.ToConfigBootstrap())
			path := a.cfgPath
			if path == "" {
				path = configDefaultPath()
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			good.Printf("saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the result in the config file")
	return cmd
}
