package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roadviz/internal/config"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(configInitCmd(a), configShowCmd(a))
	return cmd
}

func configInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configDefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.EnsureConfigDir(path); err != nil {
				return err
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			good.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func configShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration summary",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if a.cfgPath != "" {
				muted.Printf("config: %s\n", a.cfgPath)
			} else {
				muted.Println("config: defaults (no file found)")
			}
			fmt.Println(a.cfg.Summary())
			for _, c := range a.cfg.Capabilities.ListCapabilities() {
				state := bad.Sprint("off")
				if c.Enabled {
					state = good.Sprint("on")
				}
				fmt.Printf("  %-18s %-6s %-8s %s\n", c.Name, c.Type, state, c.Description)
			}
		},
	}
}

func configDefaultPath() string {
	return config.DefaultConfigPath()
}
