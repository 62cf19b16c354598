package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/shared"
)

func newRulesCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rules, built-ins plus configured packs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig(configPath)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return &shared.ConfigError{Err: err}
			}
			for _, r := range reg.List() {
				fmt.Printf("%-30s %-8s %s\n", r.ID, r.DefaultSeverity, r.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config")
	return cmd
}
