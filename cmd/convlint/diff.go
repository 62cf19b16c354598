package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/ir"
	"github.com/convlint/convlint/internal/reporting"
	"github.com/convlint/convlint/internal/shared"
	"github.com/convlint/convlint/internal/storage"
)

type diffCmd struct {
	configPath string
	baseID     string
	headID     string
	outDir     string
	dbPath     string
}

func newDiffCmd() *cobra.Command {
	dc := &diffCmd{}
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dc.run()
		},
	}
	cmd.Flags().StringVar(&dc.configPath, "config", "", "Path to YAML config")
	cmd.Flags().StringVar(&dc.baseID, "base", "", "Base run ID")
	cmd.Flags().StringVar(&dc.headID, "head", "", "Head run ID (defaults to the latest run)")
	cmd.Flags().StringVar(&dc.outDir, "out", "", "Directory for the diff artifact")
	cmd.Flags().StringVar(&dc.dbPath, "db", "", "SQLite database path")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

func (dc *diffCmd) run() error {
	cfg, err := shared.LoadConfig(dc.configPath)
	if err != nil {
		return err
	}
	if dc.outDir == "" {
		dc.outDir = cfg.Reporting.OutDir
	}
	if dc.dbPath == "" {
		dc.dbPath = cfg.Database.DSN
	}

	db, err := storage.OpenSQLite(dc.dbPath)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	base, err := db.LoadRun(dc.baseID)
	if err != nil {
		return fmt.Errorf("load base run: %w", err)
	}
	head, err := loadRun(db, dc.headID)
	if err != nil {
		return fmt.Errorf("load head run: %w", err)
	}

	path, err := reporting.WriteDiffJSON(base.ID, head.ID, dc.outDir, &base, &head)
	if err != nil {
		return err
	}
	fmt.Printf("Diff OK\n  Base: %s\n  Head: %s\n  Out:  %s\n", base.ID, head.ID, path)
	return nil
}

// loadRun resolves an explicit run ID or falls back to the latest.
func loadRun(db *storage.DB, id string) (ir.Run, error) {
	if id == "" {
		return db.LoadLatestRun()
	}
	return db.LoadRun(id)
}
