package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/reporting"
	"github.com/convlint/convlint/internal/shared"
	"github.com/convlint/convlint/internal/storage"
)

type reportCmd struct {
	configPath string
	runID      string
	format     string
	outDir     string
	dbPath     string
}

func newReportCmd() *cobra.Command {
	rc := &reportCmd{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.run()
		},
	}
	cmd.Flags().StringVar(&rc.configPath, "config", "", "Path to YAML config")
	cmd.Flags().StringVar(&rc.runID, "run", "", "Run ID (defaults to the latest run)")
	cmd.Flags().StringVar(&rc.format, "format", "", "Output format: text or json")
	cmd.Flags().StringVar(&rc.outDir, "out", "", "Directory for run artifacts")
	cmd.Flags().StringVar(&rc.dbPath, "db", "", "SQLite database path")
	return cmd
}

func (rc *reportCmd) run() error {
	cfg, err := shared.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}
	if rc.format == "" {
		rc.format = cfg.Reporting.Format
	}
	if rc.outDir == "" {
		rc.outDir = cfg.Reporting.OutDir
	}
	if rc.dbPath == "" {
		rc.dbPath = cfg.Database.DSN
	}

	db, err := storage.OpenSQLite(rc.dbPath)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	loaded, err := loadRun(db, rc.runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}

	rep := reporting.Aggregate(loaded.ID, loaded.Findings, 0)
	switch rc.format {
	case "json":
		if err := reporting.WriteFindingsJSON(os.Stdout, rep); err != nil {
			return err
		}
	default:
		if err := reporting.WriteText(os.Stdout, rep); err != nil {
			return err
		}
	}

	if _, err := reporting.WriteHTML(loaded.ID, rc.outDir, &loaded, rep); err != nil {
		return err
	}
	return nil
}
