package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/debt"
	"github.com/convlint/convlint/internal/gitdelta"
	"github.com/convlint/convlint/internal/ir"
	"github.com/convlint/convlint/internal/reporting"
	"github.com/convlint/convlint/internal/rules"
	"github.com/convlint/convlint/internal/rulesdsl"
	"github.com/convlint/convlint/internal/scanner"
	"github.com/convlint/convlint/internal/shared"
	"github.com/convlint/convlint/internal/storage"
)

type lintCmd struct {
	configPath  string
	format      string
	threshold   string
	outDir      string
	dbPath      string
	changedOnly bool
	watch       bool
	noStore     bool
}

func newLintCmd() *cobra.Command {
	lc := &lintCmd{}
	cmd := &cobra.Command{
		Use:   "lint <root>",
		Short: "Scan a project tree and evaluate convention rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lc.run(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringVar(&lc.configPath, "config", "", "Path to YAML config")
	cmd.Flags().StringVar(&lc.format, "format", "", "Output format: text or json")
	cmd.Flags().StringVar(&lc.threshold, "severity-threshold", "", "Minimum severity that fails the run (error|warning|info)")
	cmd.Flags().StringVar(&lc.outDir, "out", "", "Directory for run artifacts (JSON, HTML)")
	cmd.Flags().StringVar(&lc.dbPath, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&lc.changedOnly, "changed-only", false, "Only lint files changed relative to the git baseline")
	cmd.Flags().BoolVar(&lc.watch, "watch", false, "Re-lint on file changes")
	cmd.Flags().BoolVar(&lc.noStore, "no-store", false, "Skip persisting the run to the database")
	return cmd
}

func (lc *lintCmd) run(ctx context.Context, root string) error {
	cfg, err := shared.LoadConfig(lc.configPath)
	if err != nil {
		return err
	}
	// flags > config > defaults
	if lc.format == "" {
		lc.format = cfg.Reporting.Format
	}
	switch lc.format {
	case "text", "json":
	default:
		return &shared.ConfigError{Err: fmt.Errorf("unknown format %q (want text or json)", lc.format)}
	}
	if lc.threshold != "" {
		cfg.Rules.SeverityThreshold = strings.ToLower(lc.threshold)
		switch cfg.Rules.SeverityThreshold {
		case "error", "warning", "info":
		default:
			return &shared.ConfigError{Err: fmt.Errorf("invalid severity-threshold %q", lc.threshold)}
		}
	}
	if lc.outDir == "" {
		lc.outDir = cfg.Reporting.OutDir
	}
	if lc.dbPath == "" {
		lc.dbPath = cfg.Database.DSN
	}

	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	reg, err := buildRegistry(cfg)
	if err != nil {
		return &shared.ConfigError{Err: err}
	}

	if lc.watch {
		return lc.watchLoop(ctx, root, cfg, reg, logger)
	}
	return lc.lintOnce(ctx, root, cfg, reg, logger)
}

// buildRegistry clones the built-in rules into a fresh registry and
// layers any configured rule packs on top. Pack errors abort the run
// before scanning.
func buildRegistry(cfg shared.Config) (*rules.Registry, error) {
	reg := rules.NewRegistry()
	for _, r := range rules.Default().List() {
		if err := reg.Register(r); err != nil {
			return nil, err
		}
	}
	for _, pack := range cfg.Rules.Packs {
		if _, err := rulesdsl.LoadAndRegister(reg, pack); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (lc *lintCmd) lintOnce(ctx context.Context, root string, cfg shared.Config, reg *rules.Registry, logger zerolog.Logger) error {
	started := time.Now().UTC()

	sc := scanner.New(root, cfg.Scanner.Include, cfg.Scanner.Exclude)
	if cfg.Scanner.ReadTimeoutMS > 0 {
		sc.ReadTimeout = time.Duration(cfg.Scanner.ReadTimeoutMS) * time.Millisecond
	}
	if lc.changedOnly {
		delta := &gitdelta.Delta{RootDir: root, Logger: logger}
		changed, err := delta.ChangedFiles(ctx)
		if err != nil {
			return err
		}
		sc.Changed = changed
	}

	units, warnings, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	logger.Info().Int("units", len(units)).Int("skipped_files", len(warnings)).Msg("scan complete")

	set := rules.Settings{
		SeverityThreshold:          ir.Severity(cfg.Rules.SeverityThreshold),
		Disabled:                   rules.DisabledSet(cfg.Rules.Disabled),
		VerbPrefixes:               cfg.Rules.VerbPrefixes,
		RetrievalVerbs:             cfg.Rules.RetrievalVerbs,
		MaxParameters:              cfg.Rules.MaxParameters,
		MaxPublicMethods:           cfg.Rules.MaxPublicMethods,
		FragmentDuplicateThreshold: cfg.Rules.FragmentDuplicateThreshold,
		OverfetchDepth:             cfg.Rules.OverfetchDepth,
	}
	findings := rules.Evaluate(ctx, reg, units, set)
	findings = append(findings, warnings...)

	run := ir.Run{
		ID:        "run-" + uuid.NewString(),
		StartedAt: started,
		Source:    root,
		IRVersion: ir.Version,
		Context: ir.Context{
			SeverityThreshold: cfg.Rules.SeverityThreshold,
			DisabledRules:     cfg.Rules.Disabled,
			VerbPrefixes:      cfg.Rules.VerbPrefixes,
			MaxParameters:     cfg.Rules.MaxParameters,
			MaxPublicMethods:  cfg.Rules.MaxPublicMethods,
			OverfetchDepth:    cfg.Rules.OverfetchDepth,
		},
		Units: units,
	}

	waived := 0
	var db *storage.DB
	if !lc.noStore {
		db, err = storage.OpenSQLite(lc.dbPath)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()
		if err := db.CreateSchema(); err != nil {
			return fmt.Errorf("db schema: %w", err)
		}
		if ws, err := db.ListWaivers(true); err == nil {
			findings, waived = rules.ApplyWaivers(findings, ws)
		} else {
			logger.Warn().Err(err).Msg("waiver load failed, applying none")
		}
	}

	debt.Annotate(findings)
	run.Findings = findings

	rep := reporting.Aggregate(run.ID, findings, waived)
	switch lc.format {
	case "json":
		if err := reporting.WriteFindingsJSON(os.Stdout, rep); err != nil {
			return err
		}
	default:
		if err := reporting.WriteText(os.Stdout, rep); err != nil {
			return err
		}
	}

	if db != nil {
		if err := db.SaveRun(&run); err != nil {
			return fmt.Errorf("db save run: %w", err)
		}
		jsonPath, err := reporting.WriteJSON(run.ID, lc.outDir, &run)
		if err != nil {
			return err
		}
		htmlPath, err := reporting.WriteHTML(run.ID, lc.outDir, &run, rep)
		if err != nil {
			return err
		}
		logger.Info().
			Str("run", run.ID).
			Str("json", jsonPath).
			Str("html", htmlPath).
			Str("db", filepath.Clean(lc.dbPath)).
			Msg("lint complete")
	}

	if rep.ExceedsThreshold(ir.Severity(cfg.Rules.SeverityThreshold)) {
		return &thresholdExceededError{count: rep.Total}
	}
	return nil
}

// watchLoop re-lints on filesystem changes, debounced so editor save
// bursts trigger one run.
func (lc *lintCmd) watchLoop(ctx context.Context, root string, cfg shared.Config, reg *rules.Registry, logger zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") && p != root {
				return filepath.SkipDir
			}
			if name == "node_modules" || name == "dist" || name == "build" {
				return filepath.SkipDir
			}
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	runLint := func() {
		if err := lc.lintOnce(ctx, root, cfg, reg, logger); err != nil {
			var thErr *thresholdExceededError
			if !errors.As(err, &thErr) {
				logger.Error().Err(err).Msg("lint failed")
			}
		}
	}
	runLint()

	var timer *time.Timer
	debounce := 300 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, runLint)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(werr).Msg("watch error")
		}
	}
}
