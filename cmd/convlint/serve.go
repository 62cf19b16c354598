package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/api"
	"github.com/convlint/convlint/internal/rules"
	"github.com/convlint/convlint/internal/security"
	"github.com/convlint/convlint/internal/shared"
	"github.com/convlint/convlint/internal/storage"
)

type serveCmd struct {
	configPath string
	addr       string
	dbPath     string

	bootstrapUser string
	bootstrapPass string
}

func newServeCmd() *cobra.Command {
	sc := &serveCmd{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs, findings and waivers over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sc.run()
		},
	}
	cmd.Flags().StringVar(&sc.configPath, "config", "", "Path to YAML config")
	cmd.Flags().StringVar(&sc.addr, "addr", "", "Listen address (e.g. :8080)")
	cmd.Flags().StringVar(&sc.dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&sc.bootstrapUser, "bootstrap-admin", "", "Create this admin user if missing")
	cmd.Flags().StringVar(&sc.bootstrapPass, "bootstrap-password", "", "Password for --bootstrap-admin")
	return cmd
}

func (sc *serveCmd) run() error {
	cfg, err := shared.LoadConfig(sc.configPath)
	if err != nil {
		return err
	}
	if sc.addr == "" {
		sc.addr = cfg.API.Addr
	}
	if sc.dbPath == "" {
		sc.dbPath = cfg.Database.DSN
	}
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	db, err := storage.OpenSQLite(sc.dbPath)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		return fmt.Errorf("db schema: %w", err)
	}

	if sc.bootstrapUser != "" {
		if sc.bootstrapPass == "" {
			return fmt.Errorf("--bootstrap-admin requires --bootstrap-password")
		}
		if _, _, err := db.GetUserByUsername(sc.bootstrapUser); err != nil {
			hash, err := security.HashPassword(sc.bootstrapPass)
			if err != nil {
				return err
			}
			if _, err := db.CreateUser(sc.bootstrapUser, hash, "admin"); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			logger.Info().Str("user", sc.bootstrapUser).Msg("bootstrap admin created")
		}
	}

	srv := &api.Server{
		DB:              db,
		UserStore:       db,
		Registry:        rules.Default(),
		Logger:          logger,
		AllowedOrigins:  cfg.API.AllowedOrigins,
		SessionDuration: time.Duration(cfg.API.SessionHours) * time.Hour,
	}
	logger.Info().Str("addr", sc.addr).Msg("api listening")
	return http.ListenAndServe(sc.addr, srv.Routes())
}
