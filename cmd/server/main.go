package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simplici0/printquote/internal/config"
	"github.com/Simplici0/printquote/internal/db"
	"github.com/Simplici0/printquote/internal/logging"
	"github.com/Simplici0/printquote/internal/migrations"
	"github.com/Simplici0/printquote/internal/quoting"
	"github.com/Simplici0/printquote/internal/seed"
	"github.com/Simplici0/printquote/internal/store"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "printquote",
		Short:         "Quoting service for 3D printed parts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newQuoteCmd(),
		newConfigCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the wiring shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	database *sql.DB
	store    store.Store
	svc      *quoting.Service
}

type appOptions struct {
	migrate      bool
	migrateInDev bool
	seed         bool
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg := config.Load()
	logger := logging.New(os.Stderr, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.migrate || (opts.migrateInDev && cfg.IsDev()) {
		if err := migrations.Up(database); err != nil {
			database.Close()
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
	}

	st := store.NewSQLite(database)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		store:    st,
		svc: quoting.New(st,
			quoting.WithUploadDir(cfg.UploadDir),
			quoting.WithLogger(logger),
		),
	}

	if opts.seed {
		if err := a.seed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *app) seed(ctx context.Context) error {
	var seedCfg seed.Config
	if a.cfg.PricingFile != "" {
		file, err := config.LoadPricingFile(a.cfg.PricingFile)
		if err != nil {
			return err
		}
		pricingCfg := file.Config()
		seedCfg.Pricing = &pricingCfg
	}

	stats, err := seed.Run(ctx, a.store, seedCfg)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	a.logger.Info("seed completed", "inserts", stats.Inserts)
	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}
