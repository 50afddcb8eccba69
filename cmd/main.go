package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sebesti0n/Mr.-DCC-Bot/config"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/pg"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/sqlstore"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "mr-dcc-bot",
		Short:         "Discord onboarding bot for the LWD mentorship program",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config/config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Connect to Discord and serve commands",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), cfgPath)
			},
		},
		&cobra.Command{
			Use:   "import-roster [file]",
			Short: "Load the mentorship roster CSV into the database",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				return runImport(cmd.Context(), cfgPath, path)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), cfgPath)
			},
		},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal", "err", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// setup — общий старт для всех команд: конфиг и логгер.
func setup(cfgPath string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	return cfg
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		p := cfg.Storage.Pool
		return sqlstore.OpenPostgres(ctx, pg.Config{
			DSN:               p.DSN,
			MaxConns:          p.MaxConns,
			MinConns:          p.MinConns,
			MaxConnLifetime:   p.MaxConnLifetime,
			MaxConnIdleTime:   p.MaxConnIdleTime,
			HealthCheckPeriod: p.HealthCheckPeriod,
			ApplicationName:   p.ApplicationName,
		})
	case "sqlite":
		return sqlstore.OpenSQLite(ctx, cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func runMigrate(ctx context.Context, cfgPath string) error {
	cfg := setup(cfgPath)
	defer logger.Sync()

	// миграции применяются при открытии
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	slog.Info("migrations applied", "driver", cfg.Storage.Driver)
	return nil
}
