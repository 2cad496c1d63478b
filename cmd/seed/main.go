package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/config"
	"github.com/cellar-market/wine-marketplace/internal/observability"
	"github.com/cellar-market/wine-marketplace/internal/persistence"
	"github.com/cellar-market/wine-marketplace/internal/seed"
)

func main() {
	var migrate bool

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Insert fixture accounts, wines, orders and refunds",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply migrations before seeding")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for seeding")
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	fixtures := seed.Default()
	if _, err := seed.Seed(ctx, pg.PoolHandle(), fixtures, cfg.Auth.BcryptCost, logger); err != nil {
		return err
	}
	for _, a := range fixtures.Accounts {
		logger.Info("fixture account", zap.String("email", a.User.Email), zap.String("role", string(a.User.Role)))
	}
	return nil
}
