package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"career-assessment-service/internal/config"
	"career-assessment-service/internal/infra/postgres"
	pgmigrations "career-assessment-service/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations and optionally seeds the catalog.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			if !seed {
				return nil
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			return seedCatalog(ctx, cfg, postgres.NewAssessmentLoader(pool), logger)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "upsert the configured catalog into the assessments table")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("no new migrations")
		return nil
	}
	logger.Info("migrations applied", zap.String("group", group.String()))
	return nil
}

// seedCatalog upserts the embedded (or configured directory) catalog.
func seedCatalog(ctx context.Context, cfg config.Config, loader *postgres.AssessmentLoader, logger *zap.Logger) error {
	c, err := loadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return err
	}
	if err := loader.Seed(ctx, c.Assessments()); err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Strings("assessments", c.IDs()))
	return nil
}
