package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"property-evaluation-service/internal/config"
	pgstore "property-evaluation-service/internal/infra/postgres"
	"property-evaluation-service/internal/logging"
)

// NewSeedCmd stores the built-in property types in Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the built-in property types in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgstore.NewPropertyTypeLoader(pool)
	for _, pt := range samplePropertyTypes() {
		if err := loader.UpsertPropertyType(ctx, pt); err != nil {
			return err
		}
		logger.Info("property type stored", zap.String("propertyTypeId", pt.ID), zap.Int("questions", pt.QuestionCount()))
	}
	return nil
}
