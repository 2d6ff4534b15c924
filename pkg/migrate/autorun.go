package migrate

import (
	"bytes"
	"context"
	"fmt"

	"github.com/angelmondragon/stockhub-backend/pkg/config"
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot when running in dev with
// STOCKHUB_AUTO_MIGRATE set. SQLite builds its schema through
// db.BootstrapSQLite instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	if cfg.FeatureFlags.UseSQLite {
		logg.Warn(ctx, "sqlite mode, skipping goose migrations")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	var report bytes.Buffer
	if err := Run(ctx, sqlDB, DefaultDir, "up", &report); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "applied", report.String()), "dev migrations applied")
	return nil
}
