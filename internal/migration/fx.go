package migration

import (
	"context"

	"github.com/smallbiznis/checkmapper/internal/config"
	"github.com/smallbiznis/checkmapper/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, seeder *seed.Seeder, log *zap.Logger) error {
		if err := Apply(conn); err != nil {
			return err
		}
		if !cfg.SeedDemoData {
			return nil
		}
		log.Info("seeding demo data")
		return seeder.Run(context.Background())
	}),
)
