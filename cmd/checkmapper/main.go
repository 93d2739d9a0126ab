package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/clock"
	"github.com/smallbiznis/checkmapper/internal/config"
	"github.com/smallbiznis/checkmapper/internal/migration"
	"github.com/smallbiznis/checkmapper/internal/observability"
	"github.com/smallbiznis/checkmapper/internal/seed"
	"github.com/smallbiznis/checkmapper/internal/server"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		seed.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
