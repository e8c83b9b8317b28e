package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/config"
	"github.com/finovia/adfin/internal/logger"
	"github.com/finovia/adfin/internal/migration"
	"github.com/finovia/adfin/internal/observability"
	"github.com/finovia/adfin/internal/server"
	"github.com/finovia/adfin/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
