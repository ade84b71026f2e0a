package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/catalogsync"
	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/config"
	"github.com/smallbiznis/lounge/internal/device"
	"github.com/smallbiznis/lounge/internal/devicelock"
	"github.com/smallbiznis/lounge/internal/migration"
	"github.com/smallbiznis/lounge/internal/observability"
	"github.com/smallbiznis/lounge/internal/order"
	"github.com/smallbiznis/lounge/internal/payment"
	"github.com/smallbiznis/lounge/internal/product"
	"github.com/smallbiznis/lounge/internal/ratecatalog"
	"github.com/smallbiznis/lounge/internal/segment"
	"github.com/smallbiznis/lounge/internal/server"
	"github.com/smallbiznis/lounge/internal/session"
	"github.com/smallbiznis/lounge/internal/settlement"
	"github.com/smallbiznis/lounge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		devicelock.Module,

		// Functional Domains
		device.Module,
		product.Module,
		ratecatalog.Module,
		segment.Module,
		order.Module,
		payment.Module,
		settlement.Module,
		session.Module,
		catalogsync.Module,

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
