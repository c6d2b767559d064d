package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	asynqmod "hotspot-voucherd/pkg/asynq"
	"hotspot-voucherd/pkg/config"
	"hotspot-voucherd/pkg/db"
	"hotspot-voucherd/pkg/hashistack/secretmanager"
	"hotspot-voucherd/pkg/health"
	"hotspot-voucherd/pkg/logger"
	"hotspot-voucherd/pkg/redis"
	"hotspot-voucherd/pkg/server"
	"hotspot-voucherd/services/authorize"
	"hotspot-voucherd/services/operator"
	"hotspot-voucherd/services/profile"
	"hotspot-voucherd/services/router"
	"hotspot-voucherd/services/voucher"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynqmod.Client,
		asynqmod.Server,
		asynqmod.Scheduler,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(migrate),
		server.Module,
		health.Module,
		operator.Module,
		router.Module,
		profile.Module,
		voucher.Module,
		authorize.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&operator.Operator{},
		&router.Router{},
		&profile.Profile{},
		&voucher.Voucher{},
		&voucher.Session{},
		&authorize.Nonce{},
		&authorize.AuthEvent{},
	)
}
