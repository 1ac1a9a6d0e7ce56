// @title           ChiroFlow Billing API
// @version         1.0
// @description     Billing and payment-authorization core for the ChiroFlow clinic platform.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/apikey"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/audit"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/autopay"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/migration"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/realtime"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/scheduler"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/seed"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/server"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/tokenize"
	"github.com/maximegiguere1one/chiroflow-sub004/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if !cfg.IsProduction() && cfg.Bootstrap.EnsureDefaultClinic {
				return seed.EnsureDefaultClinic(conn, log)
			}
			return nil
		}),

		billing.Module,
		audit.Module,
		apikey.Module,
		autopay.Module,
		tokenize.Module,
		realtime.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
