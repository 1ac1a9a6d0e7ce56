package scheduler

import (
	"context"

	appconfig "github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideConfig),
	fx.Provide(NewSweeper),
	fx.Invoke(runSweeper),
)

func provideConfig(cfg appconfig.Config) Config {
	return Config{PollInterval: cfg.SweepInterval}
}

func runSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sweeper.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
