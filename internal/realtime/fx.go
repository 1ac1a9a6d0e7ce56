package realtime

import (
	"context"

	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing/store"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("realtime",
	fx.Provide(provideHub),
	fx.Provide(provideFeed),
	fx.Provide(provideManager),
	fx.Invoke(runHub),
	fx.Invoke(runManager),
)

func provideHub(log *zap.Logger) (*Hub, store.Broadcaster) {
	hub := NewHub(log)
	return hub, hub
}

func provideFeed(cfg config.Config, log *zap.Logger) Feed {
	return NewWebsocketFeed(cfg.RealtimeFeedURL, log)
}

func provideManager(feed Feed, s *store.Store, log *zap.Logger) *Manager {
	return NewManager(feed, s, log)
}

func runHub(lc fx.Lifecycle, hub *Hub) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// runManager brings the table subscriptions up once the app starts and
// tears them down on shutdown. A feed that is down at boot is logged
// and retried by the first explicit enable, not fatal.
func runManager(lc fx.Lifecycle, manager *Manager, cfg config.Config, log *zap.Logger) {
	if cfg.RealtimeFeedURL == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := manager.EnableAll(ctx); err != nil {
				log.Named("realtime").Warn("initial subscription failed", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			manager.DisableAll()
			return nil
		},
	})
}
