package observability

import (
	"github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/logger"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/metrics"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	tracing.Module,
	fx.Provide(func(cfg config.Config) (*metrics.HTTPMetrics, error) {
		return metrics.NewHTTPMetrics(metrics.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Environment,
		}, otel.GetMeterProvider())
	}),
	fx.Provide(func(cfg config.Config) *metrics.LedgerMetrics {
		return metrics.LedgerWithConfig(metrics.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Environment,
		})
	}),
)
