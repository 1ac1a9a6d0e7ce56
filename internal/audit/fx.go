package audit

import (
	"github.com/maximegiguere1one/chiroflow-sub004/internal/audit/repository"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
