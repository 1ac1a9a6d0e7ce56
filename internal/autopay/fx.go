package autopay

import (
	"github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/service"
	"go.uber.org/fx"
)

var Module = fx.Module("autopay.service",
	fx.Provide(service.NewService),
)
