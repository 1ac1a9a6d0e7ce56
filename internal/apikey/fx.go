package apikey

import (
	"github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/repository"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
