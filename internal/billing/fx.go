package billing

import (
	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing/repository"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing/store"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(repository.Provide),
	fx.Provide(store.NewStore),
)
