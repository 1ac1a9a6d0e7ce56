package tokenize

import "go.uber.org/fx"

var Module = fx.Module("tokenize.client",
	fx.Provide(NewClient),
)
