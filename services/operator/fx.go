package operator

import (
	"go.uber.org/fx"
)

var Module = fx.Module("operator.module",
	fx.Provide(
		NewService,
		NewMiddleware,
		NewLoginLimiter,
		NewTokenStore,
	),
	fx.Invoke(
		RegisterRoutes,
		Bootstrap,
	),
)
