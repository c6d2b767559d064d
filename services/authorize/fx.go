package authorize

import "go.uber.org/fx"

var Module = fx.Module("authorize.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(
		RegisterRoutes,
		RegisterTasks,
		RegisterSchedules,
	),
)
