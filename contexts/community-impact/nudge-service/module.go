package nudgeservice

import (
	"log/slog"

	"wellagora/contexts/community-impact/nudge-service/adapters/memory"
	"wellagora/contexts/community-impact/nudge-service/application"
	"wellagora/contexts/community-impact/nudge-service/ports"
)

type Module struct {
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Stats       ports.CreatorStatsSource
	Log         ports.NudgeLog
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Service: application.Service{
			Stats:    deps.Stats,
			Log:      deps.Log,
			Notifier: deps.Notifier,
			Clock:    deps.Clock,
			IDGen:    deps.IDGenerator,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(stats ports.CreatorStatsSource, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Stats:       stats,
		Log:         store,
		Notifier:    store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
