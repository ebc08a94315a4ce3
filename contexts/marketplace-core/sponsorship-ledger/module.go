package sponsorshipledger

import (
	"log/slog"

	httpadapter "wellagora/contexts/marketplace-core/sponsorship-ledger/adapters/http"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/adapters/memory"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/application"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Rules       ports.RuleRepository
	Allocations ports.AllocationRepository
	Credits     ports.CreditRepository
	Notifier    ports.Notifier
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Rules:       deps.Rules,
		Allocations: deps.Allocations,
		Credits:     deps.Credits,
		Notifier:    deps.Notifier,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Rules:       store,
		Allocations: store,
		Credits:     store,
		Notifier:    store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
