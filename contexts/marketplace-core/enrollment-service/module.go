package enrollmentservice

import (
	"log/slog"
	"time"

	httpadapter "wellagora/contexts/marketplace-core/enrollment-service/adapters/http"
	"wellagora/contexts/marketplace-core/enrollment-service/adapters/memory"
	"wellagora/contexts/marketplace-core/enrollment-service/application"
	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Programs    ports.ProgramRepository
	Enrollments ports.EnrollmentRepository
	Checkouts   ports.CheckoutRepository
	Payments    ports.CheckoutProvider
	Sponsorship ports.SponsorshipGateway
	Notifier    ports.Notifier
	Nudges      ports.NudgeEvaluator
	Outbox      ports.OutboxWriter
	EventDedup  ports.EventDedupStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	CheckoutTTL time.Duration
	DedupTTL    time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Programs:    deps.Programs,
		Enrollments: deps.Enrollments,
		Checkouts:   deps.Checkouts,
		Payments:    deps.Payments,
		Sponsorship: deps.Sponsorship,
		Notifier:    deps.Notifier,
		Nudges:      deps.Nudges,
		Outbox:      deps.Outbox,
		EventDedup:  deps.EventDedup,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		CheckoutTTL: deps.CheckoutTTL,
		DedupTTL:    deps.DedupTTL,
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

func NewInMemoryModule(seed []entities.Program, deps Dependencies, logger *slog.Logger) Module {
	store := memory.NewStore()
	for _, program := range seed {
		store.SeedProgram(program)
	}
	deps.Programs = store
	deps.Enrollments = store
	deps.Checkouts = store
	deps.Outbox = store
	deps.EventDedup = store
	if deps.Notifier == nil {
		deps.Notifier = store
	}
	deps.Clock = store
	deps.IDGenerator = store
	deps.Logger = logger
	module := NewModule(deps)
	module.Store = store
	return module
}
