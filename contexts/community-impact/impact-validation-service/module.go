package impactvalidationservice

import (
	"log/slog"
	"time"

	httpadapter "wellagora/contexts/community-impact/impact-validation-service/adapters/http"
	"wellagora/contexts/community-impact/impact-validation-service/adapters/memory"
	"wellagora/contexts/community-impact/impact-validation-service/application"
	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	"wellagora/contexts/community-impact/impact-validation-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Challenges  ports.ChallengeRepository
	Completions ports.CompletionRepository
	Tips        ports.TipGenerator
	Notifier    ports.Notifier
	Nudges      ports.NudgeEvaluator
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	TipTimeout  time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Challenges:  deps.Challenges,
		Completions: deps.Completions,
		Tips:        deps.Tips,
		Notifier:    deps.Notifier,
		Nudges:      deps.Nudges,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		TipTimeout:  deps.TipTimeout,
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

func NewInMemoryModule(seed []entities.ChallengeDefinition, deps Dependencies, logger *slog.Logger) Module {
	store := memory.NewStore()
	for _, challenge := range seed {
		store.SeedChallenge(challenge)
	}
	deps.Challenges = store
	deps.Completions = store
	deps.Outbox = store
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
