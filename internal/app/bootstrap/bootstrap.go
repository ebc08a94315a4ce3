package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	impactvalidationservice "wellagora/contexts/community-impact/impact-validation-service"
	"wellagora/contexts/community-impact/impact-validation-service/adapters/inference"
	impactnotify "wellagora/contexts/community-impact/impact-validation-service/adapters/notify"
	impactpostgres "wellagora/contexts/community-impact/impact-validation-service/adapters/postgres"
	impactports "wellagora/contexts/community-impact/impact-validation-service/ports"
	nudgeservice "wellagora/contexts/community-impact/nudge-service"
	nudgenotify "wellagora/contexts/community-impact/nudge-service/adapters/notify"
	nudgepostgres "wellagora/contexts/community-impact/nudge-service/adapters/postgres"
	enrollmentservice "wellagora/contexts/marketplace-core/enrollment-service"
	"wellagora/contexts/marketplace-core/enrollment-service/adapters/notify"
	"wellagora/contexts/marketplace-core/enrollment-service/adapters/payment"
	enrollmentpostgres "wellagora/contexts/marketplace-core/enrollment-service/adapters/postgres"
	"wellagora/contexts/marketplace-core/enrollment-service/adapters/sponsorship"
	workerapp "wellagora/contexts/marketplace-core/enrollment-service/application/workers"
	enrollmentports "wellagora/contexts/marketplace-core/enrollment-service/ports"
	sponsorshipledger "wellagora/contexts/marketplace-core/sponsorship-ledger"
	sponsorshipnotify "wellagora/contexts/marketplace-core/sponsorship-ledger/adapters/notify"
	sponsorshippostgres "wellagora/contexts/marketplace-core/sponsorship-ledger/adapters/postgres"
	"wellagora/internal/platform/config"
	"wellagora/internal/platform/db"
	"wellagora/internal/platform/httpserver"
	"wellagora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	expirer      workerapp.CheckoutExpirer
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	enrollmentRepo := enrollmentpostgres.NewRepository(pg.DB, logger)
	sponsorshipRepo := sponsorshippostgres.NewRepository(pg.DB, logger)
	impactRepo := impactpostgres.NewRepository(pg.DB, logger)
	nudgeRepo := nudgepostgres.NewRepository(pg.DB, logger)

	// All services append to the enrollment store's outbox table; the worker
	// drains it in one relay.
	sponsorshipModule := sponsorshipledger.NewModule(sponsorshipledger.Dependencies{
		Rules:       sponsorshipRepo,
		Allocations: sponsorshipRepo,
		Credits:     sponsorshipRepo,
		Notifier: sponsorshipnotify.NewOutboxNotifier(
			enrollmentRepo,
			sponsorshippostgres.SystemClock{},
			sponsorshippostgres.UUIDGenerator{},
			logger,
		),
		Outbox:      enrollmentRepo,
		Clock:       sponsorshippostgres.SystemClock{},
		IDGenerator: sponsorshippostgres.UUIDGenerator{},
		Logger:      logger,
	})

	nudgeModule := nudgeservice.NewModule(nudgeservice.Dependencies{
		Stats: enrollmentRepo,
		Log:   nudgeRepo,
		Notifier: nudgenotify.NewOutboxNotifier(
			enrollmentRepo,
			nudgepostgres.SystemClock{},
			nudgepostgres.UUIDGenerator{},
			logger,
		),
		Clock:       nudgepostgres.SystemClock{},
		IDGenerator: nudgepostgres.UUIDGenerator{},
		Logger:      logger,
	})

	var enrollmentNudges enrollmentports.NudgeEvaluator
	var impactNudges impactports.NudgeEvaluator
	if cfg.EnableNudgeEvaluation {
		enrollmentNudges = nudgeModule.Service
		impactNudges = nudgeModule.Service
	}

	var gateway enrollmentports.SponsorshipGateway
	if cfg.EnableSponsorshipCapture {
		gateway = sponsorship.NewGateway(sponsorshipModule.Service)
	}

	enrollmentModule := enrollmentservice.NewModule(enrollmentservice.Dependencies{
		Programs:    enrollmentRepo,
		Enrollments: enrollmentRepo,
		Checkouts:   enrollmentRepo,
		Payments:    payment.NewClient(cfg.PaymentBaseURL, 10*time.Second, logger),
		Sponsorship: gateway,
		Notifier: notify.NewOutboxNotifier(
			enrollmentRepo,
			enrollmentpostgres.SystemClock{},
			enrollmentpostgres.UUIDGenerator{},
			logger,
		),
		Nudges:      enrollmentNudges,
		Outbox:      enrollmentRepo,
		EventDedup:  enrollmentRepo,
		Clock:       enrollmentpostgres.SystemClock{},
		IDGenerator: enrollmentpostgres.UUIDGenerator{},
		CheckoutTTL: cfg.CheckoutTTL,
		DedupTTL:    7 * 24 * time.Hour,
		Logger:      logger,
	})

	var tips impactports.TipGenerator
	if cfg.EnableTipFeedback {
		tips = inference.NewClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.InferenceTimeout, logger)
	}

	impactModule := impactvalidationservice.NewModule(impactvalidationservice.Dependencies{
		Challenges:  impactRepo,
		Completions: impactRepo,
		Tips:        tips,
		Notifier: impactnotify.NewOutboxNotifier(
			enrollmentRepo,
			impactpostgres.SystemClock{},
			impactpostgres.UUIDGenerator{},
			logger,
		),
		Nudges:      impactNudges,
		Outbox:      enrollmentRepo,
		Clock:       impactpostgres.SystemClock{},
		IDGenerator: impactpostgres.UUIDGenerator{},
		TipTimeout:  cfg.InferenceTimeout,
		Logger:      logger,
	})

	server := httpserver.New(enrollmentModule, sponsorshipModule, impactModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := enrollmentpostgres.NewRepository(pg.DB, logger)

	// Expired checkouts hand reserved sponsorship quota back through the
	// same gateway the API uses.
	var gateway enrollmentports.SponsorshipGateway
	if cfg.EnableSponsorshipCapture {
		sponsorshipRepo := sponsorshippostgres.NewRepository(pg.DB, logger)
		sponsorshipModule := sponsorshipledger.NewModule(sponsorshipledger.Dependencies{
			Rules:       sponsorshipRepo,
			Allocations: sponsorshipRepo,
			Credits:     sponsorshipRepo,
			Outbox:      repo,
			Clock:       sponsorshippostgres.SystemClock{},
			IDGenerator: sponsorshippostgres.UUIDGenerator{},
			Logger:      logger,
		})
		gateway = sponsorship.NewGateway(sponsorshipModule.Service)
	}

	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     enrollmentpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		expirer: workerapp.CheckoutExpirer{
			Checkouts:   repo,
			Sponsorship: gateway,
			Clock:       enrollmentpostgres.SystemClock{},
			BatchSize:   100,
			Logger:      logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.poll(ctx, w.expirer.RunOnce)
	})
	group.Go(func() error {
		return w.poll(ctx, w.outboxRelay.RunOnce)
	})
	return group.Wait()
}

func (w *WorkerApp) poll(ctx context.Context, sweep func(context.Context) error) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := sweep(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
