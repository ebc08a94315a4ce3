package workers

import (
	"context"
	"log/slog"
	"time"

	application "wellagora/contexts/marketplace-core/enrollment-service/application"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"
)

// CheckoutExpirer sweeps pending checkouts whose confirmation never arrived.
// Expiry creates no enrollment and touches no program counters, but a
// checkout that reserved sponsorship quota gives the budget and seat back:
// without the release the sponsor pays for a seat nobody took.
type CheckoutExpirer struct {
	Checkouts   ports.CheckoutRepository
	Sponsorship ports.SponsorshipGateway
	Clock       ports.Clock
	BatchSize   int
	Logger      *slog.Logger
}

func (e CheckoutExpirer) RunOnce(ctx context.Context) error {
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}
	limit := e.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := e.Checkouts.ExpireCheckouts(ctx, now, limit)
	if err != nil {
		application.ResolveLogger(e.Logger).Error("checkout expiry sweep failed",
			"event", "checkout_expiry_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, checkout := range expired {
		if checkout.SupportRuleID == "" || e.Sponsorship == nil {
			continue
		}
		if err := e.Sponsorship.ReleaseFor(ctx, checkout.SupportRuleID, checkout.ProgramID, checkout.UserID); err != nil {
			// A failed release stays on the allocation; the sweep moves on.
			application.ResolveLogger(e.Logger).Warn("expired checkout release failed",
				"event", "checkout_expiry_release_failed",
				"module", "marketplace-core/enrollment-service",
				"layer", "worker",
				"checkout_id", checkout.CheckoutID,
				"rule_id", checkout.SupportRuleID,
				"error", err.Error(),
			)
		}
	}

	if len(expired) > 0 {
		application.ResolveLogger(e.Logger).Info("checkouts expired",
			"event", "checkouts_expired",
			"module", "marketplace-core/enrollment-service",
			"layer", "worker",
			"expired_count", len(expired),
		)
	}
	return nil
}
