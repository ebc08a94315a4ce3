package sponsorship

import (
	"context"

	"wellagora/contexts/marketplace-core/enrollment-service/ports"
	sponsorshipapp "wellagora/contexts/marketplace-core/sponsorship-ledger/application"
	sponsorshipports "wellagora/contexts/marketplace-core/sponsorship-ledger/ports"
)

// Gateway adapts the sponsorship ledger's application service to the
// enrollment side's port. Both contexts run in one process, so the call is
// in-memory; the ledger still owns all quota state.
type Gateway struct {
	Ledger sponsorshipapp.Service
}

func NewGateway(ledger sponsorshipapp.Service) *Gateway {
	return &Gateway{Ledger: ledger}
}

func (g *Gateway) Quote(ctx context.Context, req ports.SponsorshipQuoteRequest) (ports.SponsorshipQuote, bool, error) {
	quote, ok, err := g.Ledger.QuoteBest(ctx, sponsorshipports.ScopeRefs{
		ProgramID: req.ProgramID,
		Category:  req.Category,
		CreatorID: req.CreatorID,
		EventID:   req.EventID,
	}, req.ListPrice, req.Currency)
	if err != nil || !ok {
		return ports.SponsorshipQuote{}, false, err
	}
	return ports.SponsorshipQuote{
		RuleID:              quote.RuleID,
		SponsorID:           quote.SponsorID,
		SponsorName:         quote.SponsorName,
		SponsorContribution: quote.SponsorContribution,
		MemberOwes:          quote.MemberOwes,
		Currency:            quote.Currency,
	}, true, nil
}

func (g *Gateway) Reserve(ctx context.Context, ruleID string, programID string, userID string, amount int64, currency string) (ports.SponsorshipReservation, error) {
	allocation, err := g.Ledger.Reserve(ctx, ruleID, programID, userID, amount, currency)
	if err != nil {
		return ports.SponsorshipReservation{}, err
	}
	return ports.SponsorshipReservation{AllocationID: allocation.AllocationID}, nil
}

func (g *Gateway) Capture(ctx context.Context, allocationID string) error {
	return g.Ledger.Capture(ctx, allocationID)
}

func (g *Gateway) Release(ctx context.Context, allocationID string) error {
	return g.Ledger.Release(ctx, allocationID)
}

func (g *Gateway) ReleaseFor(ctx context.Context, ruleID string, programID string, userID string) error {
	return g.Ledger.ReleaseFor(ctx, ruleID, programID, userID)
}
