package sponsorshipledger_test

import (
	"context"
	"errors"
	"testing"

	sponsorshipledger "wellagora/contexts/marketplace-core/sponsorship-ledger"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/application"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/ports"
)

func intPtr(v int) *int { return &v }

func categoryRule(amount int64, budget int64) application.CreateRuleInput {
	return application.CreateRuleInput{
		SponsorID:            "sponsor-1",
		SponsorName:          "Green Corp",
		ScopeType:            "category",
		ScopeID:              "transport",
		AmountPerParticipant: amount,
		BudgetTotal:          budget,
	}
}

func TestCreateRuleValidation(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input application.CreateRuleInput
		want  error
	}{
		{
			name: "missing sponsor",
			input: application.CreateRuleInput{
				ScopeType:            "category",
				ScopeID:              "transport",
				AmountPerParticipant: 100,
				BudgetTotal:          1000,
			},
			want: domainerrors.ErrInvalidRuleInput,
		},
		{
			name: "bad scope type",
			input: application.CreateRuleInput{
				SponsorID:            "sponsor-1",
				ScopeType:            "galaxy",
				ScopeID:              "transport",
				AmountPerParticipant: 100,
				BudgetTotal:          1000,
			},
			want: domainerrors.ErrInvalidRuleInput,
		},
		{
			name: "zero amount",
			input: application.CreateRuleInput{
				SponsorID:            "sponsor-1",
				ScopeType:            "category",
				ScopeID:              "transport",
				AmountPerParticipant: 0,
				BudgetTotal:          1000,
			},
			want: domainerrors.ErrInvalidRuleInput,
		},
		{
			name: "zero seat limit",
			input: application.CreateRuleInput{
				SponsorID:            "sponsor-1",
				ScopeType:            "category",
				ScopeID:              "transport",
				AmountPerParticipant: 100,
				BudgetTotal:          1000,
				MaxParticipants:      intPtr(0),
			},
			want: domainerrors.ErrInvalidRuleInput,
		},
	}
	for _, tc := range cases {
		if _, err := module.Service.CreateRule(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateRuleContributionCap(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	// Program-scope rules may cover at most 80% of the list price.
	_, err := module.Service.CreateRule(ctx, application.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "program",
		ScopeID:              "program-1",
		AmountPerParticipant: 4001,
		BudgetTotal:          40000,
		ListPrice:            5000,
	})
	if !errors.Is(err, domainerrors.ErrContributionCapExceeded) {
		t.Fatalf("expected contribution cap rejection, got %v", err)
	}

	if _, err := module.Service.CreateRule(ctx, application.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "program",
		ScopeID:              "program-1",
		AmountPerParticipant: 4000,
		BudgetTotal:          40000,
		ListPrice:            5000,
	}); err != nil {
		t.Fatalf("expected rule at the cap to pass, got %v", err)
	}

	// Broader scopes are not priced against a single program.
	if _, err := module.Service.CreateRule(ctx, categoryRule(5000, 50000)); err != nil {
		t.Fatalf("category rule failed: %v", err)
	}
}

func TestQuoteBestPrefersNarrowestScope(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Service.CreateRule(ctx, categoryRule(1000, 10000)); err != nil {
		t.Fatalf("category rule failed: %v", err)
	}
	programRule, err := module.Service.CreateRule(ctx, application.CreateRuleInput{
		SponsorID:            "sponsor-2",
		ScopeType:            "program",
		ScopeID:              "program-1",
		AmountPerParticipant: 2000,
		BudgetTotal:          20000,
		ListPrice:            5000,
	})
	if err != nil {
		t.Fatalf("program rule failed: %v", err)
	}

	quote, ok, err := module.Service.QuoteBest(ctx, ports.ScopeRefs{
		ProgramID: "program-1",
		Category:  "transport",
	}, 5000, "HUF")
	if err != nil || !ok {
		t.Fatalf("expected a quote, got ok=%v err=%v", ok, err)
	}
	if quote.RuleID != programRule.RuleID {
		t.Fatalf("expected program-scope rule to win, got %s", quote.RuleID)
	}
	if quote.SponsorContribution != 2000 || quote.MemberOwes != 3000 {
		t.Fatalf("unexpected quote amounts: %+v", quote)
	}
}

func TestQuoteContributionClipsToListPrice(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Service.CreateRule(ctx, categoryRule(5000, 50000)); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	quote, ok, err := module.Service.QuoteBest(ctx, ports.ScopeRefs{Category: "transport"}, 3000, "HUF")
	if err != nil || !ok {
		t.Fatalf("expected a quote, got ok=%v err=%v", ok, err)
	}
	if quote.SponsorContribution != 3000 || quote.MemberOwes != 0 {
		t.Fatalf("contribution must clip to the list price: %+v", quote)
	}
}

func TestReserveQuotaBoundary(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF"); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	// 400 left cannot cover another 600 seat.
	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-2", 600, "HUF"); !errors.Is(err, domainerrors.ErrQuotaExhausted) {
		t.Fatalf("expected quota exhausted, got %v", err)
	}

	updated, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 600 || updated.SeatsUsed != 1 {
		t.Fatalf("failed reserve must not debit: spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}
}

func TestReserveSeatLimit(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	input := categoryRule(100, 10000)
	input.MaxParticipants = intPtr(1)
	rule, err := module.Service.CreateRule(ctx, input)
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 100, "HUF"); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-2", 100, "HUF"); !errors.Is(err, domainerrors.ErrQuotaExhausted) {
		t.Fatalf("expected seat limit rejection, got %v", err)
	}
}

func TestReserveIdempotentPerMember(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	first, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	second, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("replayed reserve failed: %v", err)
	}
	if first.AllocationID != second.AllocationID {
		t.Fatalf("expected the same allocation on replay")
	}

	updated, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 600 || updated.SeatsUsed != 1 {
		t.Fatalf("replay must debit once: spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}
}

func TestCaptureConsumesCreditsOnce(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 6000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if _, err := module.Service.AddCredits(ctx, "sponsor-1", 6000); err != nil {
		t.Fatalf("add credits failed: %v", err)
	}

	allocation, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := module.Service.Capture(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if err := module.Service.Capture(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("replayed capture failed: %v", err)
	}

	account, err := module.Service.GetCreditAccount(ctx, "sponsor-1")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.UsedCredits != 600 {
		t.Fatalf("expected one 600 credit consumption, got %d", account.UsedCredits)
	}
	if account.Available() != 5400 {
		t.Fatalf("expected 5400 available, got %d", account.Available())
	}
}

func TestReleaseRefundsBudgetAndSeat(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	allocation, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := module.Service.Release(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := module.Service.Release(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("replayed release failed: %v", err)
	}

	updated, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 0 || updated.SeatsUsed != 0 {
		t.Fatalf("release must refund: spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}

	// The refunded seat is available again.
	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-2", 600, "HUF"); err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
}

func TestReleaseAfterCaptureConflicts(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	allocation, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := module.Service.Capture(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if err := module.Service.Release(ctx, allocation.AllocationID); !errors.Is(err, domainerrors.ErrWriteConflict) {
		t.Fatalf("expected conflict releasing a captured allocation, got %v", err)
	}
}

func TestReleaseForRefundsByBusinessKey(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// Callers like the checkout expiry sweep hold the business key only.
	if err := module.Service.ReleaseFor(ctx, rule.RuleID, "program-1", "user-1"); err != nil {
		t.Fatalf("release by key failed: %v", err)
	}
	if err := module.Service.ReleaseFor(ctx, rule.RuleID, "program-1", "user-1"); err != nil {
		t.Fatalf("replayed release by key failed: %v", err)
	}

	updated, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 0 || updated.SeatsUsed != 0 {
		t.Fatalf("release by key must refund: spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}

	if err := module.Service.ReleaseFor(ctx, rule.RuleID, "program-1", "user-9"); !errors.Is(err, domainerrors.ErrAllocationNotFound) {
		t.Fatalf("expected not found for an unknown seat, got %v", err)
	}
	if err := module.Service.ReleaseFor(ctx, "", "program-1", "user-1"); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for a blank rule, got %v", err)
	}
}

func TestReserveAgainAfterRelease(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(600, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	first, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := module.Service.Release(ctx, first.AllocationID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// The same member coming back gets a fresh debit, not the released row
	// handed over for free.
	second, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 600, "HUF")
	if err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
	if second.Status != entities.AllocationStatusReserved {
		t.Fatalf("expected a reserved allocation, got %s", second.Status)
	}

	updated, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 600 || updated.SeatsUsed != 1 {
		t.Fatalf("re-reserve must debit once: spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}

	if err := module.Service.Capture(ctx, second.AllocationID); err != nil {
		t.Fatalf("capture after re-reserve failed: %v", err)
	}
}

func TestBudgetAlertFiresExactlyOnce(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(450, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	for _, user := range []string{"user-1", "user-2"} {
		allocation, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", user, 450, "HUF")
		if err != nil {
			t.Fatalf("reserve for %s failed: %v", user, err)
		}
		if err := module.Service.Capture(ctx, allocation.AllocationID); err != nil {
			t.Fatalf("capture for %s failed: %v", user, err)
		}
	}

	alerts := 0
	for _, note := range module.Store.Notifications() {
		if note.Type == "sponsorship_budget_low" {
			alerts++
		}
	}
	if alerts != 1 {
		t.Fatalf("expected exactly one budget alert, got %d", alerts)
	}

	// A later capture on the same rule must not re-alert.
	allocation, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-3", 100, "HUF")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := module.Service.Capture(ctx, allocation.AllocationID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	alerts = 0
	for _, note := range module.Store.Notifications() {
		if note.Type == "sponsorship_budget_low" {
			alerts++
		}
	}
	if alerts != 1 {
		t.Fatalf("expected the alert to stay one-shot, got %d", alerts)
	}
}

func TestRuleLifecycleTransitions(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	rule, err := module.Service.CreateRule(ctx, categoryRule(100, 1000))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	if err := module.Service.PauseRule(ctx, rule.RuleID); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	// Paused rules are invisible to quotes.
	if _, ok, err := module.Service.QuoteBest(ctx, ports.ScopeRefs{Category: "transport"}, 1000, "HUF"); err != nil || ok {
		t.Fatalf("paused rule must not quote, got ok=%v err=%v", ok, err)
	}

	if err := module.Service.ResumeRule(ctx, rule.RuleID); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if err := module.Service.EndRule(ctx, rule.RuleID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if err := module.Service.ResumeRule(ctx, rule.RuleID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("ended rules are terminal, got %v", err)
	}

	ended, err := module.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if ended.Status != entities.RuleStatusEnded {
		t.Fatalf("expected ended status, got %s", ended.Status)
	}
}

func TestUtilizationReport(t *testing.T) {
	module := sponsorshipledger.NewInMemoryModule(nil)
	ctx := context.Background()

	input := categoryRule(500, 1000)
	input.MaxParticipants = intPtr(4)
	rule, err := module.Service.CreateRule(ctx, input)
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if _, err := module.Service.Reserve(ctx, rule.RuleID, "program-1", "user-1", 500, "HUF"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	items, err := module.Service.Utilization(ctx, "sponsor-1")
	if err != nil {
		t.Fatalf("utilization failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one rule, got %d", len(items))
	}
	if items[0].BudgetUtilization != 0.5 {
		t.Fatalf("expected 0.5 utilization, got %f", items[0].BudgetUtilization)
	}
	if items[0].SeatsRemaining != 3 {
		t.Fatalf("expected 3 seats remaining, got %d", items[0].SeatsRemaining)
	}
}
