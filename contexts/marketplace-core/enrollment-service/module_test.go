package enrollmentservice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	enrollmentservice "wellagora/contexts/marketplace-core/enrollment-service"
	"wellagora/contexts/marketplace-core/enrollment-service/adapters/sponsorship"
	"wellagora/contexts/marketplace-core/enrollment-service/application/workers"
	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"
	sponsorshipledger "wellagora/contexts/marketplace-core/sponsorship-ledger"
	sponsorshipapp "wellagora/contexts/marketplace-core/sponsorship-ledger/application"
)

type stubPayments struct {
	down bool
}

func (p stubPayments) CreateCheckout(_ context.Context, input ports.CreateCheckoutInput) (ports.CheckoutSession, error) {
	if p.down {
		return ports.CheckoutSession{}, errors.New("connection refused")
	}
	return ports.CheckoutSession{
		Reference:   input.Reference,
		RedirectURL: "https://pay.example/session/" + input.Reference,
	}, nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type recordingPublisher struct {
	published []ports.EventEnvelope
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.published = append(p.published, event)
	return nil
}

func intPtr(v int) *int { return &v }

func paidProgram(id string, price int64) entities.Program {
	return entities.Program{
		ProgramID:   id,
		CreatorID:   "creator-1",
		Title:       "Community Garden Workshop",
		Category:    "community",
		PriceHUF:    price,
		Currency:    "HUF",
		IsPublished: true,
		Status:      entities.ProgramStatusPublished,
	}
}

func newModule(t *testing.T, seed []entities.Program, deps enrollmentservice.Dependencies) enrollmentservice.Module {
	t.Helper()
	if deps.Payments == nil {
		deps.Payments = stubPayments{}
	}
	return enrollmentservice.NewInMemoryModule(seed, deps, nil)
}

func newSponsoredSetup(t *testing.T, seed []entities.Program) (enrollmentservice.Module, sponsorshipledger.Module) {
	t.Helper()
	ledger := sponsorshipledger.NewInMemoryModule(nil)
	module := newModule(t, seed, enrollmentservice.Dependencies{
		Sponsorship: sponsorship.NewGateway(ledger.Service),
	})
	return module, ledger
}

func TestDecideFreeAndPaidTreatments(t *testing.T) {
	free := paidProgram("program-free", 0)
	paid := paidProgram("program-paid", 5000)
	module := newModule(t, []entities.Program{free, paid}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	decision, err := module.Handler.DecideHandler(ctx, "program-free", "user-1")
	if err != nil {
		t.Fatalf("decide free failed: %v", err)
	}
	if !decision.Allowed || decision.Treatment != string(entities.TreatmentFree) {
		t.Fatalf("expected free treatment, got %+v", decision)
	}

	decision, err = module.Handler.DecideHandler(ctx, "program-paid", "user-1")
	if err != nil {
		t.Fatalf("decide paid failed: %v", err)
	}
	if decision.Treatment != string(entities.TreatmentPaid) {
		t.Fatalf("expected paid treatment, got %s", decision.Treatment)
	}
	if decision.UserPays != 5000 || decision.CreatorEarning != 4000 || decision.PlatformFee != 1000 {
		t.Fatalf("unexpected paid split: %+v", decision)
	}
}

func TestDecideUnpublishedAndFull(t *testing.T) {
	draft := paidProgram("program-draft", 0)
	draft.IsPublished = false
	draft.Status = entities.ProgramStatusDraft
	full := paidProgram("program-full", 0)
	full.MaxCapacity = intPtr(1)
	full.CurrentParticipants = 1
	module := newModule(t, []entities.Program{draft, full}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	decision, err := module.Handler.DecideHandler(ctx, "program-draft", "user-1")
	if err != nil {
		t.Fatalf("decide draft failed: %v", err)
	}
	if decision.Allowed || decision.Treatment != string(entities.TreatmentUnavailable) {
		t.Fatalf("expected unavailable treatment, got %+v", decision)
	}

	decision, err = module.Handler.DecideHandler(ctx, "program-full", "user-1")
	if err != nil {
		t.Fatalf("decide full failed: %v", err)
	}
	if decision.Allowed || decision.Treatment != string(entities.TreatmentFull) {
		t.Fatalf("expected full treatment, got %+v", decision)
	}
}

func TestDecideSponsoredFullCover(t *testing.T) {
	program := paidProgram("program-1", 5000)
	module, ledger := newSponsoredSetup(t, []entities.Program{program})
	ctx := context.Background()

	_, err := ledger.Service.CreateRule(ctx, sponsorshipapp.CreateRuleInput{
		SponsorID:            "sponsor-1",
		SponsorName:          "Green Corp",
		ScopeType:            "category",
		ScopeID:              "community",
		AmountPerParticipant: 5000,
		BudgetTotal:          50000,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	decision, err := module.Handler.DecideHandler(ctx, "program-1", "user-1")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if decision.Treatment != string(entities.TreatmentSponsored) {
		t.Fatalf("expected sponsored treatment, got %s", decision.Treatment)
	}
	if decision.UserPays != 0 || decision.SponsorContribution != 5000 || decision.SponsorName != "Green Corp" {
		t.Fatalf("unexpected sponsored quote: %+v", decision)
	}
}

func TestEnrollFreeDuplicateAndCapacity(t *testing.T) {
	program := paidProgram("program-1", 0)
	program.MaxCapacity = intPtr(1)
	module := newModule(t, []entities.Program{program}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	result, err := module.Service.EnrollFree(ctx, "program-1", "user-1")
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if result.Enrollment.AccessType != entities.AccessTypeFree {
		t.Fatalf("expected free access, got %s", result.Enrollment.AccessType)
	}
	if result.Program.CurrentParticipants != 1 {
		t.Fatalf("expected 1 participant, got %d", result.Program.CurrentParticipants)
	}
	if result.Program.EffectiveStatus() != entities.ProgramStatusFull {
		t.Fatalf("expected program to flip to full, got %s", result.Program.EffectiveStatus())
	}

	if _, err := module.Service.EnrollFree(ctx, "program-1", "user-1"); !errors.Is(err, domainerrors.ErrAlreadyEnrolled) {
		t.Fatalf("expected already enrolled, got %v", err)
	}
	if _, err := module.Service.EnrollFree(ctx, "program-1", "user-2"); !errors.Is(err, domainerrors.ErrProgramFull) {
		t.Fatalf("expected program full, got %v", err)
	}
}

func TestEnrollFreePaidProgramRejected(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 5000)}, enrollmentservice.Dependencies{})

	_, err := module.Service.EnrollFree(context.Background(), "program-1", "user-1")
	if !errors.Is(err, domainerrors.ErrNotFreeProgram) {
		t.Fatalf("expected not-free rejection, got %v", err)
	}
}

func TestEnrollFreeSponsoredDebitsQuotaOnce(t *testing.T) {
	program := paidProgram("program-1", 5000)
	module, ledger := newSponsoredSetup(t, []entities.Program{program})
	ctx := context.Background()

	rule, err := ledger.Service.CreateRule(ctx, sponsorshipapp.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "category",
		ScopeID:              "community",
		AmountPerParticipant: 5000,
		BudgetTotal:          5000,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	result, err := module.Service.EnrollFree(ctx, "program-1", "user-1")
	if err != nil {
		t.Fatalf("sponsored enroll failed: %v", err)
	}
	if result.Enrollment.AccessType != entities.AccessTypeSponsored {
		t.Fatalf("expected sponsored access, got %s", result.Enrollment.AccessType)
	}
	if result.Enrollment.SponsorContribution != 5000 || result.Enrollment.SupportRuleID != rule.RuleID {
		t.Fatalf("unexpected sponsorship fields: %+v", result.Enrollment)
	}

	updated, err := ledger.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 5000 {
		t.Fatalf("expected budget spent 5000, got %d", updated.BudgetSpent)
	}

	// Quota is gone, so the next member sees the standard paid treatment.
	if _, err := module.Service.EnrollFree(ctx, "program-1", "user-2"); !errors.Is(err, domainerrors.ErrNotFreeProgram) {
		t.Fatalf("expected fallback to paid, got %v", err)
	}
}

func TestStartCheckoutPartialSponsorship(t *testing.T) {
	program := paidProgram("program-1", 5000)
	module, ledger := newSponsoredSetup(t, []entities.Program{program})
	ctx := context.Background()

	if _, err := ledger.Service.CreateRule(ctx, sponsorshipapp.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "category",
		ScopeID:              "community",
		AmountPerParticipant: 2000,
		BudgetTotal:          20000,
	}); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "https://ok", "https://cancel")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}
	if checkout.Amount != 3000 {
		t.Fatalf("expected member to owe 3000, got %d", checkout.Amount)
	}
	if checkout.RedirectURL == "" {
		t.Fatalf("expected a redirect url")
	}
}

func TestStartCheckoutGuards(t *testing.T) {
	free := paidProgram("program-free", 0)
	paid := paidProgram("program-paid", 5000)
	module := newModule(t, []entities.Program{free, paid}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	if _, err := module.Service.StartCheckout(ctx, "program-free", "user-1", "", ""); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for free program, got %v", err)
	}

	checkout, err := module.Service.StartCheckout(ctx, "program-paid", "user-1", "", "")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}
	if _, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, checkout.Amount); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if _, err := module.Service.StartCheckout(ctx, "program-paid", "user-1", "", ""); !errors.Is(err, domainerrors.ErrAlreadyEnrolled) {
		t.Fatalf("expected already enrolled guard, got %v", err)
	}
}

func TestStartCheckoutPaymentProviderDown(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 5000)}, enrollmentservice.Dependencies{
		Payments: stubPayments{down: true},
	})

	_, err := module.Service.StartCheckout(context.Background(), "program-1", "user-1", "", "")
	if !errors.Is(err, domainerrors.ErrPaymentUnavailable) {
		t.Fatalf("expected payment unavailable, got %v", err)
	}
}

func TestFinalizeCheckoutSplitsAndReplays(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 9999)}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", "")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}

	first, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, 9999)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if first.Replayed {
		t.Fatalf("first confirmation must not be a replay")
	}
	if first.Enrollment.CreatorRevenue != 7999 || first.Enrollment.PlatformFee != 2000 {
		t.Fatalf("unexpected split: creator=%d fee=%d", first.Enrollment.CreatorRevenue, first.Enrollment.PlatformFee)
	}
	if first.Enrollment.CreatorRevenue+first.Enrollment.PlatformFee != first.Enrollment.AmountPaid {
		t.Fatalf("split parts must sum to the amount paid")
	}

	second, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, 9999)
	if err != nil {
		t.Fatalf("replayed finalize failed: %v", err)
	}
	if !second.Replayed || second.Enrollment.EnrollmentID != first.Enrollment.EnrollmentID {
		t.Fatalf("expected idempotent replay, got %+v", second)
	}
}

func TestFinalizeCheckoutDebitsSponsorshipOnce(t *testing.T) {
	program := paidProgram("program-1", 5000)
	module, ledger := newSponsoredSetup(t, []entities.Program{program})
	ctx := context.Background()

	rule, err := ledger.Service.CreateRule(ctx, sponsorshipapp.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "category",
		ScopeID:              "community",
		AmountPerParticipant: 2000,
		BudgetTotal:          20000,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", "")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}
	if _, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, checkout.Amount); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if _, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, checkout.Amount); err != nil {
		t.Fatalf("replayed finalize failed: %v", err)
	}

	updated, err := ledger.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 2000 {
		t.Fatalf("expected a single 2000 debit, got %d", updated.BudgetSpent)
	}
	if updated.SeatsUsed != 1 {
		t.Fatalf("expected one seat used, got %d", updated.SeatsUsed)
	}
}

func TestCheckoutExpirySweep(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 5000)}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", "")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}

	expirer := workers.CheckoutExpirer{
		Checkouts: module.Store,
		Clock:     fixedClock{at: time.Now().UTC().Add(25 * time.Hour)},
	}
	if err := expirer.RunOnce(ctx); err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}

	row, err := module.Store.GetCheckoutByReference(ctx, checkout.CheckoutID)
	if err != nil {
		t.Fatalf("get checkout failed: %v", err)
	}
	if row.Status != entities.CheckoutStatusExpired {
		t.Fatalf("expected expired status, got %s", row.Status)
	}

	// Expiry leaves no enrollment behind and the member can try again.
	if _, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", ""); err != nil {
		t.Fatalf("checkout after expiry failed: %v", err)
	}
}

func TestCheckoutExpiryReleasesSponsorship(t *testing.T) {
	program := paidProgram("program-1", 5000)
	module, ledger := newSponsoredSetup(t, []entities.Program{program})
	ctx := context.Background()

	rule, err := ledger.Service.CreateRule(ctx, sponsorshipapp.CreateRuleInput{
		SponsorID:            "sponsor-1",
		ScopeType:            "category",
		ScopeID:              "community",
		AmountPerParticipant: 2000,
		BudgetTotal:          2000,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	if _, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", ""); err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}
	held, err := ledger.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if held.BudgetSpent != 2000 || held.SeatsUsed != 1 {
		t.Fatalf("expected checkout to hold the quota, got spent=%d seats=%d", held.BudgetSpent, held.SeatsUsed)
	}

	expirer := workers.CheckoutExpirer{
		Checkouts:   module.Store,
		Sponsorship: sponsorship.NewGateway(ledger.Service),
		Clock:       fixedClock{at: time.Now().UTC().Add(25 * time.Hour)},
	}
	if err := expirer.RunOnce(ctx); err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}

	updated, err := ledger.Service.GetRule(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if updated.BudgetSpent != 0 || updated.SeatsUsed != 0 {
		t.Fatalf("expected expiry to refund the quota, got spent=%d seats=%d", updated.BudgetSpent, updated.SeatsUsed)
	}

	// The freed quota covers the next member.
	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-2", "", "")
	if err != nil {
		t.Fatalf("checkout after expiry failed: %v", err)
	}
	if checkout.Amount != 3000 {
		t.Fatalf("expected sponsored price 3000 after refund, got %d", checkout.Amount)
	}
}

func TestEnrollFreeConcurrentLastSeat(t *testing.T) {
	program := paidProgram("program-1", 0)
	program.MaxCapacity = intPtr(1)
	module := newModule(t, []entities.Program{program}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := module.Service.EnrollFree(ctx, "program-1", userID)
			results <- err
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()
	close(results)

	var wins, fulls int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domainerrors.ErrProgramFull):
			fulls++
		default:
			t.Fatalf("unexpected enroll error: %v", err)
		}
	}
	if wins != 1 || fulls != attempts-1 {
		t.Fatalf("expected exactly one winner for the last seat, got %d wins and %d full rejections", wins, fulls)
	}

	updated, err := module.Store.GetProgram(ctx, "program-1")
	if err != nil {
		t.Fatalf("get program failed: %v", err)
	}
	if updated.CurrentParticipants != 1 {
		t.Fatalf("expected 1 participant after the race, got %d", updated.CurrentParticipants)
	}
}

func TestFinalizeCheckoutConcurrentDeliveries(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 5000)}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	checkout, err := module.Service.StartCheckout(ctx, "program-1", "user-1", "", "")
	if err != nil {
		t.Fatalf("start checkout failed: %v", err)
	}

	type outcome struct {
		enrollmentID string
		replayed     bool
		err          error
	}
	const deliveries = 4
	results := make(chan outcome, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := module.Service.FinalizeCheckout(ctx, checkout.CheckoutID, checkout.Amount)
			results <- outcome{result.Enrollment.EnrollmentID, result.Replayed, err}
		}()
	}
	wg.Wait()
	close(results)

	var firstID string
	var originals int
	for result := range results {
		if result.err != nil {
			t.Fatalf("concurrent finalize failed: %v", result.err)
		}
		if firstID == "" {
			firstID = result.enrollmentID
		}
		if result.enrollmentID != firstID {
			t.Fatalf("deliveries disagree on the enrollment: %s vs %s", result.enrollmentID, firstID)
		}
		if !result.replayed {
			originals++
		}
	}
	if originals != 1 {
		t.Fatalf("expected exactly one non-replayed confirmation, got %d", originals)
	}

	program, err := module.Store.GetProgram(ctx, "program-1")
	if err != nil {
		t.Fatalf("get program failed: %v", err)
	}
	if program.CurrentParticipants != 1 {
		t.Fatalf("expected a single participant after racing deliveries, got %d", program.CurrentParticipants)
	}
}

func TestOutboxRelayPublishesPendingOnce(t *testing.T) {
	module := newModule(t, []entities.Program{paidProgram("program-1", 0)}, enrollmentservice.Dependencies{})
	ctx := context.Background()

	if _, err := module.Service.EnrollFree(ctx, "program-1", "user-1"); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) == 0 {
		t.Fatalf("expected pending events to be published")
	}
	seen := false
	for _, event := range publisher.published {
		if event.EventType == "enrollment.created" {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("expected an enrollment.created event")
	}

	count := len(publisher.published)
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.published) != count {
		t.Fatalf("expected no republish of drained rows")
	}
}
