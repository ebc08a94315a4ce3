package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/ports"
)

// budgetAlertThreshold is the utilization at which the sponsor gets a
// one-shot running-low notification.
const budgetAlertThreshold = 0.9

type Service struct {
	Rules       ports.RuleRepository
	Allocations ports.AllocationRepository
	Credits     ports.CreditRepository
	Notifier    ports.Notifier
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

type CreateRuleInput struct {
	SponsorID            string
	SponsorName          string
	ScopeType            string
	ScopeID              string
	AmountPerParticipant int64
	Currency             string
	BudgetTotal          int64
	MaxParticipants      *int
	StartAt              *time.Time
	EndAt                *time.Time
	// ListPrice backs the 80% contribution cap for program-scope rules.
	ListPrice int64
}

type Quote struct {
	RuleID              string
	SponsorID           string
	SponsorName         string
	SponsorContribution int64
	MemberOwes          int64
	Currency            string
}

type RuleUtilization struct {
	Rule              entities.SupportRule
	BudgetUtilization float64
	SeatsRemaining    int
}

func (s Service) CreateRule(ctx context.Context, input CreateRuleInput) (entities.SupportRule, error) {
	sponsorID := strings.TrimSpace(input.SponsorID)
	scopeID := strings.TrimSpace(input.ScopeID)
	scopeType := entities.ScopeType(strings.TrimSpace(input.ScopeType))
	if sponsorID == "" || scopeID == "" || !scopeType.Valid() {
		return entities.SupportRule{}, domainerrors.ErrInvalidRuleInput
	}
	if input.AmountPerParticipant <= 0 || input.BudgetTotal <= 0 {
		return entities.SupportRule{}, domainerrors.ErrInvalidRuleInput
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return entities.SupportRule{}, domainerrors.ErrInvalidRuleInput
	}
	if input.StartAt != nil && input.EndAt != nil && !input.StartAt.Before(*input.EndAt) {
		return entities.SupportRule{}, domainerrors.ErrInvalidRuleInput
	}
	if scopeType == entities.ScopeTypeProgram &&
		entities.ExceedsContributionCap(input.AmountPerParticipant, input.ListPrice) {
		return entities.SupportRule{}, domainerrors.ErrContributionCapExceeded
	}

	ruleID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.SupportRule{}, err
	}
	now := s.now()
	rule := entities.SupportRule{
		RuleID:               ruleID,
		SponsorID:            sponsorID,
		SponsorName:          strings.TrimSpace(input.SponsorName),
		ScopeType:            scopeType,
		ScopeID:              scopeID,
		AmountPerParticipant: input.AmountPerParticipant,
		Currency:             entities.NormalizeCurrency(input.Currency),
		BudgetTotal:          input.BudgetTotal,
		MaxParticipants:      input.MaxParticipants,
		StartAt:              input.StartAt,
		EndAt:                input.EndAt,
		Status:               entities.RuleStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.Rules.CreateRule(ctx, rule); err != nil {
		return entities.SupportRule{}, err
	}

	s.emitEvent(ctx, "sponsorship.rule_created", rule.RuleID, now, map[string]any{
		"rule_id":                rule.RuleID,
		"sponsor_id":             rule.SponsorID,
		"scope_type":             string(rule.ScopeType),
		"scope_id":               rule.ScopeID,
		"amount_per_participant": rule.AmountPerParticipant,
		"budget_total":           rule.BudgetTotal,
	})
	ResolveLogger(s.Logger).Info("support rule created",
		"event", "support_rule_created",
		"module", "marketplace-core/sponsorship-ledger",
		"layer", "application",
		"rule_id", rule.RuleID,
		"sponsor_id", rule.SponsorID,
		"scope_type", string(rule.ScopeType),
	)
	return rule, nil
}

// QuoteBest picks the most specific active rule that can still cover a seat
// at the given list price. ok=false means no quota: callers fall back to
// standard pricing, never fail.
func (s Service) QuoteBest(ctx context.Context, scope ports.ScopeRefs, listPrice int64, currency string) (Quote, bool, error) {
	if listPrice < 0 {
		return Quote{}, false, domainerrors.ErrInvalidInput
	}
	now := s.now()
	rules, err := s.Rules.FindActiveRules(ctx, scope, now)
	if err != nil {
		return Quote{}, false, err
	}
	for _, rule := range rules {
		if !rule.CanSponsor(now) {
			continue
		}
		contribution := rule.ContributionFor(listPrice)
		if contribution <= 0 && listPrice > 0 {
			continue
		}
		memberOwes := listPrice - contribution
		if memberOwes < 0 {
			memberOwes = 0
		}
		return Quote{
			RuleID:              rule.RuleID,
			SponsorID:           rule.SponsorID,
			SponsorName:         rule.SponsorName,
			SponsorContribution: contribution,
			MemberOwes:          memberOwes,
			Currency:            rule.Currency,
		}, true, nil
	}
	return Quote{}, false, nil
}

// Reserve debits quota for one seat ahead of the enrollment insert. The
// repository makes the debit and the allocation row one atomic unit; replays
// for the same (rule, program, user) return the existing allocation.
func (s Service) Reserve(ctx context.Context, ruleID string, programID string, userID string, amount int64, currency string) (entities.Allocation, error) {
	ruleID = strings.TrimSpace(ruleID)
	programID = strings.TrimSpace(programID)
	userID = strings.TrimSpace(userID)
	if ruleID == "" || programID == "" || userID == "" || amount < 0 {
		return entities.Allocation{}, domainerrors.ErrInvalidInput
	}

	rule, err := s.Rules.GetRule(ctx, ruleID)
	if err != nil {
		return entities.Allocation{}, err
	}
	now := s.now()
	if !rule.CanSponsor(now) {
		return entities.Allocation{}, domainerrors.ErrQuotaExhausted
	}

	allocationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Allocation{}, err
	}
	allocation, err := s.Allocations.ReserveAllocation(ctx, entities.Allocation{
		AllocationID: allocationID,
		RuleID:       ruleID,
		SponsorID:    rule.SponsorID,
		ProgramID:    programID,
		UserID:       userID,
		Amount:       amount,
		Currency:     entities.NormalizeCurrency(currency),
		Status:       entities.AllocationStatusReserved,
		CreatedAt:    now,
	})
	if err != nil {
		return entities.Allocation{}, err
	}

	ResolveLogger(s.Logger).Info("sponsorship reserved",
		"event", "sponsorship_reserved",
		"module", "marketplace-core/sponsorship-ledger",
		"layer", "application",
		"allocation_id", allocation.AllocationID,
		"rule_id", ruleID,
		"program_id", programID,
		"amount", allocation.Amount,
	)
	return allocation, nil
}

// Capture finalizes a reservation once the enrollment row exists, consumes
// the sponsor's credits, and fires the one-shot budget alert past 90%.
func (s Service) Capture(ctx context.Context, allocationID string) error {
	allocationID = strings.TrimSpace(allocationID)
	if allocationID == "" {
		return domainerrors.ErrInvalidInput
	}
	now := s.now()
	allocation, err := s.Allocations.CaptureAllocation(ctx, allocationID, now)
	if err != nil {
		return err
	}

	s.emitEvent(ctx, "sponsorship.captured", allocation.RuleID, now, map[string]any{
		"allocation_id": allocation.AllocationID,
		"rule_id":       allocation.RuleID,
		"sponsor_id":    allocation.SponsorID,
		"program_id":    allocation.ProgramID,
		"user_id":       allocation.UserID,
		"amount":        allocation.Amount,
	})
	s.maybeAlertBudget(ctx, allocation.RuleID)

	ResolveLogger(s.Logger).Info("sponsorship captured",
		"event", "sponsorship_captured",
		"module", "marketplace-core/sponsorship-ledger",
		"layer", "application",
		"allocation_id", allocation.AllocationID,
		"rule_id", allocation.RuleID,
		"amount", allocation.Amount,
	)
	return nil
}

// Release returns a reserved amount and seat to the rule when the enrollment
// never materialized.
func (s Service) Release(ctx context.Context, allocationID string) error {
	allocationID = strings.TrimSpace(allocationID)
	if allocationID == "" {
		return domainerrors.ErrInvalidInput
	}
	now := s.now()
	allocation, err := s.Allocations.ReleaseAllocation(ctx, allocationID, now)
	if err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("sponsorship released",
		"event", "sponsorship_released",
		"module", "marketplace-core/sponsorship-ledger",
		"layer", "application",
		"allocation_id", allocation.AllocationID,
		"rule_id", allocation.RuleID,
		"amount", allocation.Amount,
	)
	return nil
}

// ReleaseFor releases the reservation held for one (rule, program, user)
// seat. Sweeps that only carry the business key, like checkout expiry, go
// through here instead of Release.
func (s Service) ReleaseFor(ctx context.Context, ruleID string, programID string, userID string) error {
	ruleID = strings.TrimSpace(ruleID)
	programID = strings.TrimSpace(programID)
	userID = strings.TrimSpace(userID)
	if ruleID == "" || programID == "" || userID == "" {
		return domainerrors.ErrInvalidInput
	}
	allocation, err := s.Allocations.GetAllocationByKey(ctx, ruleID, programID, userID)
	if err != nil {
		return err
	}
	return s.Release(ctx, allocation.AllocationID)
}

func (s Service) PauseRule(ctx context.Context, ruleID string) error {
	return s.changeStatus(ctx, ruleID, entities.RuleStatusPaused)
}

func (s Service) ResumeRule(ctx context.Context, ruleID string) error {
	return s.changeStatus(ctx, ruleID, entities.RuleStatusActive)
}

func (s Service) EndRule(ctx context.Context, ruleID string) error {
	return s.changeStatus(ctx, ruleID, entities.RuleStatusEnded)
}

func (s Service) changeStatus(ctx context.Context, ruleID string, to entities.RuleStatus) error {
	ruleID = strings.TrimSpace(ruleID)
	if ruleID == "" {
		return domainerrors.ErrInvalidInput
	}
	rule, err := s.Rules.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if !rule.CanTransition(to) {
		return domainerrors.ErrInvalidTransition
	}
	now := s.now()
	if err := s.Rules.UpdateRuleStatus(ctx, ruleID, rule.Status, to, now); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("support rule status changed",
		"event", "support_rule_status_changed",
		"module", "marketplace-core/sponsorship-ledger",
		"layer", "application",
		"rule_id", ruleID,
		"from_status", string(rule.Status),
		"to_status", string(to),
	)
	return nil
}

func (s Service) GetRule(ctx context.Context, ruleID string) (entities.SupportRule, error) {
	ruleID = strings.TrimSpace(ruleID)
	if ruleID == "" {
		return entities.SupportRule{}, domainerrors.ErrInvalidInput
	}
	return s.Rules.GetRule(ctx, ruleID)
}

// Utilization reports budget and seat consumption for sponsor dashboards.
func (s Service) Utilization(ctx context.Context, sponsorID string) ([]RuleUtilization, error) {
	sponsorID = strings.TrimSpace(sponsorID)
	if sponsorID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	rules, err := s.Rules.ListRulesBySponsor(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	items := make([]RuleUtilization, 0, len(rules))
	for _, rule := range rules {
		items = append(items, RuleUtilization{
			Rule:              rule,
			BudgetUtilization: rule.BudgetUtilization(),
			SeatsRemaining:    rule.SeatsRemaining(),
		})
	}
	return items, nil
}

func (s Service) AddCredits(ctx context.Context, sponsorID string, amount int64) (entities.CreditAccount, error) {
	sponsorID = strings.TrimSpace(sponsorID)
	if sponsorID == "" || amount <= 0 {
		return entities.CreditAccount{}, domainerrors.ErrInvalidInput
	}
	return s.Credits.AddCredits(ctx, sponsorID, amount, s.now())
}

func (s Service) GetCreditAccount(ctx context.Context, sponsorID string) (entities.CreditAccount, error) {
	sponsorID = strings.TrimSpace(sponsorID)
	if sponsorID == "" {
		return entities.CreditAccount{}, domainerrors.ErrInvalidInput
	}
	return s.Credits.GetAccount(ctx, sponsorID)
}

func (s Service) maybeAlertBudget(ctx context.Context, ruleID string) {
	if s.Notifier == nil {
		return
	}
	rule, err := s.Rules.GetRule(ctx, ruleID)
	if err != nil || rule.AlertSent || rule.BudgetUtilization() < budgetAlertThreshold {
		return
	}
	if err := s.Rules.SetAlertSent(ctx, ruleID); err != nil {
		if !errors.Is(err, domainerrors.ErrWriteConflict) {
			ResolveLogger(s.Logger).Warn("budget alert flag update failed",
				"event", "sponsorship_alert_flag_failed",
				"module", "marketplace-core/sponsorship-ledger",
				"layer", "application",
				"rule_id", ruleID,
				"error", err.Error(),
			)
		}
		return
	}
	note := ports.Notification{
		UserID:  rule.SponsorID,
		Type:    "sponsorship_budget_low",
		Title:   "Sponsorship budget running low",
		Message: "Your support rule has used over 90% of its budget",
		Data: map[string]any{
			"rule_id":      rule.RuleID,
			"budget_total": rule.BudgetTotal,
			"budget_spent": rule.BudgetSpent,
		},
	}
	if err := s.Notifier.Notify(ctx, note); err != nil {
		ResolveLogger(s.Logger).Warn("budget alert notification failed",
			"event", "sponsorship_alert_failed",
			"module", "marketplace-core/sponsorship-ledger",
			"layer", "application",
			"rule_id", ruleID,
			"error", err.Error(),
		)
	}
}

func (s Service) emitEvent(ctx context.Context, eventType string, ruleID string, now time.Time, data map[string]any) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now.UTC(),
		SourceService:    "sponsorship-ledger",
		SchemaVersion:    1,
		PartitionKeyPath: "rule_id",
		PartitionKey:     ruleID,
		Data:             payload,
	}
	if err := s.Outbox.AppendOutbox(ctx, envelope); err != nil {
		ResolveLogger(s.Logger).Warn("sponsorship outbox append failed",
			"event", "sponsorship_outbox_append_failed",
			"module", "marketplace-core/sponsorship-ledger",
			"layer", "application",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
