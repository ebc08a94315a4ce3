package ports

import (
	"context"
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	contractsv1 "wellagora/contracts/gen/events/v1"
)

// ScopeRefs carries every scope handle a program resolves to. A quote matches
// rules on any of them, most specific first.
type ScopeRefs struct {
	ProgramID string
	Category  string
	CreatorID string
	EventID   string
}

type RuleRepository interface {
	CreateRule(ctx context.Context, rule entities.SupportRule) error
	GetRule(ctx context.Context, ruleID string) (entities.SupportRule, error)
	ListRulesBySponsor(ctx context.Context, sponsorID string) ([]entities.SupportRule, error)
	// FindActiveRules returns active rules matching any scope ref, ordered
	// program > event > creator > category, then oldest first.
	FindActiveRules(ctx context.Context, scope ScopeRefs, now time.Time) ([]entities.SupportRule, error)
	UpdateRuleStatus(ctx context.Context, ruleID string, from entities.RuleStatus, to entities.RuleStatus, now time.Time) error
	// SetAlertSent flips the one-shot high-utilization alert flag.
	SetAlertSent(ctx context.Context, ruleID string) error
}

type AllocationRepository interface {
	// ReserveAllocation creates the allocation and debits the rule's budget
	// and seat counters in one atomic unit, guarded by a conditional update
	// that fails with ErrQuotaExhausted when the budget or seats ran out. An
	// existing reserved or captured allocation for the same (rule, program,
	// user) key is returned as-is; a released one is re-reserved with a fresh
	// debit.
	ReserveAllocation(ctx context.Context, allocation entities.Allocation) (entities.Allocation, error)
	GetAllocation(ctx context.Context, allocationID string) (entities.Allocation, error)
	// GetAllocationByKey finds the allocation held for one (rule, program,
	// user) seat.
	GetAllocationByKey(ctx context.Context, ruleID string, programID string, userID string) (entities.Allocation, error)
	// CaptureAllocation finalizes a reserved allocation and consumes the
	// sponsor's credits. Capturing a captured allocation is a no-op.
	CaptureAllocation(ctx context.Context, allocationID string, now time.Time) (entities.Allocation, error)
	// ReleaseAllocation returns a reserved amount and seat to the rule.
	// Releasing a released allocation is a no-op; a captured one cannot be
	// released.
	ReleaseAllocation(ctx context.Context, allocationID string, now time.Time) (entities.Allocation, error)
}

type CreditRepository interface {
	GetAccount(ctx context.Context, sponsorID string) (entities.CreditAccount, error)
	AddCredits(ctx context.Context, sponsorID string, amount int64, now time.Time) (entities.CreditAccount, error)
}

type Notification struct {
	UserID  string
	Type    string
	Title   string
	Message string
	Data    map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}
