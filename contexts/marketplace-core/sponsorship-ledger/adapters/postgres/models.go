package postgresadapter

import (
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
)

type ruleModel struct {
	RuleID               string     `gorm:"column:rule_id;primaryKey"`
	SponsorID            string     `gorm:"column:sponsor_id;index"`
	SponsorName          string     `gorm:"column:sponsor_name"`
	ScopeType            string     `gorm:"column:scope_type;index:idx_support_rules_scope"`
	ScopeID              string     `gorm:"column:scope_id;index:idx_support_rules_scope"`
	AmountPerParticipant int64      `gorm:"column:amount_per_participant"`
	Currency             string     `gorm:"column:currency"`
	BudgetTotal          int64      `gorm:"column:budget_total"`
	BudgetSpent          int64      `gorm:"column:budget_spent"`
	MaxParticipants      *int       `gorm:"column:max_participants"`
	SeatsUsed            int        `gorm:"column:seats_used"`
	StartAt              *time.Time `gorm:"column:start_at"`
	EndAt                *time.Time `gorm:"column:end_at"`
	Status               string     `gorm:"column:status;index"`
	AlertSent            bool       `gorm:"column:alert_sent"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string { return "support_rules" }

func ruleModelFromEntity(r entities.SupportRule) ruleModel {
	return ruleModel{
		RuleID:               r.RuleID,
		SponsorID:            r.SponsorID,
		SponsorName:          r.SponsorName,
		ScopeType:            string(r.ScopeType),
		ScopeID:              r.ScopeID,
		AmountPerParticipant: r.AmountPerParticipant,
		Currency:             r.Currency,
		BudgetTotal:          r.BudgetTotal,
		BudgetSpent:          r.BudgetSpent,
		MaxParticipants:      r.MaxParticipants,
		SeatsUsed:            r.SeatsUsed,
		StartAt:              normalizeOptionalTime(r.StartAt),
		EndAt:                normalizeOptionalTime(r.EndAt),
		Status:               string(r.Status),
		AlertSent:            r.AlertSent,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}

func (m ruleModel) toEntity() entities.SupportRule {
	return entities.SupportRule{
		RuleID:               m.RuleID,
		SponsorID:            m.SponsorID,
		SponsorName:          m.SponsorName,
		ScopeType:            entities.ScopeType(m.ScopeType),
		ScopeID:              m.ScopeID,
		AmountPerParticipant: m.AmountPerParticipant,
		Currency:             m.Currency,
		BudgetTotal:          m.BudgetTotal,
		BudgetSpent:          m.BudgetSpent,
		MaxParticipants:      m.MaxParticipants,
		SeatsUsed:            m.SeatsUsed,
		StartAt:              normalizeOptionalTime(m.StartAt),
		EndAt:                normalizeOptionalTime(m.EndAt),
		Status:               entities.RuleStatus(m.Status),
		AlertSent:            m.AlertSent,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

type allocationModel struct {
	AllocationID string     `gorm:"column:allocation_id;primaryKey"`
	RuleID       string     `gorm:"column:rule_id;uniqueIndex:idx_allocations_rule_program_user"`
	SponsorID    string     `gorm:"column:sponsor_id;index"`
	ProgramID    string     `gorm:"column:program_id;uniqueIndex:idx_allocations_rule_program_user"`
	UserID       string     `gorm:"column:user_id;uniqueIndex:idx_allocations_rule_program_user"`
	Amount       int64      `gorm:"column:amount"`
	Currency     string     `gorm:"column:currency"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	CapturedAt   *time.Time `gorm:"column:captured_at"`
	ReleasedAt   *time.Time `gorm:"column:released_at"`
}

func (allocationModel) TableName() string { return "allocations" }

func allocationModelFromEntity(a entities.Allocation) allocationModel {
	return allocationModel{
		AllocationID: a.AllocationID,
		RuleID:       a.RuleID,
		SponsorID:    a.SponsorID,
		ProgramID:    a.ProgramID,
		UserID:       a.UserID,
		Amount:       a.Amount,
		Currency:     a.Currency,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.UTC(),
		CapturedAt:   normalizeOptionalTime(a.CapturedAt),
		ReleasedAt:   normalizeOptionalTime(a.ReleasedAt),
	}
}

func (m allocationModel) toEntity() entities.Allocation {
	return entities.Allocation{
		AllocationID: m.AllocationID,
		RuleID:       m.RuleID,
		SponsorID:    m.SponsorID,
		ProgramID:    m.ProgramID,
		UserID:       m.UserID,
		Amount:       m.Amount,
		Currency:     m.Currency,
		Status:       entities.AllocationStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		CapturedAt:   normalizeOptionalTime(m.CapturedAt),
		ReleasedAt:   normalizeOptionalTime(m.ReleasedAt),
	}
}

type creditAccountModel struct {
	SponsorID    string    `gorm:"column:sponsor_id;primaryKey"`
	TotalCredits int64     `gorm:"column:total_credits"`
	UsedCredits  int64     `gorm:"column:used_credits"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (creditAccountModel) TableName() string { return "credit_accounts" }

func (m creditAccountModel) toEntity() entities.CreditAccount {
	return entities.CreditAccount{
		SponsorID:    m.SponsorID,
		TotalCredits: m.TotalCredits,
		UsedCredits:  m.UsedCredits,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
