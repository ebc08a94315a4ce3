package entities

import (
	"math"
	"strings"
	"time"
)

type ScopeType string

const (
	ScopeTypeProgram  ScopeType = "program"
	ScopeTypeCategory ScopeType = "category"
	ScopeTypeCreator  ScopeType = "creator"
	ScopeTypeEvent    ScopeType = "event"
)

func (s ScopeType) Valid() bool {
	switch s {
	case ScopeTypeProgram, ScopeTypeCategory, ScopeTypeCreator, ScopeTypeEvent:
		return true
	}
	return false
}

type RuleStatus string

const (
	RuleStatusActive RuleStatus = "active"
	RuleStatusPaused RuleStatus = "paused"
	RuleStatusEnded  RuleStatus = "ended"
)

// ContributionCapRate bounds a program-scope contribution to 80% of the list
// price, so the member always carries a stake in the enrollment.
const ContributionCapRate = 0.80

// SupportRule is a sponsor's standing offer to cover part of the enrollment
// price for every participant matching the scope, up to a budget and an
// optional seat limit.
type SupportRule struct {
	RuleID               string
	SponsorID            string
	SponsorName          string
	ScopeType            ScopeType
	ScopeID              string
	AmountPerParticipant int64
	Currency             string
	BudgetTotal          int64
	BudgetSpent          int64
	MaxParticipants      *int
	SeatsUsed            int
	StartAt              *time.Time
	EndAt                *time.Time
	Status               RuleStatus
	AlertSent            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (r SupportRule) BudgetRemaining() int64 {
	remaining := r.BudgetTotal - r.BudgetSpent
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r SupportRule) SeatsRemaining() int {
	if r.MaxParticipants == nil {
		return math.MaxInt32
	}
	remaining := *r.MaxParticipants - r.SeatsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// InWindow reports whether the rule's optional validity window covers now.
func (r SupportRule) InWindow(now time.Time) bool {
	if r.StartAt != nil && now.Before(*r.StartAt) {
		return false
	}
	if r.EndAt != nil && !now.Before(*r.EndAt) {
		return false
	}
	return true
}

// CanSponsor reports whether the rule can cover one more participant at its
// configured contribution.
func (r SupportRule) CanSponsor(now time.Time) bool {
	if r.Status != RuleStatusActive {
		return false
	}
	if !r.InWindow(now) {
		return false
	}
	if r.BudgetRemaining() < r.AmountPerParticipant {
		return false
	}
	return r.SeatsRemaining() > 0
}

// ContributionFor returns what the rule pays toward one seat at the given
// list price: the configured amount, clipped to the list price and to the
// remaining budget.
func (r SupportRule) ContributionFor(listPrice int64) int64 {
	contribution := r.AmountPerParticipant
	if contribution > listPrice {
		contribution = listPrice
	}
	if remaining := r.BudgetRemaining(); contribution > remaining {
		contribution = remaining
	}
	if contribution < 0 {
		return 0
	}
	return contribution
}

// BudgetUtilization is spent over total in [0,1].
func (r SupportRule) BudgetUtilization() float64 {
	if r.BudgetTotal <= 0 {
		return 0
	}
	ratio := float64(r.BudgetSpent) / float64(r.BudgetTotal)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// CanTransition enforces active<->paused->ended; ended is terminal.
func (r SupportRule) CanTransition(to RuleStatus) bool {
	if r.Status == RuleStatusEnded {
		return false
	}
	switch to {
	case RuleStatusActive, RuleStatusPaused, RuleStatusEnded:
		return to != r.Status
	}
	return false
}

// ExceedsContributionCap applies to program-scope rules only, where the list
// price is known at creation time.
func ExceedsContributionCap(contribution int64, listPrice int64) bool {
	if listPrice <= 0 {
		return false
	}
	cap := int64(math.Round(float64(listPrice) * ContributionCapRate))
	return contribution > cap
}

func NormalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return "HUF"
	}
	return normalized
}
