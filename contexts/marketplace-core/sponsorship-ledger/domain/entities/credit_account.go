package entities

import "time"

// CreditAccount tracks a sponsor's funding in parallel with per-rule budgets.
// Captures consume credits; available balance never goes negative.
type CreditAccount struct {
	SponsorID    string
	TotalCredits int64
	UsedCredits  int64
	UpdatedAt    time.Time
}

func (a CreditAccount) Available() int64 {
	available := a.TotalCredits - a.UsedCredits
	if available < 0 {
		return 0
	}
	return available
}
