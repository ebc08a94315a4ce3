package entities

import "time"

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusExpired   CheckoutStatus = "expired"
)

// Checkout is a pending purchase handle issued before any enrollment exists.
// A checkout that is never confirmed simply expires; there is nothing to
// roll back because the enrollment row is only written on confirmation.
type Checkout struct {
	CheckoutID          string
	ProgramID           string
	UserID              string
	CreatorID           string
	Amount              int64
	ListPrice           int64
	SponsorContribution int64
	SupportRuleID       string
	Currency            string
	Status              CheckoutStatus
	RedirectURL         string
	CreatedAt           time.Time
	ExpiresAt           time.Time
	CompletedAt         *time.Time
}

func (c Checkout) ExpiredAt(now time.Time) bool {
	return c.Status == CheckoutStatusPending && now.UTC().After(c.ExpiresAt.UTC())
}
