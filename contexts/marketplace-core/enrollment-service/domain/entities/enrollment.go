package entities

import (
	"math"
	"time"
)

type AccessType string

const (
	AccessTypeFree      AccessType = "free"
	AccessTypePaid      AccessType = "paid"
	AccessTypeSponsored AccessType = "sponsored"
)

// Treatment is the pricing outcome of an enrollment decision.
type Treatment string

const (
	TreatmentFree        Treatment = "free"
	TreatmentPaid        Treatment = "paid"
	TreatmentSponsored   Treatment = "sponsored"
	TreatmentFull        Treatment = "full"
	TreatmentUnavailable Treatment = "unavailable"
	TreatmentOpen        Treatment = "open"
)

// Enrollment is the access record for one user in one program. The pair
// (ProgramID, UserID) is unique for all time; the row is written exactly once
// and never mutated or deleted by this engine.
type Enrollment struct {
	EnrollmentID        string
	ProgramID           string
	UserID              string
	CreatorID           string
	AccessType          AccessType
	AmountPaid          int64
	SponsorContribution int64
	CreatorRevenue      int64
	PlatformFee         int64
	SupportRuleID       string
	PaymentReference    string
	CreatedAt           time.Time
}

// PlatformFeeRate is the platform's share of every paid enrollment.
const PlatformFeeRate = 0.20

// SplitRevenue computes the creator/platform split for a paid amount.
// Rounding is applied to the fee only, so the two parts always sum exactly
// to the input amount.
func SplitRevenue(amount int64) (creatorAmount int64, platformFee int64) {
	if amount <= 0 {
		return 0, 0
	}
	platformFee = int64(math.Round(float64(amount) * PlatformFeeRate))
	return amount - platformFee, platformFee
}
