package entities

import "time"

type AllocationStatus string

const (
	AllocationStatusReserved AllocationStatus = "reserved"
	AllocationStatusCaptured AllocationStatus = "captured"
	AllocationStatusReleased AllocationStatus = "released"
)

// Allocation is one sponsored seat moving through reserve -> capture, or
// reserve -> release when the enrollment aborts. The (rule, program, user)
// key makes the lifecycle idempotent under webhook retries.
type Allocation struct {
	AllocationID string
	RuleID       string
	SponsorID    string
	ProgramID    string
	UserID       string
	Amount       int64
	Currency     string
	Status       AllocationStatus
	CreatedAt    time.Time
	CapturedAt   *time.Time
	ReleasedAt   *time.Time
}
