package ports

import (
	"context"
	"time"

	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	contractsv1 "wellagora/contracts/gen/events/v1"
)

type ProgramRepository interface {
	GetProgram(ctx context.Context, programID string) (entities.Program, error)
}

type EnrollmentRepository interface {
	GetEnrollment(ctx context.Context, programID string, userID string) (entities.Enrollment, error)
	// CreateEnrollment inserts the record and bumps the program participant
	// counter in one atomic unit. The unique (program_id, user_id) key is the
	// linearization point: a duplicate insert yields ErrAlreadyEnrolled and a
	// lost capacity race yields ErrProgramFull, with no partial writes either
	// way. Returns the program as it stands after the increment.
	CreateEnrollment(ctx context.Context, enrollment entities.Enrollment) (entities.Program, error)
	ListEnrollmentsByUser(ctx context.Context, userID string, limit int, offset int) ([]entities.Enrollment, error)
}

type CheckoutRepository interface {
	CreateCheckout(ctx context.Context, checkout entities.Checkout) error
	GetCheckoutByReference(ctx context.Context, reference string) (entities.Checkout, error)
	MarkCheckoutCompleted(ctx context.Context, checkoutID string, completedAt time.Time) error
	// ExpireCheckouts transitions pending checkouts past their deadline to
	// expired and returns the rows it touched.
	ExpireCheckouts(ctx context.Context, now time.Time, limit int) ([]entities.Checkout, error)
}

type CheckoutSession struct {
	Reference   string
	RedirectURL string
}

type CreateCheckoutInput struct {
	Reference  string
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutProvider is the hosted payment processor. It issues an opaque
// redirect handle; confirmation arrives later on the webhook path.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, input CreateCheckoutInput) (CheckoutSession, error)
}

type SponsorshipQuoteRequest struct {
	ProgramID string
	Category  string
	CreatorID string
	EventID   string
	ListPrice int64
	Currency  string
}

type SponsorshipQuote struct {
	RuleID              string
	SponsorID           string
	SponsorName         string
	SponsorContribution int64
	MemberOwes          int64
	Currency            string
}

type SponsorshipReservation struct {
	AllocationID string
}

// SponsorshipGateway fronts the sponsorship quota ledger. Sponsorship is a
// best-effort override: every method may report exhaustion and callers fall
// back to standard free/paid treatment.
type SponsorshipGateway interface {
	// Quote returns the best active support rule for the scope, or ok=false
	// when none applies or the quota is gone.
	Quote(ctx context.Context, req SponsorshipQuoteRequest) (SponsorshipQuote, bool, error)
	// Reserve debits the rule's budget and seat counters atomically ahead of
	// the enrollment insert. Idempotent per (rule, program, user).
	Reserve(ctx context.Context, ruleID string, programID string, userID string, amount int64, currency string) (SponsorshipReservation, error)
	// Capture finalizes a reservation once the enrollment row exists.
	Capture(ctx context.Context, allocationID string) error
	// Release returns a reserved amount to the rule when enrollment aborts.
	Release(ctx context.Context, allocationID string) error
	// ReleaseFor releases by the (rule, program, user) business key. The
	// checkout expiry sweep uses this; expired checkouts carry the rule ID
	// but not the allocation ID.
	ReleaseFor(ctx context.Context, ruleID string, programID string, userID string) error
}

type Notification struct {
	UserID  string
	Type    string
	Title   string
	Message string
	Data    map[string]any
}

// Notifier is fire-and-forget with at-least-once delivery. Duplicate
// notifications are acceptable; a delivery failure never rolls back the
// enrollment that triggered it.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// NudgeEvaluator re-scores a creator's advisory nudges after state-changing
// events. Side-effect only; implementations swallow their own errors.
type NudgeEvaluator interface {
	Evaluate(ctx context.Context, creatorID string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
