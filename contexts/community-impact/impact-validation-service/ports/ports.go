package ports

import (
	"context"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	contractsv1 "wellagora/contracts/gen/events/v1"
)

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, challenge entities.ChallengeDefinition) error
	GetChallenge(ctx context.Context, challengeID string) (entities.ChallengeDefinition, error)
	ListChallenges(ctx context.Context, category string) ([]entities.ChallengeDefinition, error)
}

type CompletionRepository interface {
	// CreateCompletion persists the completion and its impact record
	// projection in one atomic unit.
	CreateCompletion(ctx context.Context, completion entities.Completion, record entities.ImpactRecord) error
	ListCompletionsByUser(ctx context.Context, userID string, limit int, offset int) ([]entities.Completion, error)
	// ListImpactRecords returns records for the user in [from, to).
	ListImpactRecords(ctx context.Context, userID string, from time.Time, to time.Time) ([]entities.ImpactRecord, error)
}

// TipGenerator produces an optional coaching sentence for a validated
// completion. Best-effort: callers bound it with a timeout and drop the tip
// on any failure.
type TipGenerator interface {
	GenerateTip(ctx context.Context, category string, impactKg float64) (string, error)
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

// NudgeEvaluator re-scores a creator's advisory nudges after a completion
// lands. Side-effect only; implementations swallow their own errors.
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

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}
