package ports

import (
	"context"
	"time"
)

// CreatorProgramStats is one program in a creator's catalog, reduced to the
// fields the nudge thresholds read.
type CreatorProgramStats struct {
	ProgramID           string
	Title               string
	PriceHUF            int64
	MaxCapacity         *int
	CurrentParticipants int
	IsPublished         bool
	AverageRating       float64
}

type CreatorStats struct {
	CreatorID         string
	PublishedPrograms int
	TotalParticipants int
	AverageRating     float64
	HasPaidProgram    bool
	Programs          []CreatorProgramStats
}

// CreatorStatsSource aggregates a creator's catalog. Backed by the
// enrollment repository at runtime.
type CreatorStatsSource interface {
	GetCreatorStats(ctx context.Context, creatorID string) (CreatorStats, error)
}

type NudgeRecord struct {
	NudgeID   string
	CreatorID string
	NudgeType string
	SubjectID string
	CreatedAt time.Time
}

// NudgeLog is the once-only guard. RecordNudge is insert-if-absent on the
// (creator, type, subject) key and reports whether this call won the insert.
type NudgeLog interface {
	RecordNudge(ctx context.Context, record NudgeRecord) (bool, error)
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
