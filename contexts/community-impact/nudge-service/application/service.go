package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/community-impact/nudge-service/ports"
)

// Advisory thresholds. A creator gets the paid-tier suggestion once their
// free catalog shows real traction; a program gets the almost-full notice
// when 80% of a set capacity is taken.
const (
	NudgeTypePaidTierReady = "paid_tier_ready"
	NudgeTypeAlmostFull    = "almost_full"

	paidTierMinPrograms     = 3
	paidTierMinParticipants = 20
	paidTierMinRating       = 4.0
	almostFullRatio         = 0.8
)

// Service evaluates advisory nudges for a creator. Evaluation is a
// side-effect of other services' writes and never fails loudly: errors are
// logged and the pass is skipped.
type Service struct {
	Stats    ports.CreatorStatsSource
	Log      ports.NudgeLog
	Notifier ports.Notifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (s Service) Evaluate(ctx context.Context, creatorID string) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return
	}

	stats, err := s.Stats.GetCreatorStats(ctx, creatorID)
	if err != nil {
		ResolveLogger(s.Logger).Warn("creator stats read failed",
			"event", "nudge_stats_read_failed",
			"module", "community-impact/nudge-service",
			"layer", "application",
			"creator_id", creatorID,
			"error", err.Error(),
		)
		return
	}

	s.evaluatePaidTier(ctx, stats)
	s.evaluateAlmostFull(ctx, stats)
}

func (s Service) evaluatePaidTier(ctx context.Context, stats ports.CreatorStats) {
	if stats.HasPaidProgram {
		return
	}
	if stats.PublishedPrograms < paidTierMinPrograms ||
		stats.TotalParticipants < paidTierMinParticipants ||
		stats.AverageRating < paidTierMinRating {
		return
	}
	s.fire(ctx, stats.CreatorID, NudgeTypePaidTierReady, stats.CreatorID, ports.Notification{
		UserID: stats.CreatorID,
		Type:   NudgeTypePaidTierReady,
		Title:  "Ready for paid programs",
		Message: fmt.Sprintf(
			"You have %d published programs, %d participants and a %.1f rating. Consider offering a paid program.",
			stats.PublishedPrograms, stats.TotalParticipants, stats.AverageRating),
		Data: map[string]any{
			"published_programs": stats.PublishedPrograms,
			"total_participants": stats.TotalParticipants,
			"average_rating":     stats.AverageRating,
		},
	})
}

func (s Service) evaluateAlmostFull(ctx context.Context, stats ports.CreatorStats) {
	for _, program := range stats.Programs {
		if !program.IsPublished || program.MaxCapacity == nil || *program.MaxCapacity <= 0 {
			continue
		}
		fill := float64(program.CurrentParticipants) / float64(*program.MaxCapacity)
		if fill < almostFullRatio {
			continue
		}
		s.fire(ctx, stats.CreatorID, NudgeTypeAlmostFull, program.ProgramID, ports.Notification{
			UserID: stats.CreatorID,
			Type:   NudgeTypeAlmostFull,
			Title:  "Program almost full",
			Message: fmt.Sprintf("%s has %d of %d spots taken.",
				program.Title, program.CurrentParticipants, *program.MaxCapacity),
			Data: map[string]any{
				"program_id":           program.ProgramID,
				"current_participants": program.CurrentParticipants,
				"max_capacity":         *program.MaxCapacity,
			},
		})
	}
}

// fire records the nudge and delivers it when this evaluation won the
// insert. Losing the insert means the nudge already went out.
func (s Service) fire(ctx context.Context, creatorID string, nudgeType string, subjectID string, note ports.Notification) {
	nudgeID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	won, err := s.Log.RecordNudge(ctx, ports.NudgeRecord{
		NudgeID:   nudgeID,
		CreatorID: creatorID,
		NudgeType: nudgeType,
		SubjectID: subjectID,
		CreatedAt: s.now(),
	})
	if err != nil {
		ResolveLogger(s.Logger).Warn("nudge record failed",
			"event", "nudge_record_failed",
			"module", "community-impact/nudge-service",
			"layer", "application",
			"creator_id", creatorID,
			"nudge_type", nudgeType,
			"error", err.Error(),
		)
		return
	}
	if !won {
		return
	}

	if err := s.Notifier.Notify(ctx, note); err != nil {
		ResolveLogger(s.Logger).Warn("nudge delivery failed",
			"event", "nudge_delivery_failed",
			"module", "community-impact/nudge-service",
			"layer", "application",
			"creator_id", creatorID,
			"nudge_type", nudgeType,
			"error", err.Error(),
		)
		return
	}
	ResolveLogger(s.Logger).Info("nudge delivered",
		"event", "nudge_delivered",
		"module", "community-impact/nudge-service",
		"layer", "application",
		"creator_id", creatorID,
		"nudge_type", nudgeType,
		"subject_id", subjectID,
	)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
