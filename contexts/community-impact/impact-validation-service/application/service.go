package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	domainerrors "wellagora/contexts/community-impact/impact-validation-service/domain/errors"
	"wellagora/contexts/community-impact/impact-validation-service/ports"
)

type Service struct {
	Challenges  ports.ChallengeRepository
	Completions ports.CompletionRepository
	Tips        ports.TipGenerator
	Notifier    ports.Notifier
	Nudges      ports.NudgeEvaluator
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	TipTimeout  time.Duration
	Logger      *slog.Logger
}

type CreateChallengeInput struct {
	CreatorID        string
	Title            string
	Category         string
	Method           string
	FactorKgPerUnit  float64
	FixedImpactKg    float64
	BasePoints       int
	BonusMultipliers map[string]float64
}

func (s Service) CreateChallenge(ctx context.Context, input CreateChallengeInput) (entities.ChallengeDefinition, error) {
	category := entities.Category(strings.TrimSpace(input.Category))
	if !category.Valid() || strings.TrimSpace(input.Title) == "" {
		return entities.ChallengeDefinition{}, domainerrors.ErrInvalidChallenge
	}
	method := entities.CalculationMethod(strings.TrimSpace(input.Method))
	switch method {
	case entities.MethodDistanceKm, entities.MethodUnitCount, entities.MethodVolumeLiters:
		if input.FactorKgPerUnit <= 0 {
			return entities.ChallengeDefinition{}, domainerrors.ErrInvalidChallenge
		}
	case entities.MethodFixed:
	default:
		return entities.ChallengeDefinition{}, domainerrors.ErrInvalidChallenge
	}
	if input.BasePoints <= 0 {
		return entities.ChallengeDefinition{}, domainerrors.ErrInvalidChallenge
	}

	challengeID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.ChallengeDefinition{}, err
	}
	multipliers := make(map[entities.EvidenceTier]float64, len(input.BonusMultipliers))
	for tier, multiplier := range input.BonusMultipliers {
		key := entities.EvidenceTier(strings.TrimSpace(tier))
		if !key.Valid() || multiplier <= 0 {
			return entities.ChallengeDefinition{}, domainerrors.ErrInvalidChallenge
		}
		multipliers[key] = multiplier
	}

	challenge := entities.ChallengeDefinition{
		ChallengeID:      challengeID,
		CreatorID:        strings.TrimSpace(input.CreatorID),
		Title:            strings.TrimSpace(input.Title),
		Category:         category,
		Method:           method,
		FactorKgPerUnit:  input.FactorKgPerUnit,
		FixedImpactKg:    input.FixedImpactKg,
		BasePoints:       input.BasePoints,
		BonusMultipliers: multipliers,
		CreatedAt:        s.now(),
	}
	if err := s.Challenges.CreateChallenge(ctx, challenge); err != nil {
		return entities.ChallengeDefinition{}, err
	}
	ResolveLogger(s.Logger).Info("challenge created",
		"event", "challenge_created",
		"module", "community-impact/impact-validation-service",
		"layer", "application",
		"challenge_id", challengeID,
		"category", string(category),
	)
	return challenge, nil
}

func (s Service) GetChallenge(ctx context.Context, challengeID string) (entities.ChallengeDefinition, error) {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return entities.ChallengeDefinition{}, domainerrors.ErrInvalidInput
	}
	return s.Challenges.GetChallenge(ctx, challengeID)
}

func (s Service) ListChallenges(ctx context.Context, category string) ([]entities.ChallengeDefinition, error) {
	return s.Challenges.ListChallenges(ctx, strings.TrimSpace(category))
}

// SubmitCompletion runs the validation pipeline: impact from the challenge's
// calculation method, confidence from the evidence tier, tier bonus applied
// before rounding, points from the base award scaled by confidence. Rounding
// happens once at the end. Every submission creates a new record; repeat
// attempts of the same challenge accumulate.
func (s Service) SubmitCompletion(ctx context.Context, report entities.CompletionReport) (entities.Completion, error) {
	userID := strings.TrimSpace(report.UserID)
	challengeID := strings.TrimSpace(report.ChallengeID)
	if userID == "" || challengeID == "" {
		return entities.Completion{}, domainerrors.ErrInvalidReport
	}
	tier := report.Tier
	if tier == "" {
		tier = entities.TierManual
	}
	if !tier.Valid() {
		return entities.Completion{}, domainerrors.ErrInvalidReport
	}

	challenge, err := s.Challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return entities.Completion{}, err
	}

	impact := entities.RawImpact(challenge, report.Measurement)
	impact *= challenge.BonusMultiplier(tier)
	score := tier.Score()

	impactKg := entities.Round2(impact)
	points := int(math.Round(float64(challenge.BasePoints) * score))
	status := entities.CompletionStatusPending
	if score > entities.ValidationThreshold {
		status = entities.CompletionStatusValidated
	}

	now := s.now()
	completionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Completion{}, err
	}
	recordID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Completion{}, err
	}

	completion := entities.Completion{
		CompletionID:    completionID,
		ChallengeID:     challengeID,
		UserID:          userID,
		Category:        challenge.Category,
		Tier:            tier,
		ImpactKg:        impactKg,
		ValidationScore: score,
		PointsEarned:    points,
		Status:          status,
		Feedback:        s.buildFeedback(ctx, challenge, tier, impactKg),
		EvidenceURL:     strings.TrimSpace(report.EvidenceURL),
		Notes:           strings.TrimSpace(report.Notes),
		CreatedAt:       now,
	}
	record := entities.ImpactRecord{
		RecordID:     recordID,
		CompletionID: completionID,
		UserID:       userID,
		Category:     challenge.Category,
		AmountKg:     impactKg,
		Points:       points,
		Confidence:   score,
		CreatedAt:    now,
	}
	if err := s.Completions.CreateCompletion(ctx, completion, record); err != nil {
		return entities.Completion{}, err
	}

	s.emitCompletionRecorded(ctx, completion, now)
	s.notifyCompletion(ctx, completion, challenge)
	if s.Nudges != nil && challenge.CreatorID != "" {
		s.Nudges.Evaluate(ctx, challenge.CreatorID)
	}

	ResolveLogger(s.Logger).Info("completion recorded",
		"event", "completion_recorded",
		"module", "community-impact/impact-validation-service",
		"layer", "application",
		"completion_id", completionID,
		"challenge_id", challengeID,
		"user_id", userID,
		"impact_kg", impactKg,
		"points", points,
		"status", string(status),
	)
	return completion, nil
}

func (s Service) ListCompletions(ctx context.Context, userID string, limit int, offset int) ([]entities.Completion, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Completions.ListCompletionsByUser(ctx, userID, limit, offset)
}

// Handprint aggregates the user's impact records for the current calendar
// month.
func (s Service) Handprint(ctx context.Context, userID string) (entities.Handprint, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Handprint{}, domainerrors.ErrInvalidInput
	}

	now := s.now()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	records, err := s.Completions.ListImpactRecords(ctx, userID, periodStart, periodEnd)
	if err != nil {
		return entities.Handprint{}, err
	}

	result := entities.Handprint{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		ByCategory:  make(map[entities.Category]float64),
	}
	var totalCO2 float64
	for _, record := range records {
		result.ByCategory[record.Category] += record.AmountKg
		totalCO2 += record.AmountKg
		result.TotalPoints += record.Points
		result.ActivityCount++
	}
	for category, amount := range result.ByCategory {
		result.ByCategory[category] = entities.Round2(amount)
	}
	result.TotalCO2Kg = entities.Round2(totalCO2)
	result.TreesEquivalent = int(math.Round(result.TotalCO2Kg / entities.KgPerTree))
	result.Rank = entities.RankFor(result.TotalPoints)
	return result, nil
}

func (s Service) buildFeedback(ctx context.Context, challenge entities.ChallengeDefinition, tier entities.EvidenceTier, impactKg float64) string {
	feedback := tierFeedback(tier)
	if s.Tips == nil {
		return feedback
	}

	timeout := s.TipTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	tipCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tip, err := s.Tips.GenerateTip(tipCtx, string(challenge.Category), impactKg)
	if err != nil {
		ResolveLogger(s.Logger).Warn("tip generation skipped",
			"event", "tip_generation_skipped",
			"module", "community-impact/impact-validation-service",
			"layer", "application",
			"challenge_id", challenge.ChallengeID,
			"error", err.Error(),
		)
		return feedback
	}
	if tip = strings.TrimSpace(tip); tip != "" {
		feedback += " Tip: " + tip
	}
	return feedback
}

func tierFeedback(tier entities.EvidenceTier) string {
	switch tier {
	case entities.TierPhoto:
		return "Photo evidence accepted; your completion is validated."
	case entities.TierAPIVerified:
		return "Automatically verified from connected data."
	case entities.TierPeerVerified:
		return "Confirmed by your peers; your completion is validated."
	default:
		return "Self-reported completion logged. Add evidence next time to raise your confidence score."
	}
}

func (s Service) emitCompletionRecorded(ctx context.Context, completion entities.Completion, now time.Time) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"completion_id":    completion.CompletionID,
		"challenge_id":     completion.ChallengeID,
		"user_id":          completion.UserID,
		"category":         string(completion.Category),
		"impact_kg":        completion.ImpactKg,
		"points_earned":    completion.PointsEarned,
		"validation_score": completion.ValidationScore,
		"status":           string(completion.Status),
	})
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "impact.completion_recorded",
		OccurredAt:       now.UTC(),
		SourceService:    "impact-validation-service",
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     completion.UserID,
		Data:             payload,
	}
	if err := s.Outbox.AppendOutbox(ctx, envelope); err != nil {
		ResolveLogger(s.Logger).Warn("impact outbox append failed",
			"event", "impact_outbox_append_failed",
			"module", "community-impact/impact-validation-service",
			"layer", "application",
			"completion_id", completion.CompletionID,
			"error", err.Error(),
		)
	}
}

func (s Service) notifyCompletion(ctx context.Context, completion entities.Completion, challenge entities.ChallengeDefinition) {
	if s.Notifier == nil {
		return
	}
	note := ports.Notification{
		UserID:  completion.UserID,
		Type:    "impact_recorded",
		Title:   "Impact recorded",
		Message: challenge.Title + " logged",
		Data: map[string]any{
			"completion_id": completion.CompletionID,
			"impact_kg":     completion.ImpactKg,
			"points":        completion.PointsEarned,
			"status":        string(completion.Status),
		},
	}
	if err := s.Notifier.Notify(ctx, note); err != nil {
		ResolveLogger(s.Logger).Warn("completion notification failed",
			"event", "completion_notification_failed",
			"module", "community-impact/impact-validation-service",
			"layer", "application",
			"completion_id", completion.CompletionID,
			"error", err.Error(),
		)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
