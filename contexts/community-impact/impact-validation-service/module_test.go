package impactvalidationservice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	impactvalidationservice "wellagora/contexts/community-impact/impact-validation-service"
	"wellagora/contexts/community-impact/impact-validation-service/application"
	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	domainerrors "wellagora/contexts/community-impact/impact-validation-service/domain/errors"
)

type stubTips struct {
	tip  string
	err  error
	wait bool
}

func (s stubTips) GenerateTip(ctx context.Context, _ string, _ float64) (string, error) {
	if s.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.tip, s.err
}

func newModule(tips *stubTips) impactvalidationservice.Module {
	deps := impactvalidationservice.Dependencies{TipTimeout: 50 * time.Millisecond}
	if tips != nil {
		deps.Tips = *tips
	}
	return impactvalidationservice.NewInMemoryModule(nil, deps, nil)
}

func bikeChallenge(t *testing.T, module impactvalidationservice.Module) entities.ChallengeDefinition {
	t.Helper()
	challenge, err := module.Service.CreateChallenge(context.Background(), application.CreateChallengeInput{
		CreatorID:       "creator-1",
		Title:           "Bike to work",
		Category:        "transport",
		Method:          "distance_km",
		FactorKgPerUnit: 0.21,
		BasePoints:      100,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}
	return challenge
}

func TestCreateChallengeValidation(t *testing.T) {
	module := newModule(nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input application.CreateChallengeInput
	}{
		{"bad category", application.CreateChallengeInput{Title: "x", Category: "space", Method: "fixed", BasePoints: 10}},
		{"bad method", application.CreateChallengeInput{Title: "x", Category: "waste", Method: "teleport", BasePoints: 10}},
		{"missing factor", application.CreateChallengeInput{Title: "x", Category: "waste", Method: "unit_count", BasePoints: 10}},
		{"zero base points", application.CreateChallengeInput{Title: "x", Category: "waste", Method: "fixed"}},
		{"bad multiplier tier", application.CreateChallengeInput{
			Title: "x", Category: "waste", Method: "fixed", BasePoints: 10,
			BonusMultipliers: map[string]float64{"hologram": 2},
		}},
	}
	for _, tc := range cases {
		if _, err := module.Service.CreateChallenge(ctx, tc.input); !errors.Is(err, domainerrors.ErrInvalidChallenge) {
			t.Fatalf("%s: expected invalid challenge, got %v", tc.name, err)
		}
	}
}

func TestSubmitCompletionTierScoring(t *testing.T) {
	module := newModule(nil)
	challenge := bikeChallenge(t, module)
	ctx := context.Background()

	cases := []struct {
		tier       entities.EvidenceTier
		wantScore  float64
		wantPoints int
		wantStatus entities.CompletionStatus
	}{
		{entities.TierManual, 0.6, 60, entities.CompletionStatusPending},
		{entities.TierPhoto, 0.85, 85, entities.CompletionStatusValidated},
		{entities.TierAPIVerified, 0.95, 95, entities.CompletionStatusValidated},
		{entities.TierPeerVerified, 0.80, 80, entities.CompletionStatusValidated},
	}
	for i, tc := range cases {
		completion, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
			UserID:      "user-" + string(rune('a'+i)),
			ChallengeID: challenge.ChallengeID,
			Tier:        tc.tier,
			Measurement: entities.Measurement{DistanceKm: 20},
		})
		if err != nil {
			t.Fatalf("%s submit failed: %v", tc.tier, err)
		}
		if completion.ValidationScore != tc.wantScore {
			t.Fatalf("%s: expected score %v, got %v", tc.tier, tc.wantScore, completion.ValidationScore)
		}
		if completion.PointsEarned != tc.wantPoints {
			t.Fatalf("%s: expected %d points, got %d", tc.tier, tc.wantPoints, completion.PointsEarned)
		}
		if completion.Status != tc.wantStatus {
			t.Fatalf("%s: expected status %s, got %s", tc.tier, tc.wantStatus, completion.Status)
		}
		if completion.ImpactKg != 4.2 {
			t.Fatalf("%s: expected 4.2 kg, got %v", tc.tier, completion.ImpactKg)
		}
	}
}

func TestSubmitCompletionMeasurementDefaults(t *testing.T) {
	module := newModule(nil)
	challenge := bikeChallenge(t, module)
	ctx := context.Background()

	// No distance reported: the 10 km default applies.
	completion, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if completion.ImpactKg != 2.1 {
		t.Fatalf("expected default-distance impact 2.1, got %v", completion.ImpactKg)
	}
	if completion.Tier != entities.TierManual {
		t.Fatalf("expected manual tier default, got %s", completion.Tier)
	}
}

func TestSubmitCompletionBonusBeforeRounding(t *testing.T) {
	module := newModule(nil)
	ctx := context.Background()

	challenge, err := module.Service.CreateChallenge(ctx, application.CreateChallengeInput{
		CreatorID:        "creator-1",
		Title:            "Short ride",
		Category:         "transport",
		Method:           "distance_km",
		FactorKgPerUnit:  0.105,
		BasePoints:       100,
		BonusMultipliers: map[string]float64{"photo": 1.3},
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	completion, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
		Tier:        entities.TierPhoto,
		Measurement: entities.Measurement{DistanceKm: 1},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// 0.105 * 1.3 = 0.1365, rounded once at the end.
	if completion.ImpactKg != 0.14 {
		t.Fatalf("expected 0.14 kg, got %v", completion.ImpactKg)
	}
}

func TestSubmitCompletionUnknownChallenge(t *testing.T) {
	module := newModule(nil)

	_, err := module.Service.SubmitCompletion(context.Background(), entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: "missing",
	})
	if !errors.Is(err, domainerrors.ErrChallengeNotFound) {
		t.Fatalf("expected challenge not found, got %v", err)
	}
}

func TestTipAppendedToFeedback(t *testing.T) {
	module := newModule(&stubTips{tip: "Take the bus twice a week."})
	challenge := bikeChallenge(t, module)

	completion, err := module.Service.SubmitCompletion(context.Background(), entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
		Tier:        entities.TierPhoto,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.HasSuffix(completion.Feedback, "Tip: Take the bus twice a week.") {
		t.Fatalf("expected tip appended, got %q", completion.Feedback)
	}
}

func TestTipFailureDegradesToTierFeedback(t *testing.T) {
	for name, tips := range map[string]*stubTips{
		"error":   {err: errors.New("inference unavailable")},
		"timeout": {wait: true},
	} {
		module := newModule(tips)
		challenge := bikeChallenge(t, module)

		completion, err := module.Service.SubmitCompletion(context.Background(), entities.CompletionReport{
			UserID:      "user-1",
			ChallengeID: challenge.ChallengeID,
			Tier:        entities.TierPhoto,
		})
		if err != nil {
			t.Fatalf("%s: submit must not fail on tip trouble: %v", name, err)
		}
		if completion.Feedback == "" || strings.Contains(completion.Feedback, "Tip:") {
			t.Fatalf("%s: expected plain tier feedback, got %q", name, completion.Feedback)
		}
		if completion.Status != entities.CompletionStatusValidated {
			t.Fatalf("%s: validation must not depend on tips", name)
		}
	}
}

func TestRepeatAttemptsAccumulate(t *testing.T) {
	module := newModule(nil)
	challenge := bikeChallenge(t, module)
	ctx := context.Background()

	first, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
	})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
	})
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if first.CompletionID == second.CompletionID {
		t.Fatalf("repeat attempts must create new records")
	}

	items, err := module.Service.ListCompletions(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(items))
	}
}

func TestCompletionEmitsEventAndNotification(t *testing.T) {
	module := newModule(nil)
	challenge := bikeChallenge(t, module)

	completion, err := module.Service.SubmitCompletion(context.Background(), entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: challenge.ChallengeID,
		Tier:        entities.TierPhoto,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	outbox := module.Store.Outbox()
	if len(outbox) != 1 || outbox[0].EventType != "impact.completion_recorded" {
		t.Fatalf("expected one impact.completion_recorded envelope, got %+v", outbox)
	}
	if outbox[0].PartitionKey != "user-1" {
		t.Fatalf("expected partition key user-1, got %s", outbox[0].PartitionKey)
	}

	notes := module.Store.Notifications()
	if len(notes) != 1 || notes[0].Type != "impact_recorded" {
		t.Fatalf("expected one impact_recorded notification, got %+v", notes)
	}
	if notes[0].Data["completion_id"] != completion.CompletionID {
		t.Fatalf("notification must reference the completion")
	}
}

func TestHandprintAggregation(t *testing.T) {
	module := newModule(nil)
	ctx := context.Background()

	bike, err := module.Service.CreateChallenge(ctx, application.CreateChallengeInput{
		CreatorID:       "creator-1",
		Title:           "Bike commute month",
		Category:        "transport",
		Method:          "distance_km",
		FactorKgPerUnit: 0.21,
		BasePoints:      100,
	})
	if err != nil {
		t.Fatalf("create bike challenge failed: %v", err)
	}
	recycle, err := module.Service.CreateChallenge(ctx, application.CreateChallengeInput{
		CreatorID:       "creator-1",
		Title:           "Recycle bottles",
		Category:        "waste",
		Method:          "unit_count",
		FactorKgPerUnit: 0.5,
		BasePoints:      100,
	})
	if err != nil {
		t.Fatalf("create recycle challenge failed: %v", err)
	}

	if _, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: bike.ChallengeID,
		Tier:        entities.TierPhoto,
		Measurement: entities.Measurement{DistanceKm: 300},
	}); err != nil {
		t.Fatalf("bike submit failed: %v", err)
	}
	if _, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-1",
		ChallengeID: recycle.ChallengeID,
		Measurement: entities.Measurement{UnitCount: 4},
	}); err != nil {
		t.Fatalf("recycle submit failed: %v", err)
	}
	// Another user's records stay out of the aggregate.
	if _, err := module.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      "user-2",
		ChallengeID: recycle.ChallengeID,
	}); err != nil {
		t.Fatalf("other user submit failed: %v", err)
	}

	handprint, err := module.Service.Handprint(ctx, "user-1")
	if err != nil {
		t.Fatalf("handprint failed: %v", err)
	}
	if handprint.ByCategory[entities.CategoryTransport] != 63.0 {
		t.Fatalf("expected 63.0 transport kg, got %v", handprint.ByCategory[entities.CategoryTransport])
	}
	if handprint.ByCategory[entities.CategoryWaste] != 2.0 {
		t.Fatalf("expected 2.0 waste kg, got %v", handprint.ByCategory[entities.CategoryWaste])
	}
	if handprint.TotalCO2Kg != 65.0 {
		t.Fatalf("expected 65.0 total kg, got %v", handprint.TotalCO2Kg)
	}
	if handprint.ActivityCount != 2 {
		t.Fatalf("expected 2 activities, got %d", handprint.ActivityCount)
	}
	// 65.0 / 21.77 rounds to 3 trees.
	if handprint.TreesEquivalent != 3 {
		t.Fatalf("expected 3 trees, got %d", handprint.TreesEquivalent)
	}
	// 85 + 60 points put the month in the Eco Warrior band.
	if handprint.TotalPoints != 145 || handprint.Rank != "Eco Warrior" {
		t.Fatalf("unexpected points/rank: %d %s", handprint.TotalPoints, handprint.Rank)
	}
	if !handprint.PeriodStart.Equal(time.Date(handprint.PeriodStart.Year(), handprint.PeriodStart.Month(), 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("period must start on the first of the month")
	}
}
