package nudgeservice_test

import (
	"context"
	"errors"
	"testing"

	nudgeservice "wellagora/contexts/community-impact/nudge-service"
	"wellagora/contexts/community-impact/nudge-service/ports"
)

type stubStats struct {
	stats ports.CreatorStats
	err   error
}

func (s stubStats) GetCreatorStats(_ context.Context, _ string) (ports.CreatorStats, error) {
	return s.stats, s.err
}

func intPtr(v int) *int { return &v }

func readyCreator() ports.CreatorStats {
	return ports.CreatorStats{
		CreatorID:         "creator-1",
		PublishedPrograms: 3,
		TotalParticipants: 20,
		AverageRating:     4.0,
	}
}

func notificationsOfType(module nudgeservice.Module, nudgeType string) int {
	count := 0
	for _, note := range module.Store.Notifications() {
		if note.Type == nudgeType {
			count++
		}
	}
	return count
}

func TestPaidTierNudgeFiresOnce(t *testing.T) {
	module := nudgeservice.NewInMemoryModule(stubStats{stats: readyCreator()}, nil)
	ctx := context.Background()

	module.Service.Evaluate(ctx, "creator-1")
	module.Service.Evaluate(ctx, "creator-1")

	if got := notificationsOfType(module, "paid_tier_ready"); got != 1 {
		t.Fatalf("expected exactly one paid_tier_ready nudge, got %d", got)
	}
}

func TestPaidTierNudgeThresholds(t *testing.T) {
	below := func(mutate func(*ports.CreatorStats)) ports.CreatorStats {
		stats := readyCreator()
		mutate(&stats)
		return stats
	}

	cases := []struct {
		name  string
		stats ports.CreatorStats
	}{
		{"too few programs", below(func(s *ports.CreatorStats) { s.PublishedPrograms = 2 })},
		{"too few participants", below(func(s *ports.CreatorStats) { s.TotalParticipants = 19 })},
		{"rating too low", below(func(s *ports.CreatorStats) { s.AverageRating = 3.9 })},
		{"already has paid program", below(func(s *ports.CreatorStats) { s.HasPaidProgram = true })},
	}
	for _, tc := range cases {
		module := nudgeservice.NewInMemoryModule(stubStats{stats: tc.stats}, nil)
		module.Service.Evaluate(context.Background(), "creator-1")
		if got := notificationsOfType(module, "paid_tier_ready"); got != 0 {
			t.Fatalf("%s: nudge must not fire, got %d", tc.name, got)
		}
	}
}

func TestAlmostFullNudgePerProgram(t *testing.T) {
	stats := readyCreator()
	stats.HasPaidProgram = true
	stats.Programs = []ports.CreatorProgramStats{
		{ProgramID: "prog-1", Title: "Composting basics", MaxCapacity: intPtr(10), CurrentParticipants: 8, IsPublished: true},
		{ProgramID: "prog-2", Title: "River cleanup", MaxCapacity: intPtr(10), CurrentParticipants: 7, IsPublished: true},
		{ProgramID: "prog-3", Title: "Draft walk", MaxCapacity: intPtr(10), CurrentParticipants: 10, IsPublished: false},
		{ProgramID: "prog-4", Title: "Open meetup", CurrentParticipants: 100, IsPublished: true},
	}
	module := nudgeservice.NewInMemoryModule(stubStats{stats: stats}, nil)
	ctx := context.Background()

	module.Service.Evaluate(ctx, "creator-1")
	module.Service.Evaluate(ctx, "creator-1")

	// Only prog-1 crosses 80% while published with a set capacity, and only
	// once across repeat evaluations.
	if got := notificationsOfType(module, "almost_full"); got != 1 {
		t.Fatalf("expected exactly one almost_full nudge, got %d", got)
	}
	note := module.Store.Notifications()[0]
	if note.Data["program_id"] != "prog-1" {
		t.Fatalf("expected nudge for prog-1, got %v", note.Data["program_id"])
	}
}

func TestEvaluateSwallowsStatsErrors(t *testing.T) {
	module := nudgeservice.NewInMemoryModule(stubStats{err: errors.New("stats source down")}, nil)

	module.Service.Evaluate(context.Background(), "creator-1")

	if got := len(module.Store.Notifications()); got != 0 {
		t.Fatalf("expected no notifications on stats failure, got %d", got)
	}
}

func TestEvaluateIgnoresBlankCreator(t *testing.T) {
	module := nudgeservice.NewInMemoryModule(stubStats{stats: readyCreator()}, nil)

	module.Service.Evaluate(context.Background(), "   ")

	if got := len(module.Store.Notifications()); got != 0 {
		t.Fatalf("expected no notifications for blank creator, got %d", got)
	}
}
