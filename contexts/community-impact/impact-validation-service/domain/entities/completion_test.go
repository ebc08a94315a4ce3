package entities

import "testing"

func TestRawImpactDefaults(t *testing.T) {
	cases := []struct {
		name      string
		challenge ChallengeDefinition
		want      float64
	}{
		{"distance default", ChallengeDefinition{Method: MethodDistanceKm, FactorKgPerUnit: 0.25}, 2.5},
		{"unit default", ChallengeDefinition{Method: MethodUnitCount, FactorKgPerUnit: 0.5}, 0.5},
		{"volume default", ChallengeDefinition{Method: MethodVolumeLiters, FactorKgPerUnit: 0.125}, 62.5},
		{"fixed declared", ChallengeDefinition{Method: MethodFixed, FixedImpactKg: 3.5}, 3.5},
		{"fixed fallback", ChallengeDefinition{Method: MethodFixed}, 5.0},
	}
	for _, tc := range cases {
		if got := RawImpact(tc.challenge, Measurement{}); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestRawImpactReportedMeasurement(t *testing.T) {
	challenge := ChallengeDefinition{Method: MethodDistanceKm, FactorKgPerUnit: 0.25}
	if got := RawImpact(challenge, Measurement{DistanceKm: 30}); got != 7.5 {
		t.Fatalf("expected 7.5, got %v", got)
	}
}

func TestRankForBoundaries(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, "Beginner"},
		{50, "Beginner"},
		{51, "Eco Warrior"},
		{200, "Eco Warrior"},
		{201, "Green Activist"},
		{500, "Green Activist"},
		{501, "Environmental Champion"},
		{1000, "Environmental Champion"},
		{1001, "Sustainability Hero"},
	}
	for _, tc := range cases {
		if got := RankFor(tc.points); got != tc.want {
			t.Fatalf("%d points: expected %s, got %s", tc.points, tc.want, got)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(0.1365); got != 0.14 {
		t.Fatalf("expected 0.14, got %v", got)
	}
	if got := Round2(2.004); got != 2.0 {
		t.Fatalf("expected 2.0, got %v", got)
	}
}
