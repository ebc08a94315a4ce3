package entities

import (
	"math"
	"time"
)

type CompletionStatus string

const (
	CompletionStatusValidated CompletionStatus = "validated"
	CompletionStatusPending   CompletionStatus = "pending"
)

// ValidationThreshold is the confidence above which a completion counts as
// validated without review.
const ValidationThreshold = 0.7

// Measurement is the self-reported quantity behind a completion. Zero values
// mean "not provided" and fall back to the method default.
type Measurement struct {
	DistanceKm   float64
	UnitCount    float64
	VolumeLiters float64
}

type CompletionReport struct {
	UserID      string
	ChallengeID string
	Tier        EvidenceTier
	Measurement Measurement
	EvidenceURL string
	Notes       string
}

// Completion is one validated-or-pending challenge completion. Re-attempting
// the same challenge creates a new independent record.
type Completion struct {
	CompletionID    string
	ChallengeID     string
	UserID          string
	Category        Category
	Tier            EvidenceTier
	ImpactKg        float64
	ValidationScore float64
	PointsEarned    int
	Status          CompletionStatus
	Feedback        string
	EvidenceURL     string
	Notes           string
	CreatedAt       time.Time
}

// ImpactRecord is the denormalized 1:1 projection of a completion used by
// handprint aggregation.
type ImpactRecord struct {
	RecordID     string
	CompletionID string
	UserID       string
	Category     Category
	AmountKg     float64
	Points       int
	Confidence   float64
	CreatedAt    time.Time
}

// RawImpact converts a measurement to kilograms of CO2 for the challenge's
// calculation method, substituting defaults for missing figures.
func RawImpact(challenge ChallengeDefinition, measurement Measurement) float64 {
	switch challenge.Method {
	case MethodDistanceKm:
		distance := measurement.DistanceKm
		if distance <= 0 {
			distance = DefaultDistanceKm
		}
		return distance * challenge.FactorKgPerUnit
	case MethodUnitCount:
		count := measurement.UnitCount
		if count <= 0 {
			count = DefaultUnitCount
		}
		return count * challenge.FactorKgPerUnit
	case MethodVolumeLiters:
		volume := measurement.VolumeLiters
		if volume <= 0 {
			volume = DefaultVolumeLiters
		}
		return volume * challenge.FactorKgPerUnit
	default:
		if challenge.FixedImpactKg > 0 {
			return challenge.FixedImpactKg
		}
		return DefaultFixedKg
	}
}

// Round2 rounds to two decimals, the precision impact figures carry.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// KgPerTree is the absorption figure a mature tree accounts for per year,
// used by the handprint trees-equivalent stat.
const KgPerTree = 21.77

type Handprint struct {
	UserID          string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	ByCategory      map[Category]float64
	TotalCO2Kg      float64
	TotalPoints     int
	ActivityCount   int
	TreesEquivalent int
	Rank            string
}

// RankFor maps lifetime-month points to the public handprint rank.
func RankFor(points int) string {
	switch {
	case points > 1000:
		return "Sustainability Hero"
	case points > 500:
		return "Environmental Champion"
	case points > 200:
		return "Green Activist"
	case points > 50:
		return "Eco Warrior"
	default:
		return "Beginner"
	}
}
