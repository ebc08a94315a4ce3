package entities

import "time"

type Category string

const (
	CategoryTransport Category = "transport"
	CategoryEnergy    Category = "energy"
	CategoryWaste     Category = "waste"
	CategoryWater     Category = "water"
	CategoryCommunity Category = "community"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryEnergy, CategoryWaste, CategoryWater, CategoryCommunity:
		return true
	}
	return false
}

type CalculationMethod string

const (
	MethodDistanceKm   CalculationMethod = "distance_km"
	MethodUnitCount    CalculationMethod = "unit_count"
	MethodVolumeLiters CalculationMethod = "volume_liters"
	MethodFixed        CalculationMethod = "fixed"
)

// Measurement defaults for reports that omit the relevant figure. A missing
// measurement is estimated, never rejected.
const (
	DefaultDistanceKm   = 10.0
	DefaultUnitCount    = 1.0
	DefaultVolumeLiters = 500.0
	DefaultFixedKg      = 5.0
)

type EvidenceTier string

const (
	TierManual       EvidenceTier = "manual"
	TierPhoto        EvidenceTier = "photo"
	TierAPIVerified  EvidenceTier = "api_verified"
	TierPeerVerified EvidenceTier = "peer_verified"
)

// Score maps the evidence tier to its validation confidence.
func (t EvidenceTier) Score() float64 {
	switch t {
	case TierPhoto:
		return 0.85
	case TierAPIVerified:
		return 0.95
	case TierPeerVerified:
		return 0.80
	default:
		return 0.6
	}
}

func (t EvidenceTier) Valid() bool {
	switch t {
	case TierManual, TierPhoto, TierAPIVerified, TierPeerVerified:
		return true
	}
	return false
}

// ChallengeDefinition describes how completions of one challenge convert to
// CO2 impact and points.
type ChallengeDefinition struct {
	ChallengeID      string
	CreatorID        string
	Title            string
	Category         Category
	Method           CalculationMethod
	FactorKgPerUnit  float64
	FixedImpactKg    float64
	BasePoints       int
	BonusMultipliers map[EvidenceTier]float64
	CreatedAt        time.Time
}

// BonusMultiplier returns the tier's declared multiplier, or 1 when none.
func (c ChallengeDefinition) BonusMultiplier(tier EvidenceTier) float64 {
	if multiplier, ok := c.BonusMultipliers[tier]; ok && multiplier > 0 {
		return multiplier
	}
	return 1
}
