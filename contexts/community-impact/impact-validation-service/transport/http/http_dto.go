package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateChallengeRequest struct {
	CreatorID        string             `json:"creator_id"`
	Title            string             `json:"title"`
	Category         string             `json:"category"`
	Method           string             `json:"method"`
	FactorKgPerUnit  float64            `json:"factor_kg_per_unit"`
	FixedImpactKg    float64            `json:"fixed_impact_kg"`
	BasePoints       int                `json:"base_points"`
	BonusMultipliers map[string]float64 `json:"bonus_multipliers"`
}

type ChallengeDTO struct {
	ChallengeID      string             `json:"challenge_id"`
	CreatorID        string             `json:"creator_id,omitempty"`
	Title            string             `json:"title"`
	Category         string             `json:"category"`
	Method           string             `json:"method"`
	FactorKgPerUnit  float64            `json:"factor_kg_per_unit,omitempty"`
	FixedImpactKg    float64            `json:"fixed_impact_kg,omitempty"`
	BasePoints       int                `json:"base_points"`
	BonusMultipliers map[string]float64 `json:"bonus_multipliers,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

type CreateChallengeResponse struct {
	Challenge ChallengeDTO `json:"challenge"`
}

type ListChallengesResponse struct {
	Items []ChallengeDTO `json:"items"`
}

type SubmitCompletionRequest struct {
	UserID       string  `json:"user_id"`
	EvidenceTier string  `json:"evidence_tier"`
	DistanceKm   float64 `json:"distance_km"`
	UnitCount    float64 `json:"unit_count"`
	VolumeLiters float64 `json:"volume_liters"`
	EvidenceURL  string  `json:"evidence_url"`
	Notes        string  `json:"notes"`
}

type CompletionDTO struct {
	CompletionID    string  `json:"completion_id"`
	ChallengeID     string  `json:"challenge_id"`
	UserID          string  `json:"user_id"`
	Category        string  `json:"category"`
	EvidenceTier    string  `json:"evidence_tier"`
	ImpactKg        float64 `json:"impact_kg"`
	ValidationScore float64 `json:"validation_score"`
	PointsEarned    int     `json:"points_earned"`
	Status          string  `json:"status"`
	Feedback        string  `json:"feedback,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type SubmitCompletionResponse struct {
	Completion CompletionDTO `json:"completion"`
}

type ListCompletionsResponse struct {
	Items []CompletionDTO `json:"items"`
}

type HandprintResponse struct {
	UserID          string             `json:"user_id"`
	PeriodStart     string             `json:"period_start"`
	PeriodEnd       string             `json:"period_end"`
	ByCategory      map[string]float64 `json:"by_category"`
	TotalCO2Kg      float64            `json:"total_co2_kg"`
	TotalPoints     int                `json:"total_points"`
	ActivityCount   int                `json:"activity_count"`
	TreesEquivalent int                `json:"trees_equivalent"`
	Rank            string             `json:"rank"`
}
