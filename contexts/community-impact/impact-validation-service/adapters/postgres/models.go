package postgresadapter

import (
	"encoding/json"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
)

type challengeModel struct {
	ChallengeID      string    `gorm:"column:challenge_id;primaryKey"`
	CreatorID        string    `gorm:"column:creator_id;index"`
	Title            string    `gorm:"column:title"`
	Category         string    `gorm:"column:category;index"`
	Method           string    `gorm:"column:method"`
	FactorKgPerUnit  float64   `gorm:"column:factor_kg_per_unit"`
	FixedImpactKg    float64   `gorm:"column:fixed_impact_kg"`
	BasePoints       int       `gorm:"column:base_points"`
	BonusMultipliers []byte    `gorm:"column:bonus_multipliers;type:jsonb"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (challengeModel) TableName() string { return "challenges" }

func challengeModelFromEntity(c entities.ChallengeDefinition) (challengeModel, error) {
	multipliers, err := json.Marshal(c.BonusMultipliers)
	if err != nil {
		return challengeModel{}, err
	}
	return challengeModel{
		ChallengeID:      c.ChallengeID,
		CreatorID:        c.CreatorID,
		Title:            c.Title,
		Category:         string(c.Category),
		Method:           string(c.Method),
		FactorKgPerUnit:  c.FactorKgPerUnit,
		FixedImpactKg:    c.FixedImpactKg,
		BasePoints:       c.BasePoints,
		BonusMultipliers: multipliers,
		CreatedAt:        c.CreatedAt.UTC(),
	}, nil
}

func (m challengeModel) toEntity() (entities.ChallengeDefinition, error) {
	multipliers := make(map[entities.EvidenceTier]float64)
	if len(m.BonusMultipliers) > 0 {
		if err := json.Unmarshal(m.BonusMultipliers, &multipliers); err != nil {
			return entities.ChallengeDefinition{}, err
		}
	}
	return entities.ChallengeDefinition{
		ChallengeID:      m.ChallengeID,
		CreatorID:        m.CreatorID,
		Title:            m.Title,
		Category:         entities.Category(m.Category),
		Method:           entities.CalculationMethod(m.Method),
		FactorKgPerUnit:  m.FactorKgPerUnit,
		FixedImpactKg:    m.FixedImpactKg,
		BasePoints:       m.BasePoints,
		BonusMultipliers: multipliers,
		CreatedAt:        m.CreatedAt.UTC(),
	}, nil
}

type completionModel struct {
	CompletionID    string    `gorm:"column:completion_id;primaryKey"`
	ChallengeID     string    `gorm:"column:challenge_id;index"`
	UserID          string    `gorm:"column:user_id;index"`
	Category        string    `gorm:"column:category"`
	Tier            string    `gorm:"column:tier"`
	ImpactKg        float64   `gorm:"column:impact_kg"`
	ValidationScore float64   `gorm:"column:validation_score"`
	PointsEarned    int       `gorm:"column:points_earned"`
	Status          string    `gorm:"column:status"`
	Feedback        string    `gorm:"column:feedback"`
	EvidenceURL     string    `gorm:"column:evidence_url"`
	Notes           string    `gorm:"column:notes"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (completionModel) TableName() string { return "completions" }

func completionModelFromEntity(c entities.Completion) completionModel {
	return completionModel{
		CompletionID:    c.CompletionID,
		ChallengeID:     c.ChallengeID,
		UserID:          c.UserID,
		Category:        string(c.Category),
		Tier:            string(c.Tier),
		ImpactKg:        c.ImpactKg,
		ValidationScore: c.ValidationScore,
		PointsEarned:    c.PointsEarned,
		Status:          string(c.Status),
		Feedback:        c.Feedback,
		EvidenceURL:     c.EvidenceURL,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt.UTC(),
	}
}

func (m completionModel) toEntity() entities.Completion {
	return entities.Completion{
		CompletionID:    m.CompletionID,
		ChallengeID:     m.ChallengeID,
		UserID:          m.UserID,
		Category:        entities.Category(m.Category),
		Tier:            entities.EvidenceTier(m.Tier),
		ImpactKg:        m.ImpactKg,
		ValidationScore: m.ValidationScore,
		PointsEarned:    m.PointsEarned,
		Status:          entities.CompletionStatus(m.Status),
		Feedback:        m.Feedback,
		EvidenceURL:     m.EvidenceURL,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type impactRecordModel struct {
	RecordID     string    `gorm:"column:record_id;primaryKey"`
	CompletionID string    `gorm:"column:completion_id;uniqueIndex"`
	UserID       string    `gorm:"column:user_id;index:idx_impact_records_user_created"`
	Category     string    `gorm:"column:category"`
	AmountKg     float64   `gorm:"column:amount_kg"`
	Points       int       `gorm:"column:points"`
	Confidence   float64   `gorm:"column:confidence"`
	CreatedAt    time.Time `gorm:"column:created_at;index:idx_impact_records_user_created"`
}

func (impactRecordModel) TableName() string { return "impact_records" }

func impactRecordModelFromEntity(r entities.ImpactRecord) impactRecordModel {
	return impactRecordModel{
		RecordID:     r.RecordID,
		CompletionID: r.CompletionID,
		UserID:       r.UserID,
		Category:     string(r.Category),
		AmountKg:     r.AmountKg,
		Points:       r.Points,
		Confidence:   r.Confidence,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (m impactRecordModel) toEntity() entities.ImpactRecord {
	return entities.ImpactRecord{
		RecordID:     m.RecordID,
		CompletionID: m.CompletionID,
		UserID:       m.UserID,
		Category:     entities.Category(m.Category),
		AmountKg:     m.AmountKg,
		Points:       m.Points,
		Confidence:   m.Confidence,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
