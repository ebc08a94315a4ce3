package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/community-impact/nudge-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type nudgeModel struct {
	NudgeID   string    `gorm:"column:nudge_id;primaryKey"`
	CreatorID string    `gorm:"column:creator_id;uniqueIndex:idx_nudges_creator_type_subject"`
	NudgeType string    `gorm:"column:nudge_type;uniqueIndex:idx_nudges_creator_type_subject"`
	SubjectID string    `gorm:"column:subject_id;uniqueIndex:idx_nudges_creator_type_subject"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (nudgeModel) TableName() string { return "nudges" }

// RecordNudge is insert-if-absent on the (creator, type, subject) key and
// reports whether this call won the insert.
func (r *Repository) RecordNudge(ctx context.Context, record ports.NudgeRecord) (bool, error) {
	row := nudgeModel{
		NudgeID:   strings.TrimSpace(record.NudgeID),
		CreatorID: strings.TrimSpace(record.CreatorID),
		NudgeType: strings.TrimSpace(record.NudgeType),
		SubjectID: strings.TrimSpace(record.SubjectID),
		CreatedAt: record.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "creator_id"},
				{Name: "nudge_type"},
				{Name: "subject_id"},
			},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
