package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	domainerrors "wellagora/contexts/community-impact/impact-validation-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateChallenge(ctx context.Context, challenge entities.ChallengeDefinition) error {
	row, err := challengeModelFromEntity(challenge)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrWriteConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetChallenge(ctx context.Context, challengeID string) (entities.ChallengeDefinition, error) {
	var row challengeModel
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", strings.TrimSpace(challengeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ChallengeDefinition{}, domainerrors.ErrChallengeNotFound
		}
		return entities.ChallengeDefinition{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListChallenges(ctx context.Context, category string) ([]entities.ChallengeDefinition, error) {
	tx := r.db.WithContext(ctx).Model(&challengeModel{})
	if category != "" {
		tx = tx.Where("category = ?", category)
	}

	var rows []challengeModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.ChallengeDefinition, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CreateCompletion(ctx context.Context, completion entities.Completion, record entities.ImpactRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completionRow := completionModelFromEntity(completion)
		if err := tx.Create(&completionRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrWriteConflict
			}
			return err
		}
		recordRow := impactRecordModelFromEntity(record)
		if err := tx.Create(&recordRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrWriteConflict
			}
			return err
		}
		return nil
	})
}

func (r *Repository) ListCompletionsByUser(ctx context.Context, userID string, limit int, offset int) ([]entities.Completion, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []completionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Completion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListImpactRecords(ctx context.Context, userID string, from time.Time, to time.Time) ([]entities.ImpactRecord, error) {
	var rows []impactRecordModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?",
			strings.TrimSpace(userID), from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.ImpactRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
