package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	nudgeports "wellagora/contexts/community-impact/nudge-service/ports"
	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

func (r *Repository) GetProgram(ctx context.Context, programID string) (entities.Program, error) {
	var row programModel
	err := r.db.WithContext(ctx).
		Where("program_id = ?", strings.TrimSpace(programID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Program{}, domainerrors.ErrProgramNotFound
		}
		return entities.Program{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetEnrollment(ctx context.Context, programID string, userID string) (entities.Enrollment, error) {
	var row enrollmentModel
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND user_id = ?", strings.TrimSpace(programID), strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Enrollment{}, domainerrors.ErrEnrollmentNotFound
		}
		return entities.Enrollment{}, err
	}
	return row.toEntity(), nil
}

// CreateEnrollment runs the insert and the participant increment in one
// transaction. The program row is locked FOR UPDATE so the capacity check and
// the counter bump cannot interleave; the unique (program_id, user_id) index
// backstops duplicate inserts that raced past the lock.
func (r *Repository) CreateEnrollment(ctx context.Context, enrollment entities.Enrollment) (entities.Program, error) {
	if strings.TrimSpace(enrollment.ProgramID) == "" || strings.TrimSpace(enrollment.UserID) == "" {
		return entities.Program{}, domainerrors.ErrInvalidInput
	}

	var updated entities.Program
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row programModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("program_id = ?", strings.TrimSpace(enrollment.ProgramID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrProgramNotFound
			}
			return err
		}

		program := row.toEntity()
		if program.MaxCapacity != nil && program.CurrentParticipants >= *program.MaxCapacity {
			return domainerrors.ErrProgramFull
		}

		insert := enrollmentModelFromEntity(enrollment)
		if err := tx.Create(&insert).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyEnrolled
			}
			return err
		}

		program.CurrentParticipants++
		if program.MaxCapacity != nil && program.CurrentParticipants >= *program.MaxCapacity {
			program.Status = entities.ProgramStatusFull
		}
		if err := tx.Model(&programModel{}).
			Where("program_id = ?", program.ProgramID).
			Updates(map[string]any{
				"current_participants": program.CurrentParticipants,
				"status":               string(program.Status),
				"updated_at":           enrollment.CreatedAt.UTC(),
			}).
			Error; err != nil {
			return err
		}

		program.UpdatedAt = enrollment.CreatedAt.UTC()
		updated = program
		return nil
	})
	if err != nil {
		return entities.Program{}, err
	}
	return updated, nil
}

func (r *Repository) ListEnrollmentsByUser(ctx context.Context, userID string, limit int, offset int) ([]entities.Enrollment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []enrollmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Enrollment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateCheckout(ctx context.Context, checkout entities.Checkout) error {
	row := checkoutModelFromEntity(checkout)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrWriteConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetCheckoutByReference(ctx context.Context, reference string) (entities.Checkout, error) {
	var row checkoutModel
	err := r.db.WithContext(ctx).
		Where("checkout_id = ?", strings.TrimSpace(reference)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Checkout{}, domainerrors.ErrCheckoutNotFound
		}
		return entities.Checkout{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) MarkCheckoutCompleted(ctx context.Context, checkoutID string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&checkoutModel{}).
		Where("checkout_id = ?", strings.TrimSpace(checkoutID)).
		Updates(map[string]any{
			"status":       string(entities.CheckoutStatusCompleted),
			"completed_at": completedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCheckoutNotFound
	}
	return nil
}

func (r *Repository) ExpireCheckouts(ctx context.Context, now time.Time, limit int) ([]entities.Checkout, error) {
	if limit <= 0 {
		limit = 100
	}
	timestamp := now.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	expired := make([]entities.Checkout, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []checkoutModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND expires_at < ?", string(entities.CheckoutStatusPending), timestamp).
			Order("expires_at ASC").
			Limit(limit).
			Find(&rows).
			Error; err != nil {
			return err
		}

		for _, row := range rows {
			if err := tx.Model(&checkoutModel{}).
				Where("checkout_id = ?", row.CheckoutID).
				Update("status", string(entities.CheckoutStatusExpired)).
				Error; err != nil {
				return err
			}
			checkout := row.toEntity()
			checkout.Status = entities.CheckoutStatusExpired
			expired = append(expired, checkout)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrWriteConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrWriteConflict
	}
	return true, nil
}

func (r *Repository) GetCreatorStats(ctx context.Context, creatorID string) (nudgeports.CreatorStats, error) {
	var rows []programModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", strings.TrimSpace(creatorID)).
		Order("program_id ASC").
		Find(&rows).
		Error; err != nil {
		return nudgeports.CreatorStats{}, err
	}

	stats := nudgeports.CreatorStats{CreatorID: strings.TrimSpace(creatorID)}
	var ratingSum float64
	var ratedCount int
	for _, row := range rows {
		stats.Programs = append(stats.Programs, nudgeports.CreatorProgramStats{
			ProgramID:           row.ProgramID,
			Title:               row.Title,
			PriceHUF:            row.PriceHUF,
			MaxCapacity:         row.MaxCapacity,
			CurrentParticipants: row.CurrentParticipants,
			IsPublished:         row.IsPublished,
			AverageRating:       row.AverageRating,
		})
		if row.IsPublished {
			stats.PublishedPrograms++
		}
		stats.TotalParticipants += row.CurrentParticipants
		if row.PriceHUF > 0 {
			stats.HasPaidProgram = true
		}
		if row.AverageRating > 0 {
			ratingSum += row.AverageRating
			ratedCount++
		}
	}
	if ratedCount > 0 {
		stats.AverageRating = ratingSum / float64(ratedCount)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
