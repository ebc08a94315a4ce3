package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repository) CreateRule(ctx context.Context, rule entities.SupportRule) error {
	row := ruleModelFromEntity(rule)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrWriteConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetRule(ctx context.Context, ruleID string) (entities.SupportRule, error) {
	var row ruleModel
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", strings.TrimSpace(ruleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SupportRule{}, domainerrors.ErrRuleNotFound
		}
		return entities.SupportRule{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRulesBySponsor(ctx context.Context, sponsorID string) ([]entities.SupportRule, error) {
	var rows []ruleModel
	if err := r.db.WithContext(ctx).
		Where("sponsor_id = ?", strings.TrimSpace(sponsorID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.SupportRule, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) FindActiveRules(ctx context.Context, scope ports.ScopeRefs, now time.Time) ([]entities.SupportRule, error) {
	timestamp := now.UTC()
	tx := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("status = ?", string(entities.RuleStatusActive)).
		Where("start_at IS NULL OR start_at <= ?", timestamp).
		Where("end_at IS NULL OR end_at > ?", timestamp)

	conditions := make([]string, 0, 4)
	args := make([]any, 0, 8)
	if id := strings.TrimSpace(scope.ProgramID); id != "" {
		conditions = append(conditions, "(scope_type = ? AND scope_id = ?)")
		args = append(args, string(entities.ScopeTypeProgram), id)
	}
	if id := strings.TrimSpace(scope.EventID); id != "" {
		conditions = append(conditions, "(scope_type = ? AND scope_id = ?)")
		args = append(args, string(entities.ScopeTypeEvent), id)
	}
	if id := strings.TrimSpace(scope.CreatorID); id != "" {
		conditions = append(conditions, "(scope_type = ? AND scope_id = ?)")
		args = append(args, string(entities.ScopeTypeCreator), id)
	}
	if id := strings.TrimSpace(scope.Category); id != "" {
		conditions = append(conditions, "(scope_type = ? AND scope_id = ?)")
		args = append(args, string(entities.ScopeTypeCategory), id)
	}
	if len(conditions) == 0 {
		return []entities.SupportRule{}, nil
	}
	tx = tx.Where(strings.Join(conditions, " OR "), args...)

	var rows []ruleModel
	if err := tx.
		Order("CASE scope_type WHEN 'program' THEN 0 WHEN 'event' THEN 1 WHEN 'creator' THEN 2 ELSE 3 END, created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.SupportRule, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateRuleStatus(ctx context.Context, ruleID string, from entities.RuleStatus, to entities.RuleStatus, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("rule_id = ? AND status = ?", strings.TrimSpace(ruleID), string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWriteConflict
	}
	return nil
}

func (r *Repository) SetAlertSent(ctx context.Context, ruleID string) error {
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("rule_id = ? AND alert_sent = ?", strings.TrimSpace(ruleID), false).
		Update("alert_sent", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWriteConflict
	}
	return nil
}

// ReserveAllocation makes the allocation insert and the counter debit one
// transaction. The debit is a conditional update so the budget and seat
// invariants hold without reading the row first; zero rows affected means the
// quota raced away and the whole unit rolls back.
func (r *Repository) ReserveAllocation(ctx context.Context, allocation entities.Allocation) (entities.Allocation, error) {
	reserved := allocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := allocationModelFromEntity(allocation)
		createResult := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rule_id"}, {Name: "program_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if createResult.Error != nil {
			return createResult.Error
		}
		if createResult.RowsAffected == 0 {
			var existing allocationModel
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("rule_id = ? AND program_id = ? AND user_id = ?",
					row.RuleID, row.ProgramID, row.UserID).
				First(&existing).
				Error; err != nil {
				return err
			}
			if existing.Status != string(entities.AllocationStatusReleased) {
				reserved = existing.toEntity()
				return nil
			}

			// A released seat can be taken again; the new reservation
			// debits the counters afresh.
			if err := debitRule(tx, row.RuleID, row.Amount, row.CreatedAt); err != nil {
				return err
			}
			if err := tx.Model(&allocationModel{}).
				Where("allocation_id = ?", existing.AllocationID).
				Updates(map[string]any{
					"status":      string(entities.AllocationStatusReserved),
					"amount":      row.Amount,
					"currency":    row.Currency,
					"created_at":  row.CreatedAt,
					"released_at": nil,
				}).
				Error; err != nil {
				return err
			}
			existing.Status = string(entities.AllocationStatusReserved)
			existing.Amount = row.Amount
			existing.Currency = row.Currency
			existing.CreatedAt = row.CreatedAt
			existing.ReleasedAt = nil
			reserved = existing.toEntity()
			return nil
		}

		return debitRule(tx, row.RuleID, row.Amount, row.CreatedAt)
	})
	if err != nil {
		return entities.Allocation{}, err
	}
	return reserved, nil
}

// debitRule is the conditional counter update backing every reservation.
// Zero rows affected means the quota raced away.
func debitRule(tx *gorm.DB, ruleID string, amount int64, at time.Time) error {
	debit := tx.Model(&ruleModel{}).
		Where("rule_id = ? AND status = ?", ruleID, string(entities.RuleStatusActive)).
		Where("budget_spent + ? <= budget_total", amount).
		Where("max_participants IS NULL OR seats_used < max_participants").
		Updates(map[string]any{
			"budget_spent": gorm.Expr("budget_spent + ?", amount),
			"seats_used":   gorm.Expr("seats_used + 1"),
			"updated_at":   at,
		})
	if debit.Error != nil {
		return debit.Error
	}
	if debit.RowsAffected == 0 {
		return domainerrors.ErrQuotaExhausted
	}
	return nil
}

func (r *Repository) GetAllocation(ctx context.Context, allocationID string) (entities.Allocation, error) {
	var row allocationModel
	err := r.db.WithContext(ctx).
		Where("allocation_id = ?", strings.TrimSpace(allocationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Allocation{}, domainerrors.ErrAllocationNotFound
		}
		return entities.Allocation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAllocationByKey(ctx context.Context, ruleID string, programID string, userID string) (entities.Allocation, error) {
	var row allocationModel
	err := r.db.WithContext(ctx).
		Where("rule_id = ? AND program_id = ? AND user_id = ?",
			strings.TrimSpace(ruleID), strings.TrimSpace(programID), strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Allocation{}, domainerrors.ErrAllocationNotFound
		}
		return entities.Allocation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CaptureAllocation(ctx context.Context, allocationID string, now time.Time) (entities.Allocation, error) {
	var captured entities.Allocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row allocationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("allocation_id = ?", strings.TrimSpace(allocationID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAllocationNotFound
			}
			return err
		}

		allocation := row.toEntity()
		switch allocation.Status {
		case entities.AllocationStatusCaptured:
			captured = allocation
			return nil
		case entities.AllocationStatusReleased:
			return domainerrors.ErrWriteConflict
		}

		ts := now.UTC()
		if err := tx.Model(&allocationModel{}).
			Where("allocation_id = ?", allocation.AllocationID).
			Updates(map[string]any{
				"status":      string(entities.AllocationStatusCaptured),
				"captured_at": ts,
			}).
			Error; err != nil {
			return err
		}

		account := creditAccountModel{
			SponsorID:   allocation.SponsorID,
			UsedCredits: allocation.Amount,
			UpdatedAt:   ts,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sponsor_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"used_credits": gorm.Expr("credit_accounts.used_credits + ?", allocation.Amount),
				"updated_at":   ts,
			}),
		}).Create(&account).Error; err != nil {
			return err
		}

		allocation.Status = entities.AllocationStatusCaptured
		allocation.CapturedAt = &ts
		captured = allocation
		return nil
	})
	if err != nil {
		return entities.Allocation{}, err
	}
	return captured, nil
}

func (r *Repository) ReleaseAllocation(ctx context.Context, allocationID string, now time.Time) (entities.Allocation, error) {
	var released entities.Allocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row allocationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("allocation_id = ?", strings.TrimSpace(allocationID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAllocationNotFound
			}
			return err
		}

		allocation := row.toEntity()
		switch allocation.Status {
		case entities.AllocationStatusReleased:
			released = allocation
			return nil
		case entities.AllocationStatusCaptured:
			return domainerrors.ErrWriteConflict
		}

		ts := now.UTC()
		if err := tx.Model(&ruleModel{}).
			Where("rule_id = ?", allocation.RuleID).
			Updates(map[string]any{
				"budget_spent": gorm.Expr("GREATEST(budget_spent - ?, 0)", allocation.Amount),
				"seats_used":   gorm.Expr("GREATEST(seats_used - 1, 0)"),
				"updated_at":   ts,
			}).
			Error; err != nil {
			return err
		}
		if err := tx.Model(&allocationModel{}).
			Where("allocation_id = ?", allocation.AllocationID).
			Updates(map[string]any{
				"status":      string(entities.AllocationStatusReleased),
				"released_at": ts,
			}).
			Error; err != nil {
			return err
		}

		allocation.Status = entities.AllocationStatusReleased
		allocation.ReleasedAt = &ts
		released = allocation
		return nil
	})
	if err != nil {
		return entities.Allocation{}, err
	}
	return released, nil
}

func (r *Repository) GetAccount(ctx context.Context, sponsorID string) (entities.CreditAccount, error) {
	var row creditAccountModel
	err := r.db.WithContext(ctx).
		Where("sponsor_id = ?", strings.TrimSpace(sponsorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CreditAccount{SponsorID: strings.TrimSpace(sponsorID)}, nil
		}
		return entities.CreditAccount{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) AddCredits(ctx context.Context, sponsorID string, amount int64, now time.Time) (entities.CreditAccount, error) {
	ts := now.UTC()
	account := creditAccountModel{
		SponsorID:    strings.TrimSpace(sponsorID),
		TotalCredits: amount,
		UpdatedAt:    ts,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sponsor_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_credits": gorm.Expr("credit_accounts.total_credits + ?", amount),
			"updated_at":    ts,
		}),
	}).Create(&account).Error; err != nil {
		return entities.CreditAccount{}, err
	}
	return r.GetAccount(ctx, sponsorID)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
