package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormChitPlanRepository implements chit.PlanRepository using GORM
type GormChitPlanRepository struct {
	db *gorm.DB
}

// NewGormChitPlanRepository creates a new GormChitPlanRepository
func NewGormChitPlanRepository(db *gorm.DB) *GormChitPlanRepository {
	return &GormChitPlanRepository{db: db}
}

// FindByID returns the plan or nil when it does not exist
func (r *GormChitPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Plan, error) {
	var model models.ChitPlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of plans and the total matching count
func (r *GormChitPlanRepository) FindAll(ctx context.Context, filter chit.PlanFilter) ([]chit.Plan, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ChitPlanModel{})

	if f.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if filter.Verified != nil {
		query = query.Where("is_verified = ?", *filter.Verified)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ChitPlanModel
	err := query.
		Order(orderClause(f.OrderBy, f.OrderDir, PlanSortFields, "created_at")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	plans := make([]chit.Plan, len(rows))
	for i := range rows {
		plans[i] = *rows[i].ToDomain()
	}
	return plans, total, nil
}

// Create inserts a new plan
func (r *GormChitPlanRepository) Create(ctx context.Context, plan *chit.Plan) error {
	err := r.db.WithContext(ctx).Create(models.ChitPlanModelFromDomain(plan)).Error
	if IsCheckViolation(err) {
		return shared.NewValidationError("INVALID_PLAN_AMOUNT", "Plan amount must be positive")
	}
	return err
}

// SaveWithLock persists name and amount changes. The stored row must still
// be at plan.Version-1, i.e. the version the caller loaded before Apply.
func (r *GormChitPlanRepository) SaveWithLock(ctx context.Context, plan *chit.Plan) error {
	result := r.db.WithContext(ctx).
		Model(&models.ChitPlanModel{}).
		Where("id = ? AND version = ?", plan.ID, plan.Version-1).
		Updates(map[string]any{
			"name":       plan.Name,
			"amount":     plan.Amount,
			"version":    plan.Version,
			"updated_at": plan.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, plan.ID)
	}
	return nil
}

// Delete removes a plan. Plans still referenced by a subscription or
// installment are rejected by the foreign keys.
func (r *GormChitPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ChitPlanModel{}, "id = ?", id)
	if result.Error != nil {
		if IsForeignKeyViolation(result.Error) {
			return chit.ErrPlanInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PLAN", id.String())
	}
	return nil
}

// MarkVerified flips a pending plan to verified. It returns false when the
// plan was already verified (or does not exist) and leaves the row untouched.
func (r *GormChitPlanRepository) MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	return markVerified(ctx, r.db, &models.ChitPlanModel{}, id, by, at)
}

func (r *GormChitPlanRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChitPlanModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("PLAN", id.String())
	}
	return shared.ErrConcurrencyConflict
}

// markVerified is the conditional update shared by every verifiable table.
// Only the first caller sees RowsAffected == 1.
func markVerified(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, by string, at time.Time) (bool, error) {
	at = at.UTC()
	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]any{
			"is_verified": true,
			"verified_at": at,
			"verified_by": by,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
