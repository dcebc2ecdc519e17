package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const paidCountExpr = "(SELECT COUNT(*) FROM chit_installments ci WHERE ci.subscription_id = s.id)"

// GormChitSubscriptionRepository implements chit.SubscriptionRepository using GORM
type GormChitSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormChitSubscriptionRepository creates a new GormChitSubscriptionRepository
func NewGormChitSubscriptionRepository(db *gorm.DB) *GormChitSubscriptionRepository {
	return &GormChitSubscriptionRepository{db: db}
}

// FindByID returns the subscription or nil when it does not exist
func (r *GormChitSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Subscription, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByChitNumber looks a subscription up by its public number
func (r *GormChitSubscriptionRepository) FindByChitNumber(ctx context.Context, chitNumber string) (*chit.Subscription, error) {
	return r.findOne(ctx, "chit_number = ?", chit.NormalizeChitNumber(chitNumber))
}

func (r *GormChitSubscriptionRepository) findOne(ctx context.Context, cond string, arg any) (*chit.Subscription, error) {
	var model models.ChitSubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByChitNumber checks whether a chit number is already taken
func (r *GormChitSubscriptionRepository) ExistsByChitNumber(ctx context.Context, chitNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChitSubscriptionModel{}).
		Where("chit_number = ?", chit.NormalizeChitNumber(chitNumber)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new subscription. A clash on chit_number means another
// enrollment won the race for the number; the caller may retry.
func (r *GormChitSubscriptionRepository) Create(ctx context.Context, sub *chit.Subscription) error {
	err := r.db.WithContext(ctx).Create(models.ChitSubscriptionModelFromDomain(sub)).Error
	switch {
	case err == nil:
		return nil
	case IsDuplicateKey(err):
		return shared.NewConflictError("CHIT_NUMBER_TAKEN", "Chit number "+sub.ChitNumber+" is already in use", true)
	case IsForeignKeyViolation(err):
		return shared.NewNotFoundError("PLAN", sub.PlanID.String())
	case IsCheckViolation(err):
		return shared.NewValidationError("INVALID_DURATION", "Duration must be at least one month")
	default:
		return err
	}
}

// CountByPlan counts subscriptions enrolled on a plan
func (r *GormChitSubscriptionRepository) CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChitSubscriptionModel{}).
		Where("plan_id = ?", planID).
		Count(&count).Error
	return count, err
}

type subscriptionSummaryRow struct {
	models.ChitSubscriptionModel
	PlanName   string
	PlanAmount decimal.Decimal
	PaidCount  int
}

// FindSummaries lists subscriptions with their plan and paid period count
func (r *GormChitSubscriptionRepository) FindSummaries(ctx context.Context, filter chit.SubscriptionFilter) ([]chit.SubscriptionSummary, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).
		Table("chit_subscriptions AS s").
		Joins("JOIN chit_plans p ON p.id = s.plan_id")

	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(s.chit_number) LIKE ? OR LOWER(s.customer_name) LIKE ? OR s.customer_phone LIKE ?", like, like, like)
	}
	if filter.PlanID != nil {
		query = query.Where("s.plan_id = ?", *filter.PlanID)
	}
	if filter.Completed != nil {
		if *filter.Completed {
			query = query.Where(paidCountExpr + " >= s.duration_months")
		} else {
			query = query.Where(paidCountExpr + " < s.duration_months")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []subscriptionSummaryRow
	err := query.
		Select("s.*, p.name AS plan_name, p.amount AS plan_amount, " + paidCountExpr + " AS paid_count").
		Order(orderClause(f.OrderBy, f.OrderDir, SubscriptionSortFields, "s.created_at")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]chit.SubscriptionSummary, len(rows))
	for i := range rows {
		out[i] = chit.SubscriptionSummary{
			Subscription: *rows[i].ToDomain(),
			PlanName:     rows[i].PlanName,
			PlanAmount:   rows[i].PlanAmount.Round(2),
			PaidCount:    rows[i].PaidCount,
		}
	}
	return out, total, nil
}
