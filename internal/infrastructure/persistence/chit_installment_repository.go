package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormChitInstallmentRepository implements chit.InstallmentRepository using GORM
type GormChitInstallmentRepository struct {
	db *gorm.DB
}

// NewGormChitInstallmentRepository creates a new GormChitInstallmentRepository
func NewGormChitInstallmentRepository(db *gorm.DB) *GormChitInstallmentRepository {
	return &GormChitInstallmentRepository{db: db}
}

type installmentRow struct {
	models.ChitInstallmentModel
	ChitNumber string
}

func (row *installmentRow) toDomain() *chit.Installment {
	inst := row.ChitInstallmentModel.ToDomain()
	inst.ChitNumber = row.ChitNumber
	return inst
}

func (r *GormChitInstallmentRepository) withChitNumber(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("chit_installments AS i").
		Select("i.*, s.chit_number").
		Joins("JOIN chit_subscriptions s ON s.id = i.subscription_id")
}

// FindByID returns the installment or nil when it does not exist
func (r *GormChitInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Installment, error) {
	var rows []installmentRow
	if err := r.withChitNumber(ctx).Where("i.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// FindBySubscription returns every installment of a subscription ordered by period
func (r *GormChitInstallmentRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]chit.Installment, error) {
	var rows []installmentRow
	err := r.withChitNumber(ctx).
		Where("i.subscription_id = ?", subscriptionID).
		Order("i.period_index ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]chit.Installment, len(rows))
	for i := range rows {
		out[i] = *rows[i].toDomain()
	}
	return out, nil
}

// PaidPeriods returns the recorded period indexes of a subscription in ascending order
func (r *GormChitInstallmentRepository) PaidPeriods(ctx context.Context, subscriptionID uuid.UUID) ([]int, error) {
	periods := []int{}
	err := r.db.WithContext(ctx).
		Model(&models.ChitInstallmentModel{}).
		Where("subscription_id = ?", subscriptionID).
		Order("period_index ASC").
		Pluck("period_index", &periods).Error
	return periods, err
}

// Create inserts a new installment. The unique index on
// (subscription_id, period_index) decides between concurrent writers of the
// same period; the loser gets a DuplicatePeriod error and nothing is written.
func (r *GormChitInstallmentRepository) Create(ctx context.Context, inst *chit.Installment) error {
	err := r.db.WithContext(ctx).Create(models.ChitInstallmentModelFromDomain(inst)).Error
	switch {
	case err == nil:
		return nil
	case IsDuplicateKey(err):
		return shared.NewDuplicatePeriodError(inst.ChitNumber, inst.PeriodIndex)
	case IsForeignKeyViolation(err):
		return shared.NewNotFoundError("SUBSCRIPTION", inst.SubscriptionID.String())
	case IsCheckViolation(err):
		return shared.NewValidationErrorf("INVALID_INSTALLMENT", "Installment for period %d was rejected by the ledger", inst.PeriodIndex)
	default:
		return err
	}
}

// SaveWithLock persists the mutable fields of an installment. The stored row
// must still be at inst.Version-1.
func (r *GormChitInstallmentRepository) SaveWithLock(ctx context.Context, inst *chit.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&models.ChitInstallmentModel{}).
		Where("id = ? AND version = ?", inst.ID, inst.Version-1).
		Updates(map[string]any{
			"payment_mode": string(inst.PaymentMode),
			"plan_id":      inst.PlanID,
			"plan_amount":  inst.PlanAmount,
			"due_amount":   inst.DueAmount,
			"notes":        inst.Notes,
			"version":      inst.Version,
			"updated_at":   inst.UpdatedAt,
		})
	if result.Error != nil {
		if IsForeignKeyViolation(result.Error) {
			return shared.NewValidationError("INVALID_PLAN", "Plan does not exist")
		}
		if IsCheckViolation(result.Error) {
			return shared.NewValidationErrorf("INVALID_PAYMENT_MODE", "Payment mode %q is not supported", inst.PaymentMode)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ChitInstallmentModel{}).Where("id = ?", inst.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.NewNotFoundError("INSTALLMENT", inst.ID.String())
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// MarkVerified flips a pending installment to verified
func (r *GormChitInstallmentRepository) MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	return markVerified(ctx, r.db, &models.ChitInstallmentModel{}, id, by, at)
}

type ledgerRow struct {
	InstallmentID  uuid.UUID
	SubscriptionID uuid.UUID
	ChitNumber     string
	CustomerName   string
	CustomerPhone  string
	PlanID         uuid.UUID
	PlanName       string
	PlanAmount     decimal.Decimal
	DueAmount      decimal.Decimal
	DurationMonths int
	PeriodIndex    int
	PaymentMode    string
	Notes          string
	RecordedBy     string
	RecordedAt     time.Time
	IsVerified     bool
	VerifiedAt     *time.Time
	VerifiedBy     string
}

const ledgerColumns = `i.id AS installment_id, i.subscription_id, s.chit_number, s.customer_name, s.customer_phone,
	i.plan_id, p.name AS plan_name, i.plan_amount, i.due_amount, s.duration_months, i.period_index,
	i.payment_mode, i.notes, i.recorded_by, i.recorded_at, i.is_verified, i.verified_at, i.verified_by`

// FindFeed returns the joined installment feed across all subscriptions
func (r *GormChitInstallmentRepository) FindFeed(ctx context.Context, filter chit.LedgerFilter) ([]chit.LedgerEntry, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).
		Table("chit_installments AS i").
		Joins("JOIN chit_subscriptions s ON s.id = i.subscription_id").
		Joins("JOIN chit_plans p ON p.id = i.plan_id")

	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(s.chit_number) LIKE ? OR LOWER(s.customer_name) LIKE ? OR s.customer_phone LIKE ? OR LOWER(i.notes) LIKE ?",
			like, like, like, like)
	}
	if filter.ChitNumber != "" {
		query = query.Where("s.chit_number = ?", chit.NormalizeChitNumber(filter.ChitNumber))
	}
	if filter.SubscriptionID != nil {
		query = query.Where("i.subscription_id = ?", *filter.SubscriptionID)
	}
	if filter.PlanID != nil {
		query = query.Where("i.plan_id = ?", *filter.PlanID)
	}
	if filter.Verified != nil {
		query = query.Where("i.is_verified = ?", *filter.Verified)
	}
	if filter.PaymentMode != "" {
		query = query.Where("i.payment_mode = ?", string(filter.PaymentMode))
	}
	if filter.RecordedFrom != nil {
		query = query.Where("i.recorded_at >= ?", filter.RecordedFrom.UTC())
	}
	if filter.RecordedTo != nil {
		query = query.Where("i.recorded_at < ?", filter.RecordedTo.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ledgerRow
	err := query.
		Select(ledgerColumns).
		Order(orderClause(f.OrderBy, f.OrderDir, LedgerSortFields, "i.recorded_at")).
		Order("i.period_index ASC").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]chit.LedgerEntry, len(rows))
	for i, row := range rows {
		var verifiedAt *time.Time
		if row.VerifiedAt != nil {
			t := row.VerifiedAt.UTC()
			verifiedAt = &t
		}
		entries[i] = chit.LedgerEntry{
			InstallmentID:  row.InstallmentID,
			SubscriptionID: row.SubscriptionID,
			ChitNumber:     row.ChitNumber,
			CustomerName:   row.CustomerName,
			CustomerPhone:  row.CustomerPhone,
			PlanID:         row.PlanID,
			PlanName:       row.PlanName,
			PlanAmount:     row.PlanAmount.Round(2),
			DueAmount:      row.DueAmount.Round(2),
			DurationMonths: row.DurationMonths,
			PeriodIndex:    row.PeriodIndex,
			PaymentMode:    chit.PaymentMode(row.PaymentMode),
			Notes:          row.Notes,
			RecordedBy:     row.RecordedBy,
			RecordedAt:     row.RecordedAt.UTC(),
			IsVerified:     row.IsVerified,
			VerifiedAt:     verifiedAt,
			VerifiedBy:     row.VerifiedBy,
		}
	}
	return entries, total, nil
}

type totalsRow struct {
	Subscriptions          int64
	CompletedSubscriptions int64
	Installments           int64
	VerifiedInstallments   int64
	CollectedAmount        decimal.Decimal
}

// Totals aggregates ledger-wide counts in a single round trip
func (r *GormChitInstallmentRepository) Totals(ctx context.Context) (*chit.LedgerTotals, error) {
	var row totalsRow
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM chit_subscriptions) AS subscriptions,
		(SELECT COUNT(*) FROM chit_subscriptions s WHERE `+paidCountExpr+` >= s.duration_months) AS completed_subscriptions,
		(SELECT COUNT(*) FROM chit_installments) AS installments,
		(SELECT COUNT(*) FROM chit_installments WHERE is_verified = ?) AS verified_installments,
		(SELECT COALESCE(SUM(due_amount), 0) FROM chit_installments) AS collected_amount`, true).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &chit.LedgerTotals{
		Subscriptions:          row.Subscriptions,
		CompletedSubscriptions: row.CompletedSubscriptions,
		Installments:           row.Installments,
		VerifiedInstallments:   row.VerifiedInstallments,
		CollectedAmount:        row.CollectedAmount.Round(2),
	}, nil
}
