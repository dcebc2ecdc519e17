package chit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PlanFilter defines filtering options for plan queries
type PlanFilter struct {
	shared.Filter
	Verified *bool
}

// SubscriptionFilter defines filtering options for subscription queries
type SubscriptionFilter struct {
	shared.Filter
	PlanID    *uuid.UUID
	Completed *bool
}

// LedgerFilter defines filtering options for the installment feed
type LedgerFilter struct {
	shared.Filter
	ChitNumber     string
	SubscriptionID *uuid.UUID
	PlanID         *uuid.UUID
	Verified       *bool
	PaymentMode    PaymentMode
	RecordedFrom   *time.Time
	RecordedTo     *time.Time
}

// PlanRepository defines the interface for plan persistence
type PlanRepository interface {
	// FindByID returns the plan, or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// FindAll returns a page of plans and the total matching count
	FindAll(ctx context.Context, filter PlanFilter) ([]Plan, int64, error)

	// Create inserts a new plan
	Create(ctx context.Context, plan *Plan) error

	// SaveWithLock updates the plan if its stored version is still plan.Version-1.
	// Returns a retryable conflict error otherwise.
	SaveWithLock(ctx context.Context, plan *Plan) error

	// Delete removes the plan. Returns a PLAN_IN_USE conflict when any
	// subscription or installment still references it.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkVerified flips is_verified from false to true. It reports false
	// when the row was already verified or does not exist.
	MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	// FindByID returns the subscription, or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByChitNumber returns the subscription, or nil when it does not exist
	FindByChitNumber(ctx context.Context, chitNumber string) (*Subscription, error)

	// ExistsByChitNumber checks whether a chit number has been issued
	ExistsByChitNumber(ctx context.Context, chitNumber string) (bool, error)

	// Create inserts a subscription. A chit number collision yields a
	// retryable conflict error.
	Create(ctx context.Context, sub *Subscription) error

	// CountByPlan counts subscriptions enrolled in a plan
	CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error)

	// FindSummaries returns a page of subscriptions with plan and payment counts
	FindSummaries(ctx context.Context, filter SubscriptionFilter) ([]SubscriptionSummary, int64, error)
}

// InstallmentRepository defines the interface for installment persistence
type InstallmentRepository interface {
	// FindByID returns the installment, or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)

	// FindBySubscription returns all installments ordered by period
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]Installment, error)

	// PaidPeriods returns the recorded period indexes in ascending order
	PaidPeriods(ctx context.Context, subscriptionID uuid.UUID) ([]int, error)

	// Create inserts an installment atomically. A second insert for the same
	// (subscription, period) yields a DuplicatePeriod error and writes nothing.
	Create(ctx context.Context, inst *Installment) error

	// SaveWithLock updates mutable fields if the stored version is still inst.Version-1
	SaveWithLock(ctx context.Context, inst *Installment) error

	// MarkVerified flips is_verified from false to true. It reports false
	// when the row was already verified or does not exist.
	MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)

	// FindFeed returns the joined installment feed
	FindFeed(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int64, error)

	// Totals aggregates counts across the whole ledger
	Totals(ctx context.Context) (*LedgerTotals, error)
}

// ChitNumberSequence issues monotonically increasing values that are never reused
type ChitNumberSequence interface {
	Next(ctx context.Context) (int64, error)
}

// CustomerDirectory resolves the customer a subscription belongs to
type CustomerDirectory interface {
	// Resolve finds the customer by phone or registers a new one
	Resolve(ctx context.Context, name, phone string) (*Customer, error)
}

// SubscriptionSummary is a subscription row for listings
type SubscriptionSummary struct {
	Subscription
	PlanName   string
	PlanAmount decimal.Decimal
	PaidCount  int
}

// Completed reports whether every period has been paid
func (s SubscriptionSummary) Completed() bool {
	return s.PaidCount >= s.DurationMonths
}

// LedgerEntry is one row of the cross-subscription installment feed
type LedgerEntry struct {
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
	PaymentMode    PaymentMode
	Notes          string
	RecordedBy     string
	RecordedAt     time.Time
	IsVerified     bool
	VerifiedAt     *time.Time
	VerifiedBy     string
}

// LedgerTotals summarises the ledger
type LedgerTotals struct {
	Subscriptions          int64
	CompletedSubscriptions int64
	Installments           int64
	VerifiedInstallments   int64
	CollectedAmount        decimal.Decimal
}

// PendingInstallments is the number awaiting verification
func (t LedgerTotals) PendingInstallments() int64 {
	return t.Installments - t.VerifiedInstallments
}
