package chit

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
)

const (
	// ChitNumberPrefix prefixes every issued chit number
	ChitNumberPrefix = "CHIT-"
	// MaxDurationMonths caps how long a single subscription may run
	MaxDurationMonths = 120
)

// FormatChitNumber renders a sequence value as a chit number (CHIT-000042)
func FormatChitNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", ChitNumberPrefix, seq)
}

// NormalizeChitNumber upper-cases and trims a chit number typed by staff
func NormalizeChitNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Subscription enrolls one customer into one plan for a fixed number of
// monthly periods. The maturity date is fixed at enrollment.
type Subscription struct {
	shared.BaseAggregateRoot
	ChitNumber     string
	PlanID         uuid.UUID
	CustomerID     uuid.UUID
	CustomerName   string
	CustomerPhone  string
	DurationMonths int
	StartDate      time.Time
	MaturityDate   time.Time
}

// NewSubscription enrolls customer into plan starting at startDate
func NewSubscription(chitNumber string, plan *Plan, customer *Customer, durationMonths int, startDate time.Time, actorID string) (*Subscription, error) {
	if chitNumber == "" {
		return nil, shared.NewValidationError("INVALID_CHIT_NUMBER", "Chit number cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewValidationError("INVALID_PLAN", "Plan is required")
	}
	if customer == nil || customer.ID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer is required")
	}
	if err := ValidateDuration(durationMonths); err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_START_DATE", "Start date is required")
	}

	start := DateOnly(startDate)
	s := &Subscription{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChitNumber:        chitNumber,
		PlanID:            plan.ID,
		CustomerID:        customer.ID,
		CustomerName:      customer.Name,
		CustomerPhone:     customer.Phone,
		DurationMonths:    durationMonths,
		StartDate:         start,
		MaturityDate:      AddMonths(start, durationMonths),
	}
	s.AddDomainEvent(NewSubscriptionEnrolledEvent(s, plan, actorID))
	return s, nil
}

// ValidateDuration checks the number of monthly periods
func ValidateDuration(months int) error {
	if months <= 0 {
		return shared.NewValidationError("INVALID_DURATION", "Duration must be at least one month")
	}
	if months > MaxDurationMonths {
		return shared.NewValidationErrorf("INVALID_DURATION", "Duration cannot exceed %d months", MaxDurationMonths)
	}
	return nil
}

// ValidatePeriod checks that period falls within 1..DurationMonths
func (s *Subscription) ValidatePeriod(period int) error {
	if period < 1 || period > s.DurationMonths {
		return shared.NewValidationErrorf("PERIOD_OUT_OF_RANGE",
			"Period %d is outside 1..%d for %s", period, s.DurationMonths, s.ChitNumber)
	}
	return nil
}

// RecordInstallment builds the installment for period after checking it
// against the periods already paid. The caller still has to persist it
// under the (subscription, period) uniqueness guarantee.
func (s *Subscription) RecordInstallment(period int, mode PaymentMode, notes, recordedBy string, plan *Plan, paidPeriods []int, now time.Time) (*Installment, error) {
	if err := s.ValidatePeriod(period); err != nil {
		return nil, err
	}
	if slices.Contains(paidPeriods, period) {
		return nil, shared.NewDuplicatePeriodError(s.ChitNumber, period)
	}
	return newInstallment(s, plan, period, mode, notes, recordedBy, now)
}

// Progress summarises paid periods for the subscription
func (s *Subscription) Progress(paidPeriods []int) Progress {
	return NewProgress(s.DurationMonths, paidPeriods)
}

// Progress is the derived payment state of a subscription. Completion is
// never stored; it follows from paid == duration.
type Progress struct {
	PaidPeriods      []int
	RemainingPeriods int
	IsCompleted      bool
}

// NewProgress sorts and de-duplicates paid periods and derives the rest
func NewProgress(duration int, paidPeriods []int) Progress {
	paid := slices.Clone(paidPeriods)
	slices.Sort(paid)
	paid = slices.Compact(paid)
	if paid == nil {
		paid = []int{}
	}
	remaining := max(duration-len(paid), 0)
	return Progress{
		PaidPeriods:      paid,
		RemainingPeriods: remaining,
		IsCompleted:      duration > 0 && remaining == 0,
	}
}

// NextDuePeriod returns the lowest unpaid period, or 0 when complete
func (p Progress) NextDuePeriod(duration int) int {
	for i := 1; i <= duration; i++ {
		if !slices.Contains(p.PaidPeriods, i) {
			return i
		}
	}
	return 0
}
