package chit

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const maxPlanNameLength = 100

// Plan is a chit scheme offered to customers, e.g. "Gold 5000".
// Editing a plan never rewrites installments already recorded against it;
// those carry their own amount snapshot.
type Plan struct {
	shared.BaseAggregateRoot
	shared.VerificationState
	Name   string
	Amount decimal.Decimal
}

// PlanChanges is a partial update; nil fields are left alone
type PlanChanges struct {
	Name   *string
	Amount *decimal.Decimal
}

// NewPlan creates an unverified plan
func NewPlan(name string, amount decimal.Decimal, actorID string) (*Plan, error) {
	name, err := validatePlanName(name)
	if err != nil {
		return nil, err
	}
	if err := validatePlanAmount(amount); err != nil {
		return nil, err
	}

	p := &Plan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Amount:            amount.Round(2),
	}
	p.AddDomainEvent(NewPlanCreatedEvent(p, actorID))
	return p, nil
}

// Apply validates and applies a partial update
func (p *Plan) Apply(changes PlanChanges, actorID string) error {
	name := p.Name
	amount := p.Amount
	if changes.Name != nil {
		n, err := validatePlanName(*changes.Name)
		if err != nil {
			return err
		}
		name = n
	}
	if changes.Amount != nil {
		if err := validatePlanAmount(*changes.Amount); err != nil {
			return err
		}
		amount = changes.Amount.Round(2)
	}
	if name == p.Name && amount.Equal(p.Amount) {
		return nil
	}

	p.Name = name
	p.Amount = amount
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPlanUpdatedEvent(p, actorID))
	return nil
}

// AmountMoney returns the plan amount in rupees
func (p *Plan) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Amount)
}

// DueAmount is the share of the plan amount payable for one period when the
// plan runs over duration months. Paise left over from the split are carried
// by the earliest periods.
func (p *Plan) DueAmount(duration, period int) decimal.Decimal {
	if duration <= 0 || period < 1 || period > duration {
		return decimal.Zero
	}
	parts, err := p.AmountMoney().Allocate(duration)
	if err != nil {
		return decimal.Zero
	}
	return parts[period-1].Amount()
}

// MarkVerified overrides the embedded state to also bump version and emit an event
func (p *Plan) MarkVerified(by string, at time.Time) bool {
	if !p.VerificationState.MarkVerified(by, at) {
		return false
	}
	p.IncrementVersion()
	p.AddDomainEvent(shared.NewRecordVerifiedEvent(AggregateTypePlan, p.ID, p.VerificationState))
	return true
}

func validatePlanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("INVALID_PLAN_NAME", "Plan name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxPlanNameLength {
		return "", shared.NewValidationErrorf("INVALID_PLAN_NAME", "Plan name cannot exceed %d characters", maxPlanNameLength)
	}
	return name, nil
}

func validatePlanAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_PLAN_AMOUNT", "Plan amount must be positive")
	}
	return nil
}

// ErrPlanInUse is returned when deleting a plan that still has enrollments
var ErrPlanInUse = shared.NewConflictError("PLAN_IN_USE", "Plan is referenced by subscriptions or installments and cannot be deleted", false)
