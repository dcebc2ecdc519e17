package chit

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 500

// Installment is one paid period of a subscription. PeriodIndex and
// RecordedAt never change after recording.
type Installment struct {
	shared.BaseAggregateRoot
	shared.VerificationState
	SubscriptionID uuid.UUID
	PlanID         uuid.UUID
	PeriodIndex    int
	PaymentMode    PaymentMode
	PlanAmount     decimal.Decimal
	DueAmount      decimal.Decimal
	Notes          string
	RecordedBy     string
	RecordedAt     time.Time

	// ChitNumber is carried for events and messages; not persisted
	ChitNumber string
}

// InstallmentChanges is a partial update; nil fields are left alone.
// A non-nil empty PaymentMode means the caller tried to clear it.
type InstallmentChanges struct {
	PaymentMode *string
	PlanID      *uuid.UUID
	Notes       *string
}

func newInstallment(s *Subscription, plan *Plan, period int, mode PaymentMode, notes, recordedBy string, now time.Time) (*Installment, error) {
	if plan == nil {
		return nil, shared.NewValidationError("INVALID_PLAN", "Plan is required")
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationErrorf("INVALID_PAYMENT_MODE", "Payment mode %q is not supported", mode)
	}
	recordedBy = strings.TrimSpace(recordedBy)
	if recordedBy == "" {
		return nil, shared.NewValidationError("INVALID_RECORDED_BY", "Recording user is required")
	}
	notes, err := validateNotes(notes)
	if err != nil {
		return nil, err
	}

	inst := &Installment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SubscriptionID:    s.ID,
		PlanID:            plan.ID,
		PeriodIndex:       period,
		PaymentMode:       mode,
		PlanAmount:        plan.Amount,
		DueAmount:         plan.DueAmount(s.DurationMonths, period),
		Notes:             notes,
		RecordedBy:        recordedBy,
		RecordedAt:        now.UTC(),
		ChitNumber:        s.ChitNumber,
	}
	inst.AddDomainEvent(NewInstallmentRecordedEvent(inst))
	return inst, nil
}

// Apply validates and applies a partial update. plan must be the resolved
// plan when changes.PlanID is set; duration is the owning subscription's.
func (i *Installment) Apply(changes InstallmentChanges, plan *Plan, duration int, actorID string) error {
	mode := i.PaymentMode
	if changes.PaymentMode != nil {
		m, err := ParsePaymentMode(*changes.PaymentMode)
		if err != nil {
			return err
		}
		mode = m
	}
	notes := i.Notes
	if changes.Notes != nil {
		n, err := validateNotes(*changes.Notes)
		if err != nil {
			return err
		}
		notes = n
	}
	if changes.PlanID != nil {
		if *changes.PlanID == uuid.Nil {
			return shared.NewValidationError("INVALID_PLAN", "Plan cannot be cleared")
		}
		if plan == nil || plan.ID != *changes.PlanID {
			return shared.NewValidationError("INVALID_PLAN", "Plan does not exist")
		}
		i.PlanID = plan.ID
		i.PlanAmount = plan.Amount
		i.DueAmount = plan.DueAmount(duration, i.PeriodIndex)
	}

	i.PaymentMode = mode
	i.Notes = notes
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInstallmentUpdatedEvent(i, actorID))
	return nil
}

// MarkVerified overrides the embedded state to also bump version and emit an event
func (i *Installment) MarkVerified(by string, at time.Time) bool {
	if !i.VerificationState.MarkVerified(by, at) {
		return false
	}
	i.IncrementVersion()
	i.AddDomainEvent(shared.NewRecordVerifiedEvent(AggregateTypeInstallment, i.ID, i.VerificationState))
	return true
}

func validateNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return "", shared.NewValidationErrorf("INVALID_NOTES", "Notes cannot exceed %d characters", maxNotesLength)
	}
	return notes, nil
}
