package chit

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type names used in events and error codes
const (
	AggregateTypePlan         = "ChitPlan"
	AggregateTypeSubscription = "ChitSubscription"
	AggregateTypeInstallment  = "ChitInstallment"
)

// Event type names
const (
	EventTypePlanCreated          = "ChitPlanCreated"
	EventTypePlanUpdated          = "ChitPlanUpdated"
	EventTypePlanDeleted          = "ChitPlanDeleted"
	EventTypeSubscriptionEnrolled = "ChitSubscriptionEnrolled"
	EventTypeInstallmentRecorded  = "ChitInstallmentRecorded"
	EventTypeInstallmentUpdated   = "ChitInstallmentUpdated"
)

// PlanCreatedEvent is raised when a plan is added to the catalog
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	PlanID uuid.UUID       `json:"plan_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(p *Plan, actorID string) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCreated, AggregateTypePlan, p.ID, actorID),
		PlanID:          p.ID,
		Name:            p.Name,
		Amount:          p.Amount,
	}
}

// PlanUpdatedEvent is raised when a plan's name or amount changes
type PlanUpdatedEvent struct {
	shared.BaseDomainEvent
	PlanID  uuid.UUID       `json:"plan_id"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Version int             `json:"version"`
}

// NewPlanUpdatedEvent creates a new PlanUpdatedEvent
func NewPlanUpdatedEvent(p *Plan, actorID string) *PlanUpdatedEvent {
	return &PlanUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanUpdated, AggregateTypePlan, p.ID, actorID),
		PlanID:          p.ID,
		Name:            p.Name,
		Amount:          p.Amount,
		Version:         p.Version,
	}
}

// PlanDeletedEvent is raised when an unreferenced plan is removed
type PlanDeletedEvent struct {
	shared.BaseDomainEvent
	PlanID uuid.UUID `json:"plan_id"`
	Name   string    `json:"name"`
}

// NewPlanDeletedEvent creates a new PlanDeletedEvent
func NewPlanDeletedEvent(p *Plan, actorID string) *PlanDeletedEvent {
	return &PlanDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanDeleted, AggregateTypePlan, p.ID, actorID),
		PlanID:          p.ID,
		Name:            p.Name,
	}
}

// SubscriptionEnrolledEvent is raised when a customer joins a plan
type SubscriptionEnrolledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	ChitNumber     string    `json:"chit_number"`
	PlanID         uuid.UUID `json:"plan_id"`
	PlanName       string    `json:"plan_name"`
	CustomerID     uuid.UUID `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	DurationMonths int       `json:"duration_months"`
	StartDate      time.Time `json:"start_date"`
	MaturityDate   time.Time `json:"maturity_date"`
}

// NewSubscriptionEnrolledEvent creates a new SubscriptionEnrolledEvent
func NewSubscriptionEnrolledEvent(s *Subscription, p *Plan, actorID string) *SubscriptionEnrolledEvent {
	return &SubscriptionEnrolledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionEnrolled, AggregateTypeSubscription, s.ID, actorID),
		SubscriptionID:  s.ID,
		ChitNumber:      s.ChitNumber,
		PlanID:          p.ID,
		PlanName:        p.Name,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		DurationMonths:  s.DurationMonths,
		StartDate:       s.StartDate,
		MaturityDate:    s.MaturityDate,
	}
}

// InstallmentRecordedEvent is raised when a period payment is recorded
type InstallmentRecordedEvent struct {
	shared.BaseDomainEvent
	InstallmentID  uuid.UUID       `json:"installment_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	ChitNumber     string          `json:"chit_number"`
	PeriodIndex    int             `json:"period_index"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
	DueAmount      decimal.Decimal `json:"due_amount"`
}

// NewInstallmentRecordedEvent creates a new InstallmentRecordedEvent
func NewInstallmentRecordedEvent(i *Installment) *InstallmentRecordedEvent {
	return &InstallmentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentRecorded, AggregateTypeInstallment, i.ID, i.RecordedBy),
		InstallmentID:   i.ID,
		SubscriptionID:  i.SubscriptionID,
		ChitNumber:      i.ChitNumber,
		PeriodIndex:     i.PeriodIndex,
		PaymentMode:     i.PaymentMode,
		DueAmount:       i.DueAmount,
	}
}

// InstallmentUpdatedEvent is raised when an installment's mode, plan or notes change
type InstallmentUpdatedEvent struct {
	shared.BaseDomainEvent
	InstallmentID uuid.UUID   `json:"installment_id"`
	PlanID        uuid.UUID   `json:"plan_id"`
	PaymentMode   PaymentMode `json:"payment_mode"`
	Version       int         `json:"version"`
}

// NewInstallmentUpdatedEvent creates a new InstallmentUpdatedEvent
func NewInstallmentUpdatedEvent(i *Installment, actorID string) *InstallmentUpdatedEvent {
	return &InstallmentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentUpdated, AggregateTypeInstallment, i.ID, actorID),
		InstallmentID:   i.ID,
		PlanID:          i.PlanID,
		PaymentMode:     i.PaymentMode,
		Version:         i.Version,
	}
}
