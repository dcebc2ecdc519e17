package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/shopspring/decimal"
)

// ChitPlanModel is the persistence model for the chit plan catalog
type ChitPlanModel struct {
	AggregateModel
	VerificationModel
	Name   string          `gorm:"type:varchar(100);not null"`
	Amount decimal.Decimal `gorm:"type:numeric(18,2);not null"`
}

// TableName returns the table name for GORM
func (ChitPlanModel) TableName() string {
	return "chit_plans"
}

// ToDomain converts the persistence model to a domain Plan
func (m *ChitPlanModel) ToDomain() *chit.Plan {
	return &chit.Plan{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		VerificationState: m.VerificationModel.ToDomain(),
		Name:              m.Name,
		Amount:            m.Amount.Round(2),
	}
}

// FromDomain populates the persistence model from a domain Plan
func (m *ChitPlanModel) FromDomain(p *chit.Plan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.VerificationModel.FromDomain(p.VerificationState)
	m.Name = p.Name
	m.Amount = p.Amount
}

// ChitPlanModelFromDomain creates a new persistence model from a domain Plan
func ChitPlanModelFromDomain(p *chit.Plan) *ChitPlanModel {
	m := &ChitPlanModel{}
	m.FromDomain(p)
	return m
}

// CustomerModel is one row of the customer directory, keyed by phone
type CustomerModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null"`
	Phone string `gorm:"type:varchar(20);not null;uniqueIndex:idx_customers_phone"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *chit.Customer {
	return &chit.Customer{ID: m.ID, Name: m.Name, Phone: m.Phone}
}

// ChitSubscriptionModel is the persistence model for an enrollment
type ChitSubscriptionModel struct {
	AggregateModel
	ChitNumber     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_chit_subscriptions_chit_number"`
	PlanID         uuid.UUID `gorm:"type:uuid;not null;index:idx_chit_subscriptions_plan"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index:idx_chit_subscriptions_customer"`
	CustomerName   string    `gorm:"type:varchar(200);not null"`
	CustomerPhone  string    `gorm:"type:varchar(20);not null"`
	DurationMonths int       `gorm:"not null"`
	StartDate      time.Time `gorm:"type:date;not null"`
	MaturityDate   time.Time `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (ChitSubscriptionModel) TableName() string {
	return "chit_subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription
func (m *ChitSubscriptionModel) ToDomain() *chit.Subscription {
	return &chit.Subscription{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		ChitNumber:        m.ChitNumber,
		PlanID:            m.PlanID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		CustomerPhone:     m.CustomerPhone,
		DurationMonths:    m.DurationMonths,
		StartDate:         chit.DateOnly(m.StartDate),
		MaturityDate:      chit.DateOnly(m.MaturityDate),
	}
}

// ChitSubscriptionModelFromDomain creates a new persistence model from a domain Subscription
func ChitSubscriptionModelFromDomain(s *chit.Subscription) *ChitSubscriptionModel {
	m := &ChitSubscriptionModel{
		ChitNumber:     s.ChitNumber,
		PlanID:         s.PlanID,
		CustomerID:     s.CustomerID,
		CustomerName:   s.CustomerName,
		CustomerPhone:  s.CustomerPhone,
		DurationMonths: s.DurationMonths,
		StartDate:      chit.DateOnly(s.StartDate),
		MaturityDate:   chit.DateOnly(s.MaturityDate),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// ChitInstallmentModel is the persistence model for a recorded installment.
// (subscription_id, period_index) is unique.
type ChitInstallmentModel struct {
	AggregateModel
	VerificationModel
	SubscriptionID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chit_installments_subscription_period,priority:1"`
	PlanID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_chit_installments_plan"`
	PeriodIndex    int             `gorm:"not null;uniqueIndex:idx_chit_installments_subscription_period,priority:2"`
	PaymentMode    string          `gorm:"type:varchar(20);not null"`
	PlanAmount     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	DueAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Notes          string          `gorm:"type:varchar(500);not null"`
	RecordedBy     string          `gorm:"type:varchar(100);not null"`
	RecordedAt     time.Time       `gorm:"not null;index:idx_chit_installments_recorded_at"`
}

// TableName returns the table name for GORM
func (ChitInstallmentModel) TableName() string {
	return "chit_installments"
}

// ToDomain converts the persistence model to a domain Installment
func (m *ChitInstallmentModel) ToDomain() *chit.Installment {
	return &chit.Installment{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		VerificationState: m.VerificationModel.ToDomain(),
		SubscriptionID:    m.SubscriptionID,
		PlanID:            m.PlanID,
		PeriodIndex:       m.PeriodIndex,
		PaymentMode:       chit.PaymentMode(m.PaymentMode),
		PlanAmount:        m.PlanAmount.Round(2),
		DueAmount:         m.DueAmount.Round(2),
		Notes:             m.Notes,
		RecordedBy:        m.RecordedBy,
		RecordedAt:        m.RecordedAt.UTC(),
	}
}

// ChitInstallmentModelFromDomain creates a new persistence model from a domain Installment
func ChitInstallmentModelFromDomain(i *chit.Installment) *ChitInstallmentModel {
	m := &ChitInstallmentModel{
		SubscriptionID: i.SubscriptionID,
		PlanID:         i.PlanID,
		PeriodIndex:    i.PeriodIndex,
		PaymentMode:    string(i.PaymentMode),
		PlanAmount:     i.PlanAmount,
		DueAmount:      i.DueAmount,
		Notes:          i.Notes,
		RecordedBy:     i.RecordedBy,
		RecordedAt:     i.RecordedAt,
	}
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.VerificationModel.FromDomain(i.VerificationState)
	return m
}

// ChitNumberSequenceModel is a named monotonically increasing counter
type ChitNumberSequenceModel struct {
	Name      string `gorm:"type:varchar(50);primaryKey"`
	LastValue int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChitNumberSequenceModel) TableName() string {
	return "chit_number_sequences"
}
