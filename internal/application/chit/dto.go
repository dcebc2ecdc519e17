package chit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest represents a request to add a plan to the catalog
type CreatePlanRequest struct {
	Name   string
	Amount decimal.Decimal
}

// UpdatePlanRequest is a partial plan update; nil fields are left alone
type UpdatePlanRequest struct {
	Name   *string
	Amount *decimal.Decimal
}

// PlanListFilter filters the plan catalog
type PlanListFilter struct {
	Search   string
	Verified *bool
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// EnrollRequest represents a request to enroll a customer into a plan
type EnrollRequest struct {
	CustomerName   string
	Phone          string
	PlanID         uuid.UUID
	DurationMonths int
	StartDate      string // YYYY-MM-DD
}

// RecordInstallmentRequest represents a payment for one period
type RecordInstallmentRequest struct {
	ChitNumber  string
	PeriodIndex int
	PaymentMode string
	Notes       string
	RecordedBy  string
}

// UpdateInstallmentRequest is a partial installment update
type UpdateInstallmentRequest struct {
	PaymentMode *string
	PlanID      *uuid.UUID
	Notes       *string
}

// SubscriptionListFilter filters subscription listings
type SubscriptionListFilter struct {
	Search    string
	PlanID    *uuid.UUID
	Completed *bool
	Page      int
	PageSize  int
	OrderBy   string
	OrderDir  string
}

// LedgerFeedFilter filters the cross-subscription installment feed
type LedgerFeedFilter struct {
	Search       string
	ChitNumber   string
	PlanID       *uuid.UUID
	Verified     *bool
	PaymentMode  string
	RecordedFrom *time.Time
	RecordedTo   *time.Time
	Page         int
	PageSize     int
	OrderBy      string
	OrderDir     string
}

// PlanResponse represents a plan in API responses
type PlanResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDisplay string          `json:"amount_display"`
	Status        string          `json:"status"`
	IsVerified    bool            `json:"is_verified"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy    string          `json:"verified_by,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToPlanResponse converts a domain plan to a response
func ToPlanResponse(p *chit.Plan) PlanResponse {
	return PlanResponse{
		ID:            p.ID,
		Name:          p.Name,
		Amount:        p.Amount,
		AmountDisplay: p.AmountMoney().Display(),
		Status:        p.Status(),
		IsVerified:    p.IsVerified,
		VerifiedAt:    p.VerifiedAt,
		VerifiedBy:    p.VerifiedBy,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToPlanResponses converts a slice of plans
func ToPlanResponses(plans []chit.Plan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i := range plans {
		out[i] = ToPlanResponse(&plans[i])
	}
	return out
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID             uuid.UUID `json:"id"`
	ChitNumber     string    `json:"chit_number"`
	PlanID         uuid.UUID `json:"plan_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	DurationMonths int       `json:"duration_months"`
	StartDate      string    `json:"start_date"`
	MaturityDate   string    `json:"maturity_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToSubscriptionResponse converts a domain subscription to a response
func ToSubscriptionResponse(s *chit.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             s.ID,
		ChitNumber:     s.ChitNumber,
		PlanID:         s.PlanID,
		CustomerID:     s.CustomerID,
		CustomerName:   s.CustomerName,
		CustomerPhone:  s.CustomerPhone,
		DurationMonths: s.DurationMonths,
		StartDate:      s.StartDate.Format(chit.DateLayout),
		MaturityDate:   s.MaturityDate.Format(chit.DateLayout),
		CreatedAt:      s.CreatedAt,
	}
}

// EnrollmentResponse is returned after a successful enrollment
type EnrollmentResponse struct {
	ChitNumber   string               `json:"chit_number"`
	MaturityDate string               `json:"maturity_date"`
	Subscription SubscriptionResponse `json:"subscription"`
}

// SubscriptionSummaryResponse is a subscription row with payment progress
type SubscriptionSummaryResponse struct {
	SubscriptionResponse
	PlanName         string          `json:"plan_name"`
	PlanAmount       decimal.Decimal `json:"plan_amount"`
	PaidCount        int             `json:"paid_count"`
	RemainingPeriods int             `json:"remaining_periods"`
	IsCompleted      bool            `json:"is_completed"`
}

// ToSubscriptionSummaryResponse converts a listing row to a response
func ToSubscriptionSummaryResponse(s *chit.SubscriptionSummary) SubscriptionSummaryResponse {
	return SubscriptionSummaryResponse{
		SubscriptionResponse: ToSubscriptionResponse(&s.Subscription),
		PlanName:             s.PlanName,
		PlanAmount:           s.PlanAmount,
		PaidCount:            s.PaidCount,
		RemainingPeriods:     max(s.DurationMonths-s.PaidCount, 0),
		IsCompleted:          s.Completed(),
	}
}

// ChitLookupResponse is the staff-facing view of one chit number
type ChitLookupResponse struct {
	SubscriptionID    uuid.UUID       `json:"subscription_id"`
	ChitNumber        string          `json:"chit_number"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone"`
	PlanID            uuid.UUID       `json:"plan_id"`
	PlanName          string          `json:"plan_name"`
	PlanAmount        decimal.Decimal `json:"plan_amount"`
	PlanAmountDisplay string          `json:"plan_amount_display"`
	DurationMonths    int             `json:"duration_months"`
	StartDate         string          `json:"start_date"`
	MaturityDate      string          `json:"maturity_date"`
	PaidPeriods       []int           `json:"paid_periods"`
	RemainingPeriods  int             `json:"remaining_periods"`
	IsCompleted       bool            `json:"is_completed"`
	NextDuePeriod     int             `json:"next_due_period,omitempty"`
}

func toChitLookupResponse(s *chit.Subscription, plan *chit.Plan, progress chit.Progress) ChitLookupResponse {
	return ChitLookupResponse{
		SubscriptionID:    s.ID,
		ChitNumber:        s.ChitNumber,
		CustomerName:      s.CustomerName,
		CustomerPhone:     s.CustomerPhone,
		PlanID:            plan.ID,
		PlanName:          plan.Name,
		PlanAmount:        plan.Amount,
		PlanAmountDisplay: plan.AmountMoney().Display(),
		DurationMonths:    s.DurationMonths,
		StartDate:         s.StartDate.Format(chit.DateLayout),
		MaturityDate:      s.MaturityDate.Format(chit.DateLayout),
		PaidPeriods:       progress.PaidPeriods,
		RemainingPeriods:  progress.RemainingPeriods,
		IsCompleted:       progress.IsCompleted,
		NextDuePeriod:     progress.NextDuePeriod(s.DurationMonths),
	}
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID             uuid.UUID       `json:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	ChitNumber     string          `json:"chit_number,omitempty"`
	PlanID         uuid.UUID       `json:"plan_id"`
	PeriodIndex    int             `json:"period_index"`
	PaymentMode    string          `json:"payment_mode"`
	PlanAmount     decimal.Decimal `json:"plan_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	Notes          string          `json:"notes,omitempty"`
	RecordedBy     string          `json:"recorded_by"`
	RecordedAt     time.Time       `json:"recorded_at"`
	Status         string          `json:"status"`
	IsVerified     bool            `json:"is_verified"`
	VerifiedAt     *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy     string          `json:"verified_by,omitempty"`
	Version        int             `json:"version"`
}

// ToInstallmentResponse converts a domain installment to a response
func ToInstallmentResponse(i *chit.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:             i.ID,
		SubscriptionID: i.SubscriptionID,
		ChitNumber:     i.ChitNumber,
		PlanID:         i.PlanID,
		PeriodIndex:    i.PeriodIndex,
		PaymentMode:    i.PaymentMode.String(),
		PlanAmount:     i.PlanAmount,
		DueAmount:      i.DueAmount,
		Notes:          i.Notes,
		RecordedBy:     i.RecordedBy,
		RecordedAt:     i.RecordedAt,
		Status:         i.Status(),
		IsVerified:     i.IsVerified,
		VerifiedAt:     i.VerifiedAt,
		VerifiedBy:     i.VerifiedBy,
		Version:        i.Version,
	}
}

// ToInstallmentResponses converts a slice of installments
func ToInstallmentResponses(items []chit.Installment) []InstallmentResponse {
	out := make([]InstallmentResponse, len(items))
	for i := range items {
		out[i] = ToInstallmentResponse(&items[i])
	}
	return out
}

// LedgerEntryResponse is one row of the installment feed
type LedgerEntryResponse struct {
	InstallmentID  uuid.UUID       `json:"installment_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	ChitNumber     string          `json:"chit_number"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	PlanID         uuid.UUID       `json:"plan_id"`
	PlanName       string          `json:"plan_name"`
	PlanAmount     decimal.Decimal `json:"plan_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	DueDisplay     string          `json:"due_display"`
	DurationMonths int             `json:"duration_months"`
	PeriodIndex    int             `json:"period_index"`
	PaymentMode    string          `json:"payment_mode"`
	Notes          string          `json:"notes,omitempty"`
	RecordedBy     string          `json:"recorded_by"`
	RecordedAt     time.Time       `json:"recorded_at"`
	IsVerified     bool            `json:"is_verified"`
	VerifiedAt     *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy     string          `json:"verified_by,omitempty"`
}

// ToLedgerEntryResponse converts a feed row to a response
func ToLedgerEntryResponse(e *chit.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		InstallmentID:  e.InstallmentID,
		SubscriptionID: e.SubscriptionID,
		ChitNumber:     e.ChitNumber,
		CustomerName:   e.CustomerName,
		CustomerPhone:  e.CustomerPhone,
		PlanID:         e.PlanID,
		PlanName:       e.PlanName,
		PlanAmount:     e.PlanAmount,
		DueAmount:      e.DueAmount,
		DueDisplay:     valueobject.NewMoneyINR(e.DueAmount).Display(),
		DurationMonths: e.DurationMonths,
		PeriodIndex:    e.PeriodIndex,
		PaymentMode:    e.PaymentMode.String(),
		Notes:          e.Notes,
		RecordedBy:     e.RecordedBy,
		RecordedAt:     e.RecordedAt,
		IsVerified:     e.IsVerified,
		VerifiedAt:     e.VerifiedAt,
		VerifiedBy:     e.VerifiedBy,
	}
}

// LedgerSummaryResponse aggregates the whole ledger
type LedgerSummaryResponse struct {
	Subscriptions          int64           `json:"subscriptions"`
	ActiveSubscriptions    int64           `json:"active_subscriptions"`
	CompletedSubscriptions int64           `json:"completed_subscriptions"`
	Installments           int64           `json:"installments"`
	VerifiedInstallments   int64           `json:"verified_installments"`
	PendingInstallments    int64           `json:"pending_installments"`
	CollectedAmount        decimal.Decimal `json:"collected_amount"`
	CollectedDisplay       string          `json:"collected_display"`
}

// ToLedgerSummaryResponse converts ledger totals to a response
func ToLedgerSummaryResponse(t *chit.LedgerTotals) LedgerSummaryResponse {
	return LedgerSummaryResponse{
		Subscriptions:          t.Subscriptions,
		ActiveSubscriptions:    t.Subscriptions - t.CompletedSubscriptions,
		CompletedSubscriptions: t.CompletedSubscriptions,
		Installments:           t.Installments,
		VerifiedInstallments:   t.VerifiedInstallments,
		PendingInstallments:    t.PendingInstallments(),
		CollectedAmount:        t.CollectedAmount,
		CollectedDisplay:       valueobject.NewMoneyINR(t.CollectedAmount).Display(),
	}
}

func toFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: strings.ToLower(orderDir),
		Search:   strings.TrimSpace(search),
	}.Normalize()
}
