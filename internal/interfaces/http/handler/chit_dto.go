package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest is the body of POST /chit/plans
type CreatePlanRequest struct {
	Name   string          `json:"name" binding:"required,max=100" example:"Gold 5000"`
	Amount decimal.Decimal `json:"amount" example:"5000"`
}

func (r CreatePlanRequest) toApp() chitapp.CreatePlanRequest {
	return chitapp.CreatePlanRequest{Name: r.Name, Amount: r.Amount}
}

// UpdatePlanRequest is the body of PATCH /chit/plans/:id
type UpdatePlanRequest struct {
	Name   *string          `json:"name" binding:"omitempty,max=100"`
	Amount *decimal.Decimal `json:"amount"`
}

func (r UpdatePlanRequest) toApp() chitapp.UpdatePlanRequest {
	return chitapp.UpdatePlanRequest{Name: r.Name, Amount: r.Amount}
}

// ListPlansQuery holds the query string of GET /chit/plans
type ListPlansQuery struct {
	dto.ListRequest
	Verified *bool `form:"verified"`
}

func (q ListPlansQuery) toApp() chitapp.PlanListFilter {
	return chitapp.PlanListFilter{
		Search:   q.Search,
		Verified: q.Verified,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
}

// EnrollRequest is the body of POST /chit/subscriptions
type EnrollRequest struct {
	CustomerName   string `json:"customer_name" binding:"required,max=100" example:"Asha Rao"`
	Phone          string `json:"phone" binding:"required" example:"9876543210"`
	PlanID         string `json:"plan_id" binding:"required,uuid"`
	DurationMonths int    `json:"duration_months" binding:"required,gte=1" example:"5"`
	StartDate      string `json:"start_date" binding:"required,isodate" example:"2024-01-01"`
}

func (r EnrollRequest) toApp() chitapp.EnrollRequest {
	return chitapp.EnrollRequest{
		CustomerName:   r.CustomerName,
		Phone:          r.Phone,
		PlanID:         uuid.MustParse(r.PlanID),
		DurationMonths: r.DurationMonths,
		StartDate:      r.StartDate,
	}
}

// ListSubscriptionsQuery holds the query string of GET /chit/subscriptions
type ListSubscriptionsQuery struct {
	dto.ListRequest
	PlanID    string `form:"plan_id" binding:"omitempty,uuid"`
	Completed *bool  `form:"completed"`
}

func (q ListSubscriptionsQuery) toApp() chitapp.SubscriptionListFilter {
	return chitapp.SubscriptionListFilter{
		Search:    q.Search,
		PlanID:    optionalUUID(q.PlanID),
		Completed: q.Completed,
		Page:      q.Page,
		PageSize:  q.PageSize,
		OrderBy:   q.OrderBy,
		OrderDir:  q.OrderDir,
	}
}

// RecordInstallmentRequest is the body of POST /chit/installments
type RecordInstallmentRequest struct {
	ChitNumber  string `json:"chit_number" binding:"required,max=32" example:"CHIT-000001"`
	PeriodIndex int    `json:"period_index" binding:"required,gte=1" example:"1"`
	PaymentMode string `json:"payment_mode" binding:"required" example:"Cash"`
	Notes       string `json:"notes" binding:"max=500"`
}

func (r RecordInstallmentRequest) toApp(recordedBy string) chitapp.RecordInstallmentRequest {
	return chitapp.RecordInstallmentRequest{
		ChitNumber:  r.ChitNumber,
		PeriodIndex: r.PeriodIndex,
		PaymentMode: r.PaymentMode,
		Notes:       r.Notes,
		RecordedBy:  recordedBy,
	}
}

// UpdateInstallmentRequest is the body of PATCH /chit/installments/:id.
// An explicit null clears the field; absent fields are left unchanged.
type UpdateInstallmentRequest struct {
	PaymentMode patchString `json:"payment_mode" swaggertype:"string"`
	PlanID      patchString `json:"plan_id" swaggertype:"string"`
	Notes       patchString `json:"notes" swaggertype:"string"`
}

func (r UpdateInstallmentRequest) toApp() (chitapp.UpdateInstallmentRequest, error) {
	req := chitapp.UpdateInstallmentRequest{
		PaymentMode: r.PaymentMode.ptr(),
		Notes:       r.Notes.ptr(),
	}
	if r.PlanID.Set {
		id := uuid.Nil
		if r.PlanID.Value != "" {
			parsed, err := uuid.Parse(r.PlanID.Value)
			if err != nil {
				return req, shared.NewValidationError("INVALID_PLAN_ID", "plan_id must be a UUID")
			}
			id = parsed
		}
		req.PlanID = &id
	}
	return req, nil
}

// patchString tells an absent JSON member apart from an explicit null
type patchString struct {
	Set   bool
	Value string
}

func (p *patchString) UnmarshalJSON(data []byte) error {
	p.Set = true
	if string(data) == "null" {
		p.Value = ""
		return nil
	}
	return json.Unmarshal(data, &p.Value)
}

// ptr returns nil when absent and a pointer to "" for null
func (p patchString) ptr() *string {
	if !p.Set {
		return nil
	}
	v := p.Value
	return &v
}

// LedgerFeedQuery holds the query string of GET /chit/installments
type LedgerFeedQuery struct {
	dto.ListRequest
	ChitNumber   string `form:"chit_number" binding:"max=32"`
	PlanID       string `form:"plan_id" binding:"omitempty,uuid"`
	Verified     *bool  `form:"verified"`
	PaymentMode  string `form:"payment_mode" binding:"max=20"`
	RecordedFrom string `form:"recorded_from" binding:"omitempty,isodate"`
	RecordedTo   string `form:"recorded_to" binding:"omitempty,isodate"`
}

func (q LedgerFeedQuery) toApp() chitapp.LedgerFeedFilter {
	filter := chitapp.LedgerFeedFilter{
		Search:      q.Search,
		ChitNumber:  q.ChitNumber,
		PlanID:      optionalUUID(q.PlanID),
		Verified:    q.Verified,
		PaymentMode: q.PaymentMode,
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderBy:     q.OrderBy,
		OrderDir:    q.OrderDir,
	}
	if t, ok := parseDate(q.RecordedFrom); ok {
		filter.RecordedFrom = &t
	}
	// recorded_to is inclusive of the whole day
	if t, ok := parseDate(q.RecordedTo); ok {
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.RecordedTo = &end
	}
	return filter
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// paging mirrors the clamping the repositories apply so meta matches the rows
func paging(q dto.ListRequest) (int, int) {
	f := shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize()
	return f.Page, f.PageSize
}
