package handler

import (
	"github.com/gin-gonic/gin"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
)

// SubscriptionHandler handles enrollment and chit-number lookups
type SubscriptionHandler struct {
	BaseHandler
	enrollmentService *chitapp.EnrollmentService
	ledgerService     *chitapp.LedgerService
	queryService      *chitapp.QueryService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(
	enrollmentService *chitapp.EnrollmentService,
	ledgerService *chitapp.LedgerService,
	queryService *chitapp.QueryService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		enrollmentService: enrollmentService,
		ledgerService:     ledgerService,
		queryService:      queryService,
	}
}

// Enroll godoc
// @Summary      Enroll customer
// @Description  Finds or creates the customer by phone, assigns the next chit number and computes the maturity date.
// @Tags         chit-subscriptions
// @Accept       json
// @Produce      json
// @Param        request body EnrollRequest true "Enrollment"
// @Success      201 {object} dto.Response{data=chitapp.EnrollmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/subscriptions [post]
func (h *SubscriptionHandler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	enrolled, err := h.enrollmentService.Enroll(c.Request.Context(), req.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, enrolled)
}

// List godoc
// @Summary      List subscriptions
// @Tags         chit-subscriptions
// @Produce      json
// @Param        search    query string false "Chit number, customer name or phone"
// @Param        plan_id   query string false "Plan ID"
// @Param        completed query bool   false "Completion state"
// @Success      200 {object} dto.Response{data=[]chitapp.SubscriptionSummaryResponse}
// @Security     BearerAuth
// @Router       /chit/subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	var q ListSubscriptionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	rows, total, err := h.queryService.ListSubscriptions(c.Request.Context(), q.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	page, pageSize := paging(q.ListRequest)
	h.SuccessWithMeta(c, rows, total, page, pageSize)
}

// LookupByChitNumber godoc
// @Summary      Look up chit number
// @Description  Returns the subscription, its plan and the periods already paid.
// @Tags         chit-subscriptions
// @Produce      json
// @Param        chitNumber path string true "Chit number"
// @Success      200 {object} dto.Response{data=chitapp.ChitLookupResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/subscriptions/by-number/{chitNumber} [get]
func (h *SubscriptionHandler) LookupByChitNumber(c *gin.Context) {
	lookup, err := h.enrollmentService.LookupByChitNumber(c.Request.Context(), c.Param("chitNumber"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, lookup)
}

// ListInstallments godoc
// @Summary      List installments of a subscription
// @Tags         chit-subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID"
// @Success      200 {object} dto.Response{data=[]chitapp.InstallmentResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/subscriptions/{id}/installments [get]
func (h *SubscriptionHandler) ListInstallments(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.ledgerService.ListInstallments(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, items)
}
