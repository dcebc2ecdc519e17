package handler

import (
	"github.com/gin-gonic/gin"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
	"github.com/retailerp/chitledger/internal/interfaces/http/middleware"
)

// InstallmentHandler handles payment recording, correction and the ledger feed
type InstallmentHandler struct {
	BaseHandler
	ledgerService *chitapp.LedgerService
	queryService  *chitapp.QueryService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(ledgerService *chitapp.LedgerService, queryService *chitapp.QueryService) *InstallmentHandler {
	return &InstallmentHandler{ledgerService: ledgerService, queryService: queryService}
}

// Record godoc
// @Summary      Record installment
// @Description  Records the payment for one period. Repeating a request with the same Idempotency-Key replays the first response.
// @Tags         chit-installments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                   false "Client retry key"
// @Param        request         body   RecordInstallmentRequest true  "Payment"
// @Success      201 {object} dto.Response{data=chitapp.InstallmentResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response "ERR_DUPLICATE_PERIOD"
// @Security     BearerAuth
// @Router       /chit/installments [post]
func (h *InstallmentHandler) Record(c *gin.Context) {
	var req RecordInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	var recordedBy string
	if actor, ok := middleware.GetActor(c); ok {
		recordedBy = actor.ID
	}

	inst, err := h.ledgerService.RecordInstallment(c.Request.Context(), req.toApp(recordedBy))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, inst)
}

// Update godoc
// @Summary      Correct installment
// @Description  Changes payment mode, plan or notes. Changing the plan re-snapshots the amounts.
// @Tags         chit-installments
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Installment ID"
// @Param        request body UpdateInstallmentRequest true "Changes"
// @Success      200 {object} dto.Response{data=chitapp.InstallmentResponse}
// @Security     BearerAuth
// @Router       /chit/installments/{id} [patch]
func (h *InstallmentHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	changes, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	inst, err := h.ledgerService.UpdateInstallment(c.Request.Context(), id, changes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inst)
}

// Verify godoc
// @Summary      Verify installment
// @Tags         chit-installments
// @Produce      json
// @Param        id path string true "Installment ID"
// @Success      200 {object} dto.Response{data=chitapp.InstallmentResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/installments/{id}/verify [post]
func (h *InstallmentHandler) Verify(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	inst, err := h.ledgerService.VerifyInstallment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inst)
}

// List godoc
// @Summary      Ledger feed
// @Description  Every installment joined with its subscription and plan, newest first by default.
// @Tags         chit-installments
// @Produce      json
// @Param        chit_number   query string false "Chit number"
// @Param        plan_id       query string false "Plan ID"
// @Param        verified      query bool   false "Verification state"
// @Param        payment_mode  query string false "Payment mode"
// @Param        recorded_from query string false "YYYY-MM-DD"
// @Param        recorded_to   query string false "YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=[]chitapp.LedgerEntryResponse}
// @Security     BearerAuth
// @Router       /chit/installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	var q LedgerFeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	rows, total, err := h.queryService.ListAllInstallments(c.Request.Context(), q.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	page, pageSize := paging(q.ListRequest)
	h.SuccessWithMeta(c, rows, total, page, pageSize)
}

// Summary godoc
// @Summary      Ledger summary
// @Tags         chit-reports
// @Produce      json
// @Success      200 {object} dto.Response{data=chitapp.LedgerSummaryResponse}
// @Security     BearerAuth
// @Router       /chit/reports/summary [get]
func (h *InstallmentHandler) Summary(c *gin.Context) {
	summary, err := h.queryService.LedgerSummary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}
