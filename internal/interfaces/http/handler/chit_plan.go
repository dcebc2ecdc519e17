package handler

import (
	"github.com/gin-gonic/gin"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
)

// PlanHandler handles plan catalog endpoints
type PlanHandler struct {
	BaseHandler
	planService *chitapp.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *chitapp.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// Create godoc
// @Summary      Create plan
// @Tags         chit-plans
// @Accept       json
// @Produce      json
// @Param        request body CreatePlanRequest true "Plan"
// @Success      201 {object} dto.Response{data=chitapp.PlanResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), req.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, plan)
}

// GetByID godoc
// @Summary      Get plan
// @Tags         chit-plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      200 {object} dto.Response{data=chitapp.PlanResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/plans/{id} [get]
func (h *PlanHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.planService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, plan)
}

// List godoc
// @Summary      List plans
// @Tags         chit-plans
// @Produce      json
// @Param        search    query string false "Name search"
// @Param        verified  query bool   false "Verification state"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]chitapp.PlanResponse}
// @Security     BearerAuth
// @Router       /chit/plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	var q ListPlansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	plans, total, err := h.planService.List(c.Request.Context(), q.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	page, pageSize := paging(q.ListRequest)
	h.SuccessWithMeta(c, plans, total, page, pageSize)
}

// Update godoc
// @Summary      Update plan
// @Description  Name and amount are optional. Recorded installments keep their amounts.
// @Tags         chit-plans
// @Accept       json
// @Produce      json
// @Param        id      path string            true "Plan ID"
// @Param        request body UpdatePlanRequest true "Changes"
// @Success      200 {object} dto.Response{data=chitapp.PlanResponse}
// @Security     BearerAuth
// @Router       /chit/plans/{id} [patch]
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), id, req.toApp())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, plan)
}

// Delete godoc
// @Summary      Delete plan
// @Description  Refused while any subscription references the plan.
// @Tags         chit-plans
// @Param        id path string true "Plan ID"
// @Success      204
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Verify godoc
// @Summary      Verify plan
// @Tags         chit-plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      200 {object} dto.Response{data=chitapp.PlanResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /chit/plans/{id}/verify [post]
func (h *PlanHandler) Verify(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.planService.Verify(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, plan)
}
