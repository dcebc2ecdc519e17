package router

import (
	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/interfaces/http/handler"
	"github.com/retailerp/chitledger/internal/interfaces/http/middleware"
)

// ChitHandlers bundles the handlers mounted under /chit
type ChitHandlers struct {
	Plans         *handler.PlanHandler
	Subscriptions *handler.SubscriptionHandler
	Installments  *handler.InstallmentHandler
}

// NewChitRoutes builds the /chit route group. Role checks run before the
// handler; idempotency, when non-nil, guards installment recording only.
func NewChitRoutes(h ChitHandlers, idempotency gin.HandlerFunc) *DomainGroup {
	anyStaff := middleware.RequireRoles(shared.RoleAdmin, shared.RoleSupervisor, shared.RoleStaff)
	verifier := middleware.RequireVerifier()
	admin := middleware.RequireAdmin()

	chit := NewDomainGroup("chit", "/chit")

	plans := chit.Group("plans", "/plans")
	plans.POST("", verifier, h.Plans.Create).
		GET("", h.Plans.List).
		GET("/:id", h.Plans.GetByID).
		PATCH("/:id", verifier, h.Plans.Update).
		DELETE("/:id", admin, h.Plans.Delete).
		POST("/:id/verify", verifier, h.Plans.Verify)

	subs := chit.Group("subscriptions", "/subscriptions")
	subs.POST("", anyStaff, h.Subscriptions.Enroll).
		GET("", h.Subscriptions.List).
		GET("/by-number/:chitNumber", h.Subscriptions.LookupByChitNumber).
		GET("/:id/installments", h.Subscriptions.ListInstallments)

	record := []gin.HandlerFunc{anyStaff}
	if idempotency != nil {
		record = append(record, idempotency)
	}
	record = append(record, h.Installments.Record)

	insts := chit.Group("installments", "/installments")
	insts.POST("", record...).
		GET("", h.Installments.List).
		PATCH("/:id", anyStaff, h.Installments.Update).
		POST("/:id/verify", verifier, h.Installments.Verify)

	chit.Group("reports", "/reports").
		GET("/summary", h.Installments.Summary)

	return chit
}
