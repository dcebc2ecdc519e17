package chit

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PlanService manages the plan catalog
type PlanService struct {
	planRepo         chit.PlanRepository
	subscriptionRepo chit.SubscriptionRepository
	verifier         *Verifier[chit.Plan, *chit.Plan]
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.LedgerMetrics
}

// NewPlanService creates a new PlanService
func NewPlanService(planRepo chit.PlanRepository, subscriptionRepo chit.SubscriptionRepository) *PlanService {
	return &PlanService{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		verifier:         NewVerifier[chit.Plan, *chit.Plan](planRepo, "PLAN", "plan"),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PlanService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
	s.verifier.SetEventPublisher(publisher)
}

// SetLedgerMetrics sets the ledger metrics recorder
func (s *PlanService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
	s.verifier.SetLedgerMetrics(m)
}

// Create adds an unverified plan to the catalog
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (_ *PlanResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "create")
	defer endSpan(span, &err)

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := chit.NewPlan(req.Name, req.Amount, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPlanID, plan.ID.String())

	publishEvents(ctx, s.eventPublisher, plan)
	s.metrics.RecordPlanCreated(ctx)
	logger.L(ctx).Info("chit plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("name", plan.Name),
		zap.String("amount", plan.Amount.String()),
	)

	resp := ToPlanResponse(plan)
	return &resp, nil
}

// GetByID returns one plan
func (s *PlanService) GetByID(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(plan)
	return &resp, nil
}

// List returns a page of plans and the total count
func (s *PlanService) List(ctx context.Context, filter PlanListFilter) ([]PlanResponse, int64, error) {
	plans, total, err := s.planRepo.FindAll(ctx, chit.PlanFilter{
		Filter:   toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		Verified: filter.Verified,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToPlanResponses(plans), total, nil
}

// Update changes a plan's name and/or amount. Recorded installments keep
// the amounts they were recorded with.
func (s *PlanService) Update(ctx context.Context, id uuid.UUID, req UpdatePlanRequest) (_ *PlanResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "update", telemetry.SpanAttrPlanID, id.String())
	defer endSpan(span, &err)

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	version := plan.Version
	if err := plan.Apply(chit.PlanChanges{Name: req.Name, Amount: req.Amount}, actor.ID); err != nil {
		return nil, err
	}
	if plan.Version != version {
		if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
			return nil, err
		}
		publishEvents(ctx, s.eventPublisher, plan)
		logger.L(ctx).Info("chit plan updated",
			zap.String("plan_id", plan.ID.String()),
			zap.Int("version", plan.Version),
		)
	}

	resp := ToPlanResponse(plan)
	return &resp, nil
}

// Delete removes a plan nobody is enrolled in. The foreign key still
// rejects the delete if an enrollment lands after the pre-check.
func (s *PlanService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "delete", telemetry.SpanAttrPlanID, id.String())
	defer endSpan(span, &err)

	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	plan, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	enrolled, err := s.subscriptionRepo.CountByPlan(ctx, id)
	if err != nil {
		return err
	}
	if enrolled > 0 {
		logger.L(ctx).Warn("refusing to delete plan in use",
			zap.String("plan_id", id.String()),
			zap.Int64("subscriptions", enrolled),
		)
		return chit.ErrPlanInUse
	}

	if err := s.planRepo.Delete(ctx, id); err != nil {
		return err
	}

	plan.AddDomainEvent(chit.NewPlanDeletedEvent(plan, actor.ID))
	publishEvents(ctx, s.eventPublisher, plan)
	logger.L(ctx).Info("chit plan deleted", zap.String("plan_id", id.String()))
	return nil
}

// Verify promotes the plan to verified; admin or supervisor only
func (s *PlanService) Verify(ctx context.Context, id uuid.UUID) (_ *PlanResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "verify", telemetry.SpanAttrPlanID, id.String())
	defer endSpan(span, &err)

	plan, err := s.verifier.Verify(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(plan)
	return &resp, nil
}

func (s *PlanService) load(ctx context.Context, id uuid.UUID) (*chit.Plan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, shared.NewNotFoundError("PLAN", id.String())
	}
	return plan, nil
}
