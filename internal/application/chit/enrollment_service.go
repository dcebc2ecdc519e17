package chit

import (
	"context"

	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// EnrollmentService enrolls customers into plans and looks subscriptions up
// by chit number
type EnrollmentService struct {
	planRepo         chit.PlanRepository
	subscriptionRepo chit.SubscriptionRepository
	installmentRepo  chit.InstallmentRepository
	sequence         chit.ChitNumberSequence
	customers        chit.CustomerDirectory
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.LedgerMetrics
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	planRepo chit.PlanRepository,
	subscriptionRepo chit.SubscriptionRepository,
	installmentRepo chit.InstallmentRepository,
	sequence chit.ChitNumberSequence,
	customers chit.CustomerDirectory,
) *EnrollmentService {
	return &EnrollmentService{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		installmentRepo:  installmentRepo,
		sequence:         sequence,
		customers:        customers,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *EnrollmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the ledger metrics recorder
func (s *EnrollmentService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Enroll creates a subscription under a freshly issued chit number. Input is
// fully validated before a number is drawn from the sequence.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (_ *EnrollmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrollment", "enroll", telemetry.SpanAttrPlanID, req.PlanID.String())
	defer endSpan(span, &err)

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	name, err := chit.NormalizeCustomerName(req.CustomerName)
	if err != nil {
		return nil, err
	}
	phone, err := chit.NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if err := chit.ValidateDuration(req.DurationMonths); err != nil {
		return nil, err
	}
	start, err := chit.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	plan, err := s.planRepo.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, shared.NewValidationErrorf("INVALID_PLAN", "Plan %s does not exist", req.PlanID)
	}

	customer, err := s.customers.Resolve(ctx, name, phone)
	if err != nil {
		return nil, err
	}

	seq, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, err
	}
	chitNumber := chit.FormatChitNumber(seq)
	taken, err := s.subscriptionRepo.ExistsByChitNumber(ctx, chitNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewConflictError("CHIT_NUMBER_TAKEN", "Chit number "+chitNumber+" is already in use", true)
	}

	sub, err := chit.NewSubscription(chitNumber, plan, customer, req.DurationMonths, start, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSubscriptionID, sub.ID.String(),
		telemetry.SpanAttrChitNumber, sub.ChitNumber,
	)

	publishEvents(ctx, s.eventPublisher, sub)
	s.metrics.RecordEnrollment(ctx)
	logger.L(ctx).Info("customer enrolled",
		zap.String("chit_number", sub.ChitNumber),
		zap.String("plan_id", plan.ID.String()),
		zap.String("customer_id", sub.CustomerID.String()),
		zap.Int("duration_months", sub.DurationMonths),
		zap.Time("maturity_date", sub.MaturityDate),
	)

	return &EnrollmentResponse{
		ChitNumber:   sub.ChitNumber,
		MaturityDate: sub.MaturityDate.Format(chit.DateLayout),
		Subscription: ToSubscriptionResponse(sub),
	}, nil
}

// LookupByChitNumber returns the subscription with its plan and paid periods
func (s *EnrollmentService) LookupByChitNumber(ctx context.Context, chitNumber string) (_ *ChitLookupResponse, err error) {
	chitNumber = chit.NormalizeChitNumber(chitNumber)
	ctx, span := telemetry.StartServiceSpan(ctx, "enrollment", "lookup", telemetry.SpanAttrChitNumber, chitNumber)
	defer endSpan(span, &err)

	sub, err := s.subscriptionRepo.FindByChitNumber(ctx, chitNumber)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewNotFoundError("SUBSCRIPTION", chitNumber)
	}
	plan, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, shared.NewNotFoundError("PLAN", sub.PlanID.String())
	}
	paid, err := s.installmentRepo.PaidPeriods(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	resp := toChitLookupResponse(sub, plan, sub.Progress(paid))
	return &resp, nil
}

