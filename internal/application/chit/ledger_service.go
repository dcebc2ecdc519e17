package chit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerService records and maintains installment payments
type LedgerService struct {
	planRepo         chit.PlanRepository
	subscriptionRepo chit.SubscriptionRepository
	installmentRepo  chit.InstallmentRepository
	verifier         *Verifier[chit.Installment, *chit.Installment]
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.LedgerMetrics
	now              func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	planRepo chit.PlanRepository,
	subscriptionRepo chit.SubscriptionRepository,
	installmentRepo chit.InstallmentRepository,
) *LedgerService {
	return &LedgerService{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		installmentRepo:  installmentRepo,
		verifier:         NewVerifier[chit.Installment, *chit.Installment](installmentRepo, "INSTALLMENT", "installment"),
		now:              time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
	s.verifier.SetEventPublisher(publisher)
}

// SetLedgerMetrics sets the ledger metrics recorder
func (s *LedgerService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
	s.verifier.SetLedgerMetrics(m)
}

// RecordInstallment records the payment for one period of a subscription.
// Concurrent attempts on the same period are settled by the store: exactly
// one succeeds and the rest get a DuplicatePeriod error.
func (s *LedgerService) RecordInstallment(ctx context.Context, req RecordInstallmentRequest) (_ *InstallmentResponse, err error) {
	chitNumber := chit.NormalizeChitNumber(req.ChitNumber)
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_installment",
		telemetry.SpanAttrChitNumber, chitNumber,
		telemetry.SpanAttrPeriod, req.PeriodIndex,
	)
	defer endSpan(span, &err)
	defer func() {
		if err != nil {
			s.metrics.RecordRejection(ctx, errorKind(err))
			logger.L(ctx).Warn("installment rejected",
				zap.String("chit_number", chitNumber),
				zap.Int("period_index", req.PeriodIndex),
				zap.Error(err),
			)
		}
	}()

	sub, err := s.subscriptionRepo.FindByChitNumber(ctx, chitNumber)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewNotFoundError("SUBSCRIPTION", chitNumber)
	}
	if err := sub.ValidatePeriod(req.PeriodIndex); err != nil {
		return nil, err
	}
	mode, err := chit.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return nil, err
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

	inst, err := sub.RecordInstallment(req.PeriodIndex, mode, req.Notes, req.RecordedBy, plan, paid, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.installmentRepo.Create(ctx, inst); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInstallmentID, inst.ID.String(),
		telemetry.SpanAttrPaymentMode, mode.String(),
	)

	publishEvents(ctx, s.eventPublisher, inst)
	s.metrics.RecordInstallment(ctx, mode.String(), inst.DueAmount)
	logger.L(ctx).Info("installment recorded",
		zap.String("chit_number", chitNumber),
		zap.Int("period_index", inst.PeriodIndex),
		zap.String("payment_mode", mode.String()),
		zap.String("due_amount", inst.DueAmount.String()),
		zap.String("recorded_by", inst.RecordedBy),
	)

	resp := ToInstallmentResponse(inst)
	return &resp, nil
}

// UpdateInstallment changes the payment mode, plan or notes. Period and
// recording time never change; a new plan re-snapshots the amounts.
func (s *LedgerService) UpdateInstallment(ctx context.Context, id uuid.UUID, req UpdateInstallmentRequest) (_ *InstallmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "update_installment", telemetry.SpanAttrInstallmentID, id.String())
	defer endSpan(span, &err)

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	inst, err := s.installmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, shared.NewNotFoundError("INSTALLMENT", id.String())
	}
	sub, err := s.subscriptionRepo.FindByID(ctx, inst.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewNotFoundError("SUBSCRIPTION", inst.SubscriptionID.String())
	}

	var plan *chit.Plan
	if req.PlanID != nil && *req.PlanID != uuid.Nil {
		if plan, err = s.planRepo.FindByID(ctx, *req.PlanID); err != nil {
			return nil, err
		}
	}

	changes := chit.InstallmentChanges{PaymentMode: req.PaymentMode, PlanID: req.PlanID, Notes: req.Notes}
	if err := inst.Apply(changes, plan, sub.DurationMonths, actor.ID); err != nil {
		return nil, err
	}
	if err := s.installmentRepo.SaveWithLock(ctx, inst); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, inst)
	logger.L(ctx).Info("installment updated",
		zap.String("installment_id", id.String()),
		zap.String("payment_mode", inst.PaymentMode.String()),
		zap.String("plan_id", inst.PlanID.String()),
	)

	resp := ToInstallmentResponse(inst)
	return &resp, nil
}

// ListInstallments returns a subscription's installments by ascending period
func (s *LedgerService) ListInstallments(ctx context.Context, subscriptionID uuid.UUID) ([]InstallmentResponse, error) {
	sub, err := s.subscriptionRepo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.NewNotFoundError("SUBSCRIPTION", subscriptionID.String())
	}
	items, err := s.installmentRepo.FindBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return ToInstallmentResponses(items), nil
}

// VerifyInstallment promotes the installment to verified; admin or supervisor only
func (s *LedgerService) VerifyInstallment(ctx context.Context, id uuid.UUID) (_ *InstallmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "verify_installment", telemetry.SpanAttrInstallmentID, id.String())
	defer endSpan(span, &err)

	inst, err := s.verifier.Verify(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInstallmentResponse(inst)
	return &resp, nil
}
