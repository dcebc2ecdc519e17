package chit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// VerifiableRepository is the persistence a Verifier needs
type VerifiableRepository[T any] interface {
	// FindByID returns nil when the record does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	// MarkVerified performs the conditional false -> true update
	MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)
}

// VerifiableRecord is the pointer type of a record that can be verified
type VerifiableRecord[T any] interface {
	*T
	shared.Verifiable
	eventSource
}

// Verifier promotes pending records of one type to verified. The same
// implementation serves plans and installments.
type Verifier[T any, PT VerifiableRecord[T]] struct {
	repo           VerifiableRepository[T]
	resource       string // NOT_FOUND code prefix, e.g. PLAN
	recordType     string // metric label, e.g. plan
	now            func() time.Time
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
}

// NewVerifier creates a Verifier over repo
func NewVerifier[T any, PT VerifiableRecord[T]](repo VerifiableRepository[T], resource, recordType string) *Verifier[T, PT] {
	return &Verifier[T, PT]{
		repo:       repo,
		resource:   resource,
		recordType: recordType,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for verification events
func (v *Verifier[T, PT]) SetEventPublisher(publisher shared.EventPublisher) {
	v.eventPublisher = publisher
}

// SetLedgerMetrics sets the metrics recorder
func (v *Verifier[T, PT]) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	v.metrics = m
}

// Verify marks the record verified by the acting user. Verifying an already
// verified record succeeds and leaves verified_at/verified_by untouched.
func (v *Verifier[T, PT]) Verify(ctx context.Context, id uuid.UUID) (PT, error) {
	actor, err := shared.RequireVerifier(ctx)
	if err != nil {
		return nil, err
	}

	found, err := v.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if found.Verification().IsVerified {
		return found, nil
	}

	at := v.now().UTC()
	flipped, err := v.repo.MarkVerified(ctx, id, actor.ID, at)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// another verifier got there first, or the row was deleted
		return v.load(ctx, id)
	}

	found.MarkVerified(actor.ID, at)
	publishEvents(ctx, v.eventPublisher, found)
	v.metrics.RecordVerified(ctx, v.recordType)
	logger.L(ctx).Info("record verified",
		zap.String("record_type", v.recordType),
		zap.String("id", id.String()),
		zap.String("verified_by", actor.ID),
	)
	return found, nil
}

func (v *Verifier[T, PT]) load(ctx context.Context, id uuid.UUID) (PT, error) {
	found, err := v.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, shared.NewNotFoundError(v.resource, id.String())
	}
	return PT(found), nil
}
