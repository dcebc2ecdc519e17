package chit

import (
	"context"

	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// eventSource is anything that buffers domain events until published
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands buffered events to the publisher. The write has already
// committed, so a publish failure is logged and not returned.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, source eventSource) {
	events := source.GetDomainEvents()
	source.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// requireActor returns the acting user or an authorization error
func requireActor(ctx context.Context) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.Actor{}, shared.ErrNoActor
	}
	return actor, nil
}

// endSpan marks span by the outcome in *errp and ends it
func endSpan(span trace.Span, errp *error) {
	if *errp != nil {
		telemetry.RecordError(span, *errp)
	} else {
		telemetry.SetOK(span)
	}
	span.End()
}

// errorKind names err's domain kind for metrics, or "internal"
func errorKind(err error) string {
	if kind, ok := shared.KindOf(err); ok {
		return string(kind)
	}
	return "internal"
}
