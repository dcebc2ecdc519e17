package event

import (
	"context"
	"encoding/json"

	"github.com/retailerp/chitledger/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every ledger event to the audit log
type AuditLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates a handler that logs under the "audit" name
func NewAuditLogHandler(serializer *EventSerializer, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		serializer: serializer,
		logger:     logger.Named("audit"),
	}
}

// EventTypes returns nil so the handler sees every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event envelope and its JSON payload
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("actor_id", event.ActorID()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	if !h.serializer.IsRegistered(event.EventType()) {
		h.logger.Warn("unregistered event type", fields...)
		return nil
	}

	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	fields = append(fields, zap.Any("payload", json.RawMessage(payload)))
	h.logger.Info("ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
