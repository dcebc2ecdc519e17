package event

import (
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
)

// Verification event types raised through shared.NewRecordVerifiedEvent
const (
	EventTypePlanVerified        = chit.AggregateTypePlan + "Verified"
	EventTypeInstallmentVerified = chit.AggregateTypeInstallment + "Verified"
)

// ChitEventTypes lists every event the ledger raises
var ChitEventTypes = []string{
	chit.EventTypePlanCreated,
	chit.EventTypePlanUpdated,
	chit.EventTypePlanDeleted,
	EventTypePlanVerified,
	chit.EventTypeSubscriptionEnrolled,
	chit.EventTypeInstallmentRecorded,
	chit.EventTypeInstallmentUpdated,
	EventTypeInstallmentVerified,
}

// RegisterChitEvents registers the ledger's event types with the serializer
func RegisterChitEvents(serializer *EventSerializer) {
	serializer.Register(chit.EventTypePlanCreated, &chit.PlanCreatedEvent{})
	serializer.Register(chit.EventTypePlanUpdated, &chit.PlanUpdatedEvent{})
	serializer.Register(chit.EventTypePlanDeleted, &chit.PlanDeletedEvent{})
	serializer.Register(EventTypePlanVerified, &shared.RecordVerifiedEvent{})
	serializer.Register(chit.EventTypeSubscriptionEnrolled, &chit.SubscriptionEnrolledEvent{})
	serializer.Register(chit.EventTypeInstallmentRecorded, &chit.InstallmentRecordedEvent{})
	serializer.Register(chit.EventTypeInstallmentUpdated, &chit.InstallmentUpdatedEvent{})
	serializer.Register(EventTypeInstallmentVerified, &shared.RecordVerifiedEvent{})
}
