package shared

import (
	"time"

	"github.com/google/uuid"
)

// VerificationState tracks the one-way Pending -> Verified approval of an
// entity. Once verified it never goes back.
type VerificationState struct {
	IsVerified bool
	VerifiedAt *time.Time
	VerifiedBy string
}

// Verification returns a copy of the current state
func (v *VerificationState) Verification() VerificationState {
	return *v
}

// MarkVerified promotes the state to Verified. It returns false and leaves
// the state untouched when already verified.
func (v *VerificationState) MarkVerified(by string, at time.Time) bool {
	if v.IsVerified {
		return false
	}
	at = at.UTC()
	v.IsVerified = true
	v.VerifiedAt = &at
	v.VerifiedBy = by
	return true
}

// Status returns "verified" or "pending"
func (v *VerificationState) Status() string {
	if v.IsVerified {
		return "verified"
	}
	return "pending"
}

// Verifiable is implemented by entities that go through staff approval
type Verifiable interface {
	Entity
	Verification() VerificationState
	MarkVerified(by string, at time.Time) bool
}

// RecordVerifiedEvent is raised when any verifiable record is approved
type RecordVerifiedEvent struct {
	BaseDomainEvent
	VerifiedBy string    `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
}

// NewRecordVerifiedEvent creates a RecordVerifiedEvent for aggType
func NewRecordVerifiedEvent(aggType string, id uuid.UUID, state VerificationState) *RecordVerifiedEvent {
	e := &RecordVerifiedEvent{
		BaseDomainEvent: NewBaseDomainEvent(aggType+"Verified", aggType, id, state.VerifiedBy),
		VerifiedBy:      state.VerifiedBy,
	}
	if state.VerifiedAt != nil {
		e.VerifiedAt = *state.VerifiedAt
	}
	return e
}
