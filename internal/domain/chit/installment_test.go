package chit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInstallment(t *testing.T) (*Installment, *Subscription) {
	t.Helper()
	plan := createTestPlan(t)
	s := createTestSubscription(t, plan, 5, date(2024, 1, 1))
	inst, err := s.RecordInstallment(2, PaymentModeCash, "", "staff-1", plan, []int{1}, time.Now())
	require.NoError(t, err)
	inst.ClearDomainEvents()
	return inst, s
}

func strPtr(s string) *string { return &s }

func TestInstallment_Apply(t *testing.T) {
	t.Run("changes mode and notes", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		recordedAt := inst.RecordedAt

		err := inst.Apply(InstallmentChanges{PaymentMode: strPtr("card"), Notes: strPtr(" swiped ")}, nil, s.DurationMonths, "staff-2")
		require.NoError(t, err)
		assert.Equal(t, PaymentModeCard, inst.PaymentMode)
		assert.Equal(t, "swiped", inst.Notes)
		assert.Equal(t, 2, inst.PeriodIndex)
		assert.Equal(t, recordedAt, inst.RecordedAt)
		assert.Equal(t, 2, inst.Version)
		require.Len(t, inst.GetDomainEvents(), 1)
	})

	t.Run("re-snapshots plan amounts", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		other, err := NewPlan("Platinum", decimal.NewFromInt(10000), "")
		require.NoError(t, err)

		err = inst.Apply(InstallmentChanges{PlanID: &other.ID}, other, s.DurationMonths, "staff-2")
		require.NoError(t, err)
		assert.Equal(t, other.ID, inst.PlanID)
		assert.Equal(t, "10000.00", inst.PlanAmount.StringFixed(2))
		assert.Equal(t, "2000.00", inst.DueAmount.StringFixed(2))
	})

	t.Run("rejects cleared mode", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		err := inst.Apply(InstallmentChanges{PaymentMode: strPtr("")}, nil, s.DurationMonths, "staff-2")
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		assert.Equal(t, PaymentModeCash, inst.PaymentMode)
	})

	t.Run("rejects cleared plan", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		nilID := uuid.Nil
		err := inst.Apply(InstallmentChanges{PlanID: &nilID}, nil, s.DurationMonths, "staff-2")
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("rejects unresolved plan", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		id := uuid.New()
		err := inst.Apply(InstallmentChanges{PlanID: &id}, nil, s.DurationMonths, "staff-2")
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("editing verified installment keeps verification", func(t *testing.T) {
		inst, s := createTestInstallment(t)
		require.True(t, inst.MarkVerified("sup-1", time.Now()))
		require.NoError(t, inst.Apply(InstallmentChanges{Notes: strPtr("late")}, nil, s.DurationMonths, "staff-2"))
		assert.True(t, inst.IsVerified)
		assert.Equal(t, "sup-1", inst.VerifiedBy)
	})
}

func TestInstallment_MarkVerified(t *testing.T) {
	inst, _ := createTestInstallment(t)
	at := time.Now()
	assert.True(t, inst.MarkVerified("sup-1", at))
	assert.False(t, inst.MarkVerified("sup-1", at))
	assert.True(t, inst.IsVerified)
	require.Len(t, inst.GetDomainEvents(), 1)
	assert.Equal(t, "ChitInstallmentVerified", inst.GetDomainEvents()[0].EventType())
}

func TestInstallment_NotesLengthCountsCharacters(t *testing.T) {
	plan := createTestPlan(t)
	s := createTestSubscription(t, plan, 5, date(2024, 1, 1))

	// 500 Devanagari characters are 1500 bytes
	notes := strings.Repeat("क", maxNotesLength)
	inst, err := s.RecordInstallment(1, PaymentModeUPI, notes, "staff-1", plan, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, notes, inst.Notes)

	_, err = s.RecordInstallment(2, PaymentModeUPI, notes+"क", "staff-1", plan, nil, time.Now())
	assert.True(t, shared.IsKind(err, shared.KindValidation), "got %v", err)
}
