package chit

import (
	"strings"
	"testing"
	"time"

	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPlan(t *testing.T) *Plan {
	t.Helper()
	p, err := NewPlan("Gold 5000", decimal.NewFromInt(5000), "admin-1")
	require.NoError(t, err)
	return p
}

// ============================================
// Plan creation
// ============================================

func TestNewPlan(t *testing.T) {
	t.Run("creates unverified plan", func(t *testing.T) {
		p := createTestPlan(t)
		assert.Equal(t, "Gold 5000", p.Name)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(5000)))
		assert.False(t, p.IsVerified)
		assert.Nil(t, p.VerifiedAt)
		assert.Equal(t, 1, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePlanCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("trims name", func(t *testing.T) {
		p, err := NewPlan("  Silver  ", decimal.NewFromInt(1000), "")
		require.NoError(t, err)
		assert.Equal(t, "Silver", p.Name)
	})

	tests := []struct {
		name   string
		plan   string
		amount decimal.Decimal
		code   string
	}{
		{"blank name", "   ", decimal.NewFromInt(100), "INVALID_PLAN_NAME"},
		{"long name", strings.Repeat("x", 101), decimal.NewFromInt(100), "INVALID_PLAN_NAME"},
		{"zero amount", "Gold", decimal.Zero, "INVALID_PLAN_AMOUNT"},
		{"negative amount", "Gold", decimal.NewFromInt(-5), "INVALID_PLAN_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.plan, tt.amount, "")
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, shared.KindValidation, de.Kind)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

// ============================================
// Plan updates
// ============================================

func TestPlan_Apply(t *testing.T) {
	t.Run("partial name update", func(t *testing.T) {
		p := createTestPlan(t)
		p.ClearDomainEvents()
		name := "Gold Plus"
		require.NoError(t, p.Apply(PlanChanges{Name: &name}, "admin-1"))
		assert.Equal(t, "Gold Plus", p.Name)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, 2, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePlanUpdated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("no-op keeps version", func(t *testing.T) {
		p := createTestPlan(t)
		same := decimal.NewFromInt(5000)
		require.NoError(t, p.Apply(PlanChanges{Amount: &same}, "admin-1"))
		assert.Equal(t, 1, p.Version)
	})

	t.Run("rejects invalid amount without partial apply", func(t *testing.T) {
		p := createTestPlan(t)
		name := "Renamed"
		bad := decimal.Zero
		err := p.Apply(PlanChanges{Name: &name, Amount: &bad}, "admin-1")
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		assert.Equal(t, "Gold 5000", p.Name)
	})
}

func TestPlan_DueAmount(t *testing.T) {
	p := createTestPlan(t)
	assert.Equal(t, "1000.00", p.DueAmount(5, 1).StringFixed(2))
	assert.Equal(t, "1000.00", p.DueAmount(5, 5).StringFixed(2))
	assert.True(t, p.DueAmount(5, 6).IsZero())
	assert.True(t, p.DueAmount(0, 1).IsZero())

	odd, err := NewPlan("Odd", decimal.NewFromInt(1000), "")
	require.NoError(t, err)
	assert.Equal(t, "333.34", odd.DueAmount(3, 1).StringFixed(2))
	assert.Equal(t, "333.33", odd.DueAmount(3, 3).StringFixed(2))
}

func TestPlan_MarkVerified(t *testing.T) {
	p := createTestPlan(t)
	p.ClearDomainEvents()
	at := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	assert.True(t, p.MarkVerified("sup-1", at))
	assert.True(t, p.IsVerified)
	assert.Equal(t, 2, p.Version)
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, "ChitPlanVerified", p.GetDomainEvents()[0].EventType())

	assert.False(t, p.MarkVerified("sup-2", at.Add(time.Hour)))
	assert.Equal(t, "sup-1", p.VerifiedBy)
	assert.Equal(t, 2, p.Version)

	var _ shared.Verifiable = p
}
