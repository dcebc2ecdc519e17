package chit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := chit.ParseDate(s)
	require.NoError(t, err)
	return d
}

type ledgerMocks struct {
	plans        *MockPlanRepository
	subs         *MockSubscriptionRepository
	installments *MockInstallmentRepository
	publisher    *recordingPublisher
	plan         *chit.Plan
	sub          *chit.Subscription
}

func newLedgerService(t *testing.T) (*LedgerService, *ledgerMocks) {
	t.Helper()
	plan := existingPlan(t)
	customer := &chit.Customer{ID: uuid.New(), Name: "Asha Rao", Phone: "9876543210"}
	sub, err := chit.NewSubscription("CHIT-000001", plan, customer, 5, mustDate(t, "2024-01-01"), "staff-1")
	require.NoError(t, err)
	sub.ClearDomainEvents()

	m := &ledgerMocks{
		plans:        new(MockPlanRepository),
		subs:         new(MockSubscriptionRepository),
		installments: new(MockInstallmentRepository),
		publisher:    &recordingPublisher{},
		plan:         plan,
		sub:          sub,
	}
	svc := NewLedgerService(m.plans, m.subs, m.installments)
	svc.SetEventPublisher(m.publisher)
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 11, 30, 0, 0, time.UTC) }

	m.subs.On("FindByChitNumber", mock.Anything, "CHIT-000001").Return(sub, nil).Maybe()
	m.subs.On("FindByID", mock.Anything, sub.ID).Return(sub, nil).Maybe()
	m.plans.On("FindByID", mock.Anything, plan.ID).Return(plan, nil).Maybe()
	return svc, m
}

func TestLedgerService_RecordInstallment(t *testing.T) {
	svc, m := newLedgerService(t)
	m.installments.On("PaidPeriods", mock.Anything, m.sub.ID).Return([]int{}, nil)
	m.installments.On("Create", mock.Anything, mock.AnythingOfType("*chit.Installment")).Return(nil)

	resp, err := svc.RecordInstallment(t.Context(), RecordInstallmentRequest{
		ChitNumber:  "chit-000001",
		PeriodIndex: 1,
		PaymentMode: "cash",
		Notes:       "first month",
		RecordedBy:  "staff-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.PeriodIndex)
	assert.Equal(t, "Cash", resp.PaymentMode)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, resp.PlanAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, resp.DueAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, time.Date(2024, 1, 3, 11, 30, 0, 0, time.UTC), resp.RecordedAt)
	assert.Equal(t, []string{chit.EventTypeInstallmentRecorded}, m.publisher.Types())
}

func TestLedgerService_RecordInstallment_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  RecordInstallmentRequest
		paid []int
		kind shared.ErrorKind
	}{
		{"unknown chit number", RecordInstallmentRequest{ChitNumber: "CHIT-404404", PeriodIndex: 1, PaymentMode: "Cash", RecordedBy: "s"}, nil, shared.KindNotFound},
		{"period zero", RecordInstallmentRequest{ChitNumber: "CHIT-000001", PeriodIndex: 0, PaymentMode: "Cash", RecordedBy: "s"}, nil, shared.KindValidation},
		{"period past duration", RecordInstallmentRequest{ChitNumber: "CHIT-000001", PeriodIndex: 6, PaymentMode: "Cash", RecordedBy: "s"}, nil, shared.KindValidation},
		{"unsupported mode", RecordInstallmentRequest{ChitNumber: "CHIT-000001", PeriodIndex: 1, PaymentMode: "Cheque", RecordedBy: "s"}, nil, shared.KindValidation},
		{"blank recorder", RecordInstallmentRequest{ChitNumber: "CHIT-000001", PeriodIndex: 1, PaymentMode: "UPI", RecordedBy: "  "}, []int{}, shared.KindValidation},
		{"period already paid", RecordInstallmentRequest{ChitNumber: "CHIT-000001", PeriodIndex: 2, PaymentMode: "UPI", RecordedBy: "s"}, []int{1, 2}, shared.KindDuplicatePeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newLedgerService(t)
			m.subs.On("FindByChitNumber", mock.Anything, "CHIT-404404").Return(nil, nil).Maybe()
			m.installments.On("PaidPeriods", mock.Anything, m.sub.ID).Return(tt.paid, nil).Maybe()

			_, err := svc.RecordInstallment(t.Context(), tt.req)

			assert.True(t, shared.IsKind(err, tt.kind), "got %v", err)
			m.installments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, m.publisher.Types())
		})
	}
}

func TestLedgerService_RecordInstallment_LosesRaceAtInsert(t *testing.T) {
	svc, m := newLedgerService(t)
	m.installments.On("PaidPeriods", mock.Anything, m.sub.ID).Return([]int{}, nil)
	m.installments.On("Create", mock.Anything, mock.Anything).Return(shared.NewDuplicatePeriodError("CHIT-000001", 1))

	_, err := svc.RecordInstallment(t.Context(), RecordInstallmentRequest{
		ChitNumber: "CHIT-000001", PeriodIndex: 1, PaymentMode: "Cash", RecordedBy: "staff-2",
	})
	assert.True(t, shared.IsKind(err, shared.KindDuplicatePeriod))
	assert.Empty(t, m.publisher.Types())
}

func recordedInstallment(t *testing.T, m *ledgerMocks, period int) *chit.Installment {
	t.Helper()
	inst, err := m.sub.RecordInstallment(period, chit.PaymentModeCash, "", "staff-1", m.plan, nil, time.Now())
	require.NoError(t, err)
	inst.ClearDomainEvents()
	return inst
}

func TestLedgerService_UpdateInstallment(t *testing.T) {
	t.Run("switches plan and re-snapshots amounts", func(t *testing.T) {
		svc, m := newLedgerService(t)
		inst := recordedInstallment(t, m, 2)
		silver, err := chit.NewPlan("Silver", decimal.NewFromInt(2500), "admin-1")
		require.NoError(t, err)

		m.installments.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)
		m.plans.On("FindByID", mock.Anything, silver.ID).Return(silver, nil)
		m.installments.On("SaveWithLock", mock.Anything, inst).Return(nil)

		mode := "upi"
		resp, err := svc.UpdateInstallment(asActor("staff-1", shared.RoleStaff), inst.ID, UpdateInstallmentRequest{
			PaymentMode: &mode, PlanID: &silver.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "UPI", resp.PaymentMode)
		assert.Equal(t, silver.ID, resp.PlanID)
		assert.True(t, resp.PlanAmount.Equal(decimal.NewFromInt(2500)))
		assert.True(t, resp.DueAmount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 2, resp.PeriodIndex)
		assert.Equal(t, []string{chit.EventTypeInstallmentUpdated}, m.publisher.Types())
	})

	t.Run("clearing payment mode is rejected", func(t *testing.T) {
		svc, m := newLedgerService(t)
		inst := recordedInstallment(t, m, 1)
		m.installments.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)

		empty := ""
		_, err := svc.UpdateInstallment(asActor("staff-1", shared.RoleStaff), inst.ID, UpdateInstallmentRequest{PaymentMode: &empty})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		m.installments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("clearing plan is rejected", func(t *testing.T) {
		svc, m := newLedgerService(t)
		inst := recordedInstallment(t, m, 1)
		m.installments.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)

		_, err := svc.UpdateInstallment(asActor("staff-1", shared.RoleStaff), inst.ID, UpdateInstallmentRequest{PlanID: &uuid.Nil})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("unknown plan is rejected", func(t *testing.T) {
		svc, m := newLedgerService(t)
		inst := recordedInstallment(t, m, 1)
		missing := uuid.New()
		m.installments.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)
		m.plans.On("FindByID", mock.Anything, missing).Return(nil, nil)

		_, err := svc.UpdateInstallment(asActor("staff-1", shared.RoleStaff), inst.ID, UpdateInstallmentRequest{PlanID: &missing})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("missing installment", func(t *testing.T) {
		svc, m := newLedgerService(t)
		id := uuid.New()
		m.installments.On("FindByID", mock.Anything, id).Return(nil, nil)

		notes := "x"
		_, err := svc.UpdateInstallment(asActor("staff-1", shared.RoleStaff), id, UpdateInstallmentRequest{Notes: &notes})
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
	})
}

func TestLedgerService_VerifyInstallment_RequiresVerifierRole(t *testing.T) {
	svc, m := newLedgerService(t)

	_, err := svc.VerifyInstallment(asActor("staff-1", shared.RoleStaff), uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindAuthorization))
	m.installments.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_ListInstallments_UnknownSubscription(t *testing.T) {
	svc, m := newLedgerService(t)
	id := uuid.New()
	m.subs.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.ListInstallments(t.Context(), id)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}
