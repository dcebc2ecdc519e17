//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	chitapp "github.com/retailerp/chitledger/internal/application/chit"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence"
	"github.com/retailerp/chitledger/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct {
	db         *TestDB
	plans      *chitapp.PlanService
	enrollment *chitapp.EnrollmentService
	payments   *chitapp.LedgerService
	query      *chitapp.QueryService
	planRepo   *persistence.GormChitPlanRepository
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	tdb := NewTestDB(t)
	planRepo := persistence.NewGormChitPlanRepository(tdb.DB)
	subRepo := persistence.NewGormChitSubscriptionRepository(tdb.DB)
	instRepo := persistence.NewGormChitInstallmentRepository(tdb.DB)
	return &ledger{
		db:    tdb,
		plans: chitapp.NewPlanService(planRepo, subRepo),
		enrollment: chitapp.NewEnrollmentService(planRepo, subRepo, instRepo,
			persistence.NewGormChitNumberSequence(tdb.DB, "chit_number"), persistence.NewGormCustomerDirectory(tdb.DB)),
		payments: chitapp.NewLedgerService(planRepo, subRepo, instRepo),
		query:    chitapp.NewQueryService(subRepo, instRepo),
		planRepo: planRepo,
	}
}

func (l *ledger) enroll(t *testing.T, phone string, duration int) (*chitapp.PlanResponse, *chitapp.EnrollmentResponse) {
	t.Helper()
	admin := testutil.ActorContext("admin-1", shared.RoleAdmin)
	plan, err := l.plans.Create(admin, chitapp.CreatePlanRequest{Name: "Gold " + phone, Amount: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	enrolled, err := l.enrollment.Enroll(testutil.StaffContext(), chitapp.EnrollRequest{
		CustomerName: "Asha Rao", Phone: phone, PlanID: plan.ID, DurationMonths: duration, StartDate: "2024-01-01",
	})
	require.NoError(t, err)
	return plan, enrolled
}

func TestPostgres_ConcurrentSamePeriod(t *testing.T) {
	l := newLedger(t)
	_, enrolled := l.enroll(t, "9876543210", 5)

	const workers = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.payments.RecordInstallment(context.Background(), chitapp.RecordInstallmentRequest{
				ChitNumber: enrolled.ChitNumber, PeriodIndex: 3, PaymentMode: "Cash",
				RecordedBy: fmt.Sprintf("terminal-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case shared.IsKind(err, shared.KindDuplicatePeriod):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)

	var rows int64
	require.NoError(t, l.db.DB.Table("chit_installments").Where("period_index = ?", 3).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestPostgres_ConcurrentEnrollmentsGetDistinctChitNumbers(t *testing.T) {
	l := newLedger(t)
	plan, _ := l.enroll(t, "9000000000", 3)

	const workers = 10
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enrolled, err := l.enrollment.Enroll(testutil.StaffContext(), chitapp.EnrollRequest{
				CustomerName: fmt.Sprintf("Customer %d", i), Phone: fmt.Sprintf("98%08d", i),
				PlanID: plan.ID, DurationMonths: 3, StartDate: "2024-02-01",
			})
			if assert.NoError(t, err) {
				numbers <- enrolled.ChitNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{"CHIT-000001": true}
	for n := range numbers {
		assert.False(t, seen[n], "chit number %s issued twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers+1)
}

func TestPostgres_ChitNumbersNotReusedAfterCleanup(t *testing.T) {
	l := newLedger(t)
	_, first := l.enroll(t, "9111111111", 2)
	assert.Equal(t, "CHIT-000001", first.ChitNumber)

	l.db.CleanTables()

	_, second := l.enroll(t, "9111111111", 2)
	assert.Equal(t, "CHIT-000002", second.ChitNumber)
}

func TestPostgres_PlanDeleteBlockedWhileReferenced(t *testing.T) {
	l := newLedger(t)
	plan, _ := l.enroll(t, "9222222222", 2)

	err := l.plans.Delete(testutil.ActorContext("admin-1", shared.RoleAdmin), plan.ID)
	assert.ErrorIs(t, err, chit.ErrPlanInUse)

	// The foreign key holds even if the pre-check is bypassed.
	err = l.planRepo.Delete(context.Background(), plan.ID)
	assert.ErrorIs(t, err, chit.ErrPlanInUse)
}

func TestPostgres_VerifyNeverRegresses(t *testing.T) {
	l := newLedger(t)
	_, enrolled := l.enroll(t, "9333333333", 2)
	inst, err := l.payments.RecordInstallment(context.Background(), chitapp.RecordInstallmentRequest{
		ChitNumber: enrolled.ChitNumber, PeriodIndex: 1, PaymentMode: "UPI", RecordedBy: "staff-1",
	})
	require.NoError(t, err)

	first, err := l.payments.VerifyInstallment(testutil.SupervisorContext(), inst.ID)
	require.NoError(t, err)
	second, err := l.payments.VerifyInstallment(testutil.ActorContext("admin-2", shared.RoleAdmin), inst.ID)
	require.NoError(t, err)

	assert.True(t, second.IsVerified)
	assert.Equal(t, first.VerifiedBy, second.VerifiedBy)

	summary, err := l.query.LedgerSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.VerifiedInstallments)
	assert.Equal(t, int64(0), summary.PendingInstallments)
}
