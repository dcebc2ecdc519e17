package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	chitapp "github.com/retailerp/chitledger/internal/application/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/retailerp/chitledger/internal/interfaces/http/middleware"
	"github.com/retailerp/chitledger/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoleHeader = "X-Test-Role"

// newChitRouter mounts the chit handlers over a fresh sqlite ledger. The
// acting user comes from X-Test-Role instead of a JWT.
func newChitRouter(t *testing.T) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()

	db := testutil.NewSQLiteDB(t)
	planRepo := persistence.NewGormChitPlanRepository(db)
	subRepo := persistence.NewGormChitSubscriptionRepository(db)
	instRepo := persistence.NewGormChitInstallmentRepository(db)

	plans := NewPlanHandler(chitapp.NewPlanService(planRepo, subRepo))
	ledger := chitapp.NewLedgerService(planRepo, subRepo, instRepo)
	query := chitapp.NewQueryService(subRepo, instRepo)
	enrollment := chitapp.NewEnrollmentService(planRepo, subRepo, instRepo,
		persistence.NewGormChitNumberSequence(db, "chit_number"), persistence.NewGormCustomerDirectory(db))
	subs := NewSubscriptionHandler(enrollment, ledger, query)
	insts := NewInstallmentHandler(ledger, query)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader(testRoleHeader); role != "" {
			actor := shared.Actor{ID: role + "-1", Role: shared.Role(role)}
			c.Request = c.Request.WithContext(shared.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	})

	g := r.Group("/chit")
	g.POST("/plans", plans.Create)
	g.GET("/plans", plans.List)
	g.GET("/plans/:id", plans.GetByID)
	g.PATCH("/plans/:id", plans.Update)
	g.DELETE("/plans/:id", plans.Delete)
	g.POST("/plans/:id/verify", plans.Verify)
	g.POST("/subscriptions", subs.Enroll)
	g.GET("/subscriptions", subs.List)
	g.GET("/subscriptions/by-number/:chitNumber", subs.LookupByChitNumber)
	g.GET("/subscriptions/:id/installments", subs.ListInstallments)
	g.POST("/installments", insts.Record)
	g.GET("/installments", insts.List)
	g.PATCH("/installments/:id", insts.Update)
	g.POST("/installments/:id/verify", insts.Verify)
	g.GET("/reports/summary", insts.Summary)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, role string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(testRoleHeader, role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func seedEnrollment(t *testing.T, r *gin.Engine) (planID, chitNumber, subscriptionID string) {
	t.Helper()
	w, resp := do(t, r, http.MethodPost, "/chit/plans", "admin", gin.H{"name": "Gold", "amount": "5000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	planID = dataMap(t, resp)["id"].(string)

	w, resp = do(t, r, http.MethodPost, "/chit/subscriptions", "staff", gin.H{
		"customer_name":   "Asha Rao",
		"phone":           "9876543210",
		"plan_id":         planID,
		"duration_months": 5,
		"start_date":      "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataMap(t, resp)
	sub := data["subscription"].(map[string]any)
	return planID, data["chit_number"].(string), sub["id"].(string)
}

func TestChitHandlers_EnrollAndRecord(t *testing.T) {
	r := newChitRouter(t)
	_, chitNumber, subID := seedEnrollment(t, r)
	assert.Equal(t, "CHIT-000001", chitNumber)

	w, resp := do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
		"chit_number": "chit-000001", "period_index": 1, "payment_mode": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inst := dataMap(t, resp)
	assert.Equal(t, "Cash", inst["payment_mode"])
	assert.Equal(t, "staff-1", inst["recorded_by"])
	assert.Equal(t, false, inst["is_verified"])

	w, resp = do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
		"chit_number": chitNumber, "period_index": 1, "payment_mode": "UPI",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeDuplicatePeriod, resp.Error.Code)

	w, resp = do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
		"chit_number": chitNumber, "period_index": 6, "payment_mode": "Cash",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	w, resp = do(t, r, http.MethodGet, "/chit/subscriptions/by-number/"+chitNumber, "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lookup := dataMap(t, resp)
	assert.Equal(t, []any{float64(1)}, lookup["paid_periods"])
	assert.Equal(t, float64(4), lookup["remaining_periods"])
	assert.Equal(t, "2024-06-01", lookup["maturity_date"])

	w, resp = do(t, r, http.MethodGet, "/chit/subscriptions/"+subID+"/installments", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
}

func TestChitHandlers_Validation(t *testing.T) {
	r := newChitRouter(t)

	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{"missing plan name", "/chit/plans", gin.H{"amount": "100"}, dto.ErrCodeValidation},
		{"non-positive amount", "/chit/plans", gin.H{"name": "Zero", "amount": "0"}, dto.ErrCodeValidation},
		{"bad start date", "/chit/subscriptions", gin.H{
			"customer_name": "A", "phone": "9876543210", "plan_id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"duration_months": 3, "start_date": "01/02/2024",
		}, dto.ErrCodeValidation},
		{"bad plan id", "/chit/subscriptions", gin.H{
			"customer_name": "A", "phone": "9876543210", "plan_id": "gold",
			"duration_months": 3, "start_date": "2024-01-01",
		}, dto.ErrCodeValidation},
		{"missing period", "/chit/installments", gin.H{"chit_number": "CHIT-000001", "payment_mode": "Cash"}, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, r, http.MethodPost, tt.path, "admin", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestChitHandlers_MalformedJSON(t *testing.T) {
	r := newChitRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/chit/plans", bytes.NewBufferString("{"))
	req.Header.Set(testRoleHeader, "admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
}

func TestChitHandlers_UnknownChitNumber(t *testing.T) {
	r := newChitRouter(t)
	w, resp := do(t, r, http.MethodGet, "/chit/subscriptions/by-number/CHIT-999999", "staff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestChitHandlers_VerifyInstallment(t *testing.T) {
	r := newChitRouter(t)
	_, chitNumber, _ := seedEnrollment(t, r)
	_, resp := do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
		"chit_number": chitNumber, "period_index": 2, "payment_mode": "Card",
	})
	id := dataMap(t, resp)["id"].(string)

	w, resp := do(t, r, http.MethodPost, "/chit/installments/"+id+"/verify", "staff", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)

	w, resp = do(t, r, http.MethodPost, "/chit/installments/"+id+"/verify", "supervisor", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, dataMap(t, resp)["is_verified"])
	assert.Equal(t, "supervisor-1", dataMap(t, resp)["verified_by"])

	w, resp = do(t, r, http.MethodGet, "/chit/installments?verified=true", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestChitHandlers_UpdateInstallment(t *testing.T) {
	r := newChitRouter(t)
	_, chitNumber, _ := seedEnrollment(t, r)
	_, resp := do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
		"chit_number": chitNumber, "period_index": 1, "payment_mode": "Cash",
	})
	id := dataMap(t, resp)["id"].(string)

	w, resp := do(t, r, http.MethodPatch, "/chit/installments/"+id, "staff", gin.H{
		"payment_mode": "upi", "notes": "paid via app",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inst := dataMap(t, resp)
	assert.Equal(t, "UPI", inst["payment_mode"])
	assert.Equal(t, "paid via app", inst["notes"])
	assert.Equal(t, float64(1), inst["period_index"])

	w, _ = do(t, r, http.MethodPatch, "/chit/installments/"+id, "staff", gin.H{"payment_mode": "Cheque"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cleared := []gin.H{
		{"payment_mode": nil},
		{"payment_mode": ""},
		{"plan_id": nil},
		{"plan_id": ""},
		{"plan_id": "not-a-uuid"},
	}
	for _, body := range cleared {
		w, resp = do(t, r, http.MethodPatch, "/chit/installments/"+id, "staff", body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %v: %s", body, w.Body.String())
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code, "body %v", body)
	}

	// notes are optional, so null clears them
	w, resp = do(t, r, http.MethodPatch, "/chit/installments/"+id, "staff", gin.H{"notes": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inst = dataMap(t, resp)
	assert.Empty(t, inst["notes"])
	assert.Equal(t, "UPI", inst["payment_mode"])
}

func TestChitHandlers_PlanLifecycle(t *testing.T) {
	r := newChitRouter(t)
	planID, _, _ := seedEnrollment(t, r)

	w, resp := do(t, r, http.MethodPatch, "/chit/plans/"+planID, "admin", gin.H{"amount": "6000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "6000", dataMap(t, resp)["amount"])

	w, resp = do(t, r, http.MethodGet, "/chit/plans?search=gol", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)

	w, resp = do(t, r, http.MethodDelete, "/chit/plans/"+planID, "admin", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/chit/plans/not-a-uuid", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChitHandlers_DeleteUnusedPlan(t *testing.T) {
	r := newChitRouter(t)
	_, resp := do(t, r, http.MethodPost, "/chit/plans", "admin", gin.H{"name": "Silver", "amount": 2500})
	id := dataMap(t, resp)["id"].(string)

	w, _ := do(t, r, http.MethodDelete, "/chit/plans/"+id, "admin", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodGet, "/chit/plans/"+id, "admin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChitHandlers_SubscriptionsAndSummary(t *testing.T) {
	r := newChitRouter(t)
	_, chitNumber, _ := seedEnrollment(t, r)
	for period := 1; period <= 5; period++ {
		w, _ := do(t, r, http.MethodPost, "/chit/installments", "staff", gin.H{
			"chit_number": chitNumber, "period_index": period, "payment_mode": "Cash",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := do(t, r, http.MethodGet, "/chit/subscriptions?completed=true", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := resp.Data.([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, true, rows[0].(map[string]any)["is_completed"])

	w, resp = do(t, r, http.MethodGet, "/chit/reports/summary", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := dataMap(t, resp)
	assert.Equal(t, float64(1), summary["completed_subscriptions"])
	assert.Equal(t, float64(5), summary["pending_installments"])
	assert.Equal(t, "5000", summary["collected_amount"])
}

func TestChitHandlers_LedgerFeedRejectsBadDate(t *testing.T) {
	r := newChitRouter(t)
	w, resp := do(t, r, http.MethodGet, "/chit/installments?recorded_from=yesterday", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"healthy", nil, http.StatusOK},
		{"database down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(stubPinger{err: tt.err}).Check)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
