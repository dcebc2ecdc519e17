package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB_AppliesSchema(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"chit_plans", "customers", "chit_subscriptions", "chit_installments", "chit_number_sequences"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var lastValue int64
	require.NoError(t, db.Raw("SELECT last_value FROM chit_number_sequences WHERE name = ?", "chit_number").Scan(&lastValue).Error)
	assert.Equal(t, int64(0), lastValue)
}

func TestNewSQLiteDB_IsolatedPerCall(t *testing.T) {
	a := NewSQLiteDB(t)
	b := NewSQLiteDB(t)

	require.NoError(t, a.Exec("UPDATE chit_number_sequences SET last_value = 41").Error)

	var lastValue int64
	require.NoError(t, b.Raw("SELECT last_value FROM chit_number_sequences").Scan(&lastValue).Error)
	assert.Equal(t, int64(0), lastValue)
}

func TestTestContext_SetActor(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetActor("sup-1", shared.RoleSupervisor)

	actor, ok := shared.ActorFromContext(tc.Context.Request.Context())
	require.True(t, ok)
	assert.Equal(t, "sup-1", actor.ID)
	assert.True(t, actor.CanVerify())
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
}

func TestRunHTTPTestCase(t *testing.T) {
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"chit_number": "CHIT-000001"}})
	}

	RunHTTPTestCase(t, handler, HTTPTestCase{
		Name:           "ok",
		ExpectedStatus: http.StatusOK,
		ExpectedBody:   map[string]any{"success": true},
		Validate: func(t *testing.T, tc *TestContext) {
			AssertSuccessResponse(t, tc)
			data := DataAs[map[string]string](t, tc)
			assert.Equal(t, "CHIT-000001", data["chit_number"])
		},
	})
}

func TestAssertErrorResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusConflict, gin.H{"success": false, "error": gin.H{"code": "ERR_DUPLICATE_PERIOD"}})

	AssertErrorResponse(t, tc, http.StatusConflict, "ERR_DUPLICATE_PERIOD")
}
