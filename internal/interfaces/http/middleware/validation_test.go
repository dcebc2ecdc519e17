package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrollInput struct {
	Phone     string `json:"phone" binding:"required,numeric,len=10"`
	Duration  int    `json:"duration_months" binding:"required,gte=1,lte=120"`
	StartDate string `json:"start_date" binding:"required,isodate"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req enrollInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidation_FieldErrors(t *testing.T) {
	router := newValidationRouter()

	w := postJSON(router, `{"phone":"12345","duration_months":0,"start_date":"2024-13-01"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Must be exactly 10 characters", fields["phone"])
	assert.Equal(t, "This field is required", fields["duration_months"])
	assert.Equal(t, "Must be a date in YYYY-MM-DD format", fields["start_date"])
}

func TestValidation_ValidInput(t *testing.T) {
	router := newValidationRouter()
	w := postJSON(router, `{"phone":"9876543210","duration_months":5,"start_date":"2024-01-01"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidation_MalformedJSON(t *testing.T) {
	router := newValidationRouter()
	w := postJSON(router, `{"phone":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, errorCode(t, w))
}
