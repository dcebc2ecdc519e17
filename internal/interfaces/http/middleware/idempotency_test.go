package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/infrastructure/cache"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdempotentRouter(t *testing.T, status int) (*gin.Engine, *cache.InMemoryIdempotencyStore, *atomic.Int32) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	var calls atomic.Int32
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", Idempotency(IdempotencyConfig{Store: store, TTL: time.Hour}), func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(status, gin.H{"call": n})
	})
	return router, store, &calls
}

func post(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_WithoutKey(t *testing.T) {
	router, _, calls := newIdempotentRouter(t, http.StatusCreated)

	post(router, "")
	post(router, "")
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	router, _, calls := newIdempotentRouter(t, http.StatusCreated)

	first := post(router, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotentReplayHeader))

	second := post(router, "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), calls.Load())

	third := post(router, "key-2")
	assert.JSONEq(t, `{"call":2}`, third.Body.String())
}

func TestIdempotency_ClientErrorsAreReplayed(t *testing.T) {
	router, _, calls := newIdempotentRouter(t, http.StatusConflict)

	post(router, "dup")
	w := post(router, "dup")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	router, _, calls := newIdempotentRouter(t, http.StatusInternalServerError)

	post(router, "retry-me")
	w := post(router, "retry-me")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_InProgress(t *testing.T) {
	router, store, calls := newIdempotentRouter(t, http.StatusCreated)

	claimed, err := store.MarkProcessed(context.Background(), "http:anonymous:POST:/test:busy", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	w := post(router, "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeRequestInProgress, errorCode(t, w))
	assert.Zero(t, calls.Load())
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	var calls atomic.Int32
	router := gin.New()
	router.Use(RequestID(), logger.Recovery(zap.NewNop()))
	router.POST("/test", Idempotency(IdempotencyConfig{Store: store, TTL: time.Hour}), func(c *gin.Context) {
		if calls.Add(1) == 1 {
			panic("ledger exploded")
		}
		c.JSON(http.StatusCreated, gin.H{"call": 2})
	})

	first := post(router, "k1")
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	second := post(router, "k1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(2), calls.Load())
}
