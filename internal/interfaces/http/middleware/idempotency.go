package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig configures the Idempotency-Key replay guard
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	TTL   time.Duration
}

// storedResponse is what a completed keyed request leaves behind
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body so it can be stored
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key. Requests without the header pass straight through.
// While the first request with a key is running, repeats get 409
// ERR_REQUEST_IN_PROGRESS. Server errors and handler panics release the key
// so the client can retry.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		log := logger.L(ctx)
		scoped := idempotencyScope(c, key)

		claimed, err := cfg.Store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			// the unique (subscription, period) constraint still guards the ledger
			log.Warn("idempotency store unavailable, processing without replay guard", zap.Error(err))
			c.Next()
			return
		}

		if !claimed {
			replay(c, cfg.Store, scoped, log)
			return
		}

		// a panicking handler never returns here, so free the key before Recovery answers
		defer func() {
			if r := recover(); r != nil {
				if err := cfg.Store.Release(ctx, scoped); err != nil {
					log.Warn("failed to release idempotency key", zap.Error(err))
				}
				panic(r)
			}
		}()

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := cfg.Store.Release(ctx, scoped); err != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
			return
		}

		raw, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err == nil {
			err = cfg.Store.SaveResult(ctx, scoped, raw, ttl)
		}
		if err != nil {
			log.Warn("failed to store idempotent response", zap.Error(err))
		}
	}
}

func replay(c *gin.Context, store shared.IdempotencyStore, key string, log *logger.ContextLogger) {
	raw, ok, err := store.GetResult(c.Request.Context(), key)
	if err != nil {
		log.Error("failed to load idempotent response", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is still being processed", GetRequestID(c)))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Error("corrupt idempotent response", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
		return
	}

	c.Header(IdempotentReplayHeader, "true")
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
}

// idempotencyScope keys by caller and route so two users cannot collide
func idempotencyScope(c *gin.Context, key string) string {
	caller := "anonymous"
	if actor, ok := GetActor(c); ok {
		caller = actor.ID
	}
	return "http:" + caller + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}
