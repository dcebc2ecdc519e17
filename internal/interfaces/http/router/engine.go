package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/infrastructure/auth"
	"github.com/retailerp/chitledger/internal/infrastructure/config"
	"github.com/retailerp/chitledger/internal/infrastructure/logger"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/retailerp/chitledger/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries what NewEngine needs to assemble the middleware stack
type EngineConfig struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Tracing     middleware.TracingConfig
	Meter       metric.Meter // nil disables HTTP metrics
	JWTService  *auth.JWTService
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
	Health      gin.HandlerFunc
}

// NewEngine builds the gin engine with the global middleware stack, /health
// outside authentication and every registrar mounted under /api/v1 behind JWT.
//
// Order: request id, access log, panic recovery, security headers, CORS,
// body limit, tracing, metrics. API routes then add JWT, span enrichment
// and the per-user rate limiter.
func NewEngine(cfg EngineConfig, registrars ...RouteRegistrar) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{
			middleware.RequestIDHeader, middleware.IdempotentReplayHeader,
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))

	httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}
	engine.Use(httpMetrics)

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health)
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		Logger:     log,
	}))
	r.Use(middleware.SpanEnricher())
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()

	return engine, nil
}
