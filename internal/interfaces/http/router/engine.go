package router

import (
	"fmt"
	"net/http"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig selects the global middleware of the HTTP engine
type EngineConfig struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	ServiceName string
	Production  bool
	// Meter enables HTTP metrics when set
	Meter metric.Meter
	// Tracing wraps requests in server spans
	Tracing bool
	// Sentry reports panics and 5xx responses; sentry.Init must have run
	Sentry bool
	// Limiter enables per-client rate limiting when set
	Limiter middleware.Limiter
}

// NewEngine creates a gin engine with the global middleware stack.
//
// Order matters: the request ID comes first so every later layer can log it;
// Recovery sits outside Sentry so a re-raised panic still gets the JSON envelope.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	if cfg.Sentry {
		engine.Use(middleware.Sentry())
	}
	if cfg.Tracing {
		engine.Use(middleware.Tracing(cfg.ServiceName)...)
	}
	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(metrics)
	}
	engine.Use(logger.Middleware(cfg.Logger))
	if cfg.Sentry {
		engine.Use(middleware.SentryErrors())
	}
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Secure(cfg.Production))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter, cfg.Logger))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", logger.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID("METHOD_NOT_ALLOWED", "Method not allowed", logger.GetRequestID(c)))
	})

	return engine, nil
}
