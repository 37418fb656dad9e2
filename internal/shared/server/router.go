package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/emails"
	"coldemail-backend/internal/quota"
	"coldemail-backend/internal/services/health"
	"coldemail-backend/internal/shared/config"
	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/server/middleware"
	"coldemail-backend/internal/shared/server/respond"
	"coldemail-backend/internal/shared/telemetry"
)

// RouterDeps groups the handlers and shared services the router mounts.
type RouterDeps struct {
	Config       config.Config
	EmailHandler *emails.Handler
	Health       *health.Service
	Limiter      *quota.Limiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// Forwarded headers are honored only from configured proxies; otherwise the
	// quota key is the socket peer.
	r.ForwardedByClientIP = true
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		telemetry.Warn("router.trusted_proxies_invalid", map[string]any{
			"proxies": deps.Config.TrustedProxies,
			"error":   err,
		})
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.SecurityHeaders(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.BodyLimit(deps.Config.BodyLimitBytes),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(deps.Config.EnvName, nil)
	}
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{Limiter: deps.Limiter}))
	if deps.EmailHandler != nil {
		deps.EmailHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
