package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/quota"
	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/server/respond"
	"coldemail-backend/internal/shared/util"
)

// RateLimitConfig configures the fixed-window request ceiling.
type RateLimitConfig struct {
	Limiter *quota.Limiter
	// KeyFor picks the caller key; defaults to the client IP.
	KeyFor func(*gin.Context) string
	Now    func() time.Time
}

// RateLimit rejects requests over the quota with 429 before any handler runs.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(c *gin.Context) {
		if !cfg.Limiter.Enabled() || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		key := ""
		if cfg.KeyFor != nil {
			key = strings.TrimSpace(cfg.KeyFor(c))
		}
		if key == "" {
			key = strings.TrimSpace(c.ClientIP())
		}
		if key == "" {
			key = peerHost(c.Request.RemoteAddr)
		}

		d := cfg.Limiter.Allow(c.Request.Context(), util.HashKey(key))
		resetSeconds := int(math.Ceil(d.ResetsAt.Sub(cfg.Now()).Seconds()))
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(resetSeconds))
		if d.Allowed {
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
		if retryAfter <= 0 {
			retryAfter = 1
		}
		h.Set("Retry-After", strconv.Itoa(retryAfter))
		metrics.IncRateLimited()
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later.", gin.H{
			"retryAfterSeconds": retryAfter,
		})
	}
}

// peerHost returns the host of a RemoteAddr that may lack a port, as set by the
// Lambda proxy adapter.
func peerHost(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
