package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OriginPolicy holds the browser origins allowed to drive the daemon.
// Requests without an Origin header come from local tools and are always allowed.
type OriginPolicy struct {
	allowed map[string]bool
}

// NewOriginPolicy builds a policy from a list such as "http://localhost:1420"
func NewOriginPolicy(logger *zap.Logger, origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if o = normalizeOrigin(o); o != "" {
			p.allowed[o] = true
		}
	}
	logger.Info("Origin allowlist loaded", zap.Strings("origins", origins))
	return p
}

// Allows reports whether a request carrying origin may proceed
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	return p.allowed[normalizeOrigin(origin)]
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// CORSMiddleware answers preflights for allowed origins and rejects every
// request from any other browser origin before it reaches a handler
func CORSMiddleware(logger *zap.Logger, policy *OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if !policy.Allows(origin) {
			logger.Warn("Rejected request from foreign origin",
				zap.String("origin", origin),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse("origin not allowed"))
			return
		}

		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
