package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/finovia/adfin/internal/principal"
	"go.uber.org/zap"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// PrincipalRequired resolves the caller identity from the gateway
// headers and stores it on the request context. Requests without a
// valid identity are rejected before any handler runs.
func (s *Server) PrincipalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader(headerUserID)))
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role := principal.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserRole))))
		if !principal.ValidRole(role) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := principal.With(c.Request.Context(), principal.Principal{
			UserID: userID,
			Role:   role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates a route to the given roles.
func (s *Server) RequireRole(roles ...principal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// HTTPMetrics counts each request by route template and status code.
func (s *Server) HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		endpoint := c.FullPath()
		if strings.TrimSpace(endpoint) == "" {
			endpoint = "unknown"
		}
		s.obsMetrics.RecordHTTPRequest(c.Request.Context(), endpoint, c.Writer.Status())
	}
}

// RequestLogger logs each request with a correlation id and safe fields.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.String("error", lastErr.Err.Error()))
		}

		switch {
		case route == "/metrics" || route == "/health":
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-Id", requestID)
	return requestID
}
