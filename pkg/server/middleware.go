package server

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sentryTimeout = 2 * time.Second

// requestTracking tags each request with an ID and logs its outcome.
func (s *Server) requestTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.log.Error("request failed", attrs...)
		case status >= http.StatusBadRequest:
			s.log.Warn("request rejected", attrs...)
		default:
			s.log.Info("request completed", attrs...)
		}
	}
}

// recovery turns a panic into a 500. It sits outside the sentrygin
// middleware, which reports the panic and re-panics.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered", "err", err, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}

// captureError sends err to the request's Sentry hub, if any.
func captureError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("request_id", c.GetString("request_id"))
			hub.CaptureException(err)
		})
	}
}
