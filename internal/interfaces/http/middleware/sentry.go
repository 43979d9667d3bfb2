package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Sentry attaches a Sentry hub to every request and reports panics.
// Panics are re-raised so logger.Recovery, mounted before it, still writes the envelope.
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryErrors reports 5xx responses together with the errors handlers attached to the context
func SentryErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		hub := sentrygin.GetHubFromContext(c)
		if hub == nil {
			return
		}
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelError)
			scope.SetTag("request_id", logger.GetRequestID(c))
			scope.SetTag("route", c.FullPath())
			if s, ok := GetSession(c); ok {
				scope.SetUser(sentry.User{ID: s.UserID.String(), Email: s.Email})
				scope.SetTag("tenant_id", s.TenantID.String())
			}
			if last := c.Errors.Last(); last != nil {
				hub.CaptureException(last.Err)
				return
			}
			hub.CaptureMessage(fmt.Sprintf("%s %s returned %d", c.Request.Method, c.FullPath(), c.Writer.Status()))
		})
	}
}
