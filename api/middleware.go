package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/B-Mitchell/JobRecruit/service"
)

const identityKey = "jobrecruit.identity"

// Identity ids and emails are stored in VARCHAR(128) and VARCHAR(320) columns.
const (
	maxIdentityLen = 128
	maxEmailLen    = 320
)

// RequireIdentity reads the identity the upstream auth provider verified
// from idHeader and emailHeader. Requests without an identity id stop here
// with 401.
func RequireIdentity(idHeader, emailHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(idHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		email := strings.TrimSpace(c.GetHeader(emailHeader))
		if utf8.RuneCountInString(id) > maxIdentityLen || utf8.RuneCountInString(email) > maxEmailLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "identity headers too long"})
			return
		}
		c.Set(identityKey, service.Identity{ID: id, Email: email})
		c.Next()
	}
}

// identity returns what RequireIdentity stored.
func identity(c *gin.Context) service.Identity {
	v, _ := c.Get(identityKey)
	who, _ := v.(service.Identity)
	return who
}

// RequestLogger logs one slog record per request once the handler chain is
// done.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}
		if who := identity(c); who.ID != "" {
			attrs = append(attrs, slog.String("identity", who.ID))
		}

		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "api: request failed", append(attrs, slog.String("errors", c.Errors.String()))...)
		case len(c.Errors) > 0:
			logger.WarnContext(ctx, "api: request rejected", append(attrs, slog.String("errors", c.Errors.String()))...)
		default:
			logger.InfoContext(ctx, "api: request processed", attrs...)
		}
	}
}
