// Package handlers provides the HTTP handlers of the listings API.
//
// This file holds the response helpers shared by every handler: the error
// envelope, JSON success writers and the conditional-GET helpers used by the
// rotation endpoint.
//
// Example error response:
//
//	HTTP/1.1 503 Service Unavailable
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "rotation_unavailable",
//	  "message": "listing rotation is temporarily unavailable"
//	}
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-listings-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID, for correlating with server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"rotation_unavailable"`
	// Human-readable message
	Message string `json:"message" example:"listing rotation is temporarily unavailable"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get(middleware.HeaderRequestID),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, used by the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// weakETag builds a weak validator from a version timestamp.
func weakETag(prefix string, version time.Time) string {
	return fmt.Sprintf(`W/"%s-%d"`, prefix, version.UnixNano())
}

// notModified reports whether any entity tag in If-None-Match matches etag.
// Comparison is weak, so W/ prefixes are ignored on both sides.
func notModified(c *gin.Context, etag string) bool {
	inm := c.GetHeader("If-None-Match")
	if inm == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(inm, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}

// cacheFor sets Cache-Control so shared caches keep the response until
// expires, but never longer than maxAge (when positive). Past expiries
// produce no-cache.
func cacheFor(c *gin.Context, now, expires time.Time, maxAge time.Duration) {
	ttl := expires.Sub(now)
	if maxAge > 0 && ttl > maxAge {
		ttl = maxAge
	}
	secs := int(ttl / time.Second)
	if secs <= 0 {
		c.Header("Cache-Control", "no-cache")
		return
	}
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", secs))
}
