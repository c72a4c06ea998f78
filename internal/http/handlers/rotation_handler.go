// Rotation HTTP handlers.
//
// This file exposes the landing-page rotation:
//   - GET  /listings/rotation        (current rotation, weak ETag + Cache-Control)
//   - POST /admin/rotation/force     (invalidate; next read recomputes)
//   - GET  /admin/rotation/status    (cache state, no recompute)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-listings-backend/internal/services"
)

// RotationService is the rotation API consumed by the handlers. Implementations
// must be safe for concurrent use.
type RotationService interface {
	GetRotatedListings(ctx context.Context) (services.RotatedListings, error)
	ForceRotation()
	Status() services.RotationStatus
}

// DefaultMaxAge caps how long shared caches may hold a rotation response,
// which bounds how long a forced rotation takes to reach clients.
const DefaultMaxAge = 5 * time.Minute

// Handlers groups the HTTP endpoints.
type Handlers struct {
	rotSvc RotationService
	now    func() time.Time
	maxAge time.Duration
}

// Option customizes Handlers.
type Option func(*Handlers)

// WithMaxAge overrides DefaultMaxAge. Zero lets caches keep the rotation
// until the next scheduled rotation.
func WithMaxAge(d time.Duration) Option {
	return func(h *Handlers) {
		if d >= 0 {
			h.maxAge = d
		}
	}
}

// New returns Handlers bound to the rotation service.
func New(rotSvc RotationService, opts ...Option) *Handlers {
	h := &Handlers{rotSvc: rotSvc, now: time.Now, maxAge: DefaultMaxAge}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetRotation godoc
// @ID          getRotation
// @Summary     Current listing rotation
// @Description Returns the featured, hot and regular listings for the landing page. The rotation changes at most once per rotation period; supports weak ETag via If-None-Match and may return 304.
// @Tags        Rotation
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"rot-1717243200000000000\")
//
// @Success     200  {object} services.RotatedListings
// @Header      200  {string} ETag           "Weak ETag of the rotation"
// @Header      200  {string} Cache-Control  "public, max-age until the next rotation, capped by the cache max-age"
// @Success     304  {string} string "Not Modified"
// @Failure     503  {object} handlers.ErrorResponse "Rotation unavailable"
// @Router      /listings/rotation [get]
func (h *Handlers) GetRotation(c *gin.Context) {
	rot, err := h.rotSvc.GetRotatedListings(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRotationUnavailable):
			c.Header("Retry-After", "30")
			fail(c, http.StatusServiceUnavailable, ErrCodeRotationUnavailable, "listing rotation is temporarily unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "timed out waiting for rotation")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful can be written.
			c.AbortWithStatus(499)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	etag := weakETag("rot", rot.ComputedAt)
	c.Header("ETag", etag)
	if rot.Stale {
		c.Header("Cache-Control", "no-cache")
	} else {
		cacheFor(c, h.now(), rot.NextRotationAt, h.maxAge)
	}
	if notModified(c, etag) {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, rot)
}

// ForceRotation godoc
// @ID          forceRotation
// @Summary     Force a new rotation
// @Description Marks the current rotation stale. The next read recomputes it. Idempotent. Shared caches may keep serving the previous rotation for up to the configured cache max-age (default 5 minutes).
// @Tags        Admin
// @Security    AdminToken
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Missing or invalid admin token"
// @Router      /admin/rotation/force [post]
func (h *Handlers) ForceRotation(c *gin.Context) {
	h.rotSvc.ForceRotation()
	noContent(c)
}

// RotationStatus godoc
// @ID          rotationStatus
// @Summary     Rotation cache status
// @Description Reports the cache state (EMPTY, FRESH, STALE, RECOMPUTING) without triggering a recompute.
// @Tags        Admin
// @Security    AdminToken
// @Produce     json
//
// @Success     200  {object} services.RotationStatus
// @Router      /admin/rotation/status [get]
func (h *Handlers) RotationStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.rotSvc.Status())
}
