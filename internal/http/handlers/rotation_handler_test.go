package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-listings-backend/internal/services"
)

// ----- Fake service -----

type fakeRotationSvc struct {
	rot    services.RotatedListings
	err    error
	forced int
	status services.RotationStatus
}

func (f *fakeRotationSvc) GetRotatedListings(ctx context.Context) (services.RotatedListings, error) {
	return f.rot, f.err
}

func (f *fakeRotationSvc) ForceRotation() { f.forced++ }

func (f *fakeRotationSvc) Status() services.RotationStatus { return f.status }

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newRotationRouter(svc *fakeRotationSvc, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(svc, opts...)
	h.now = func() time.Time { return testNow }

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Next()
	})
	r.GET("/listings/rotation", h.GetRotation)
	r.POST("/admin/rotation/force", h.ForceRotation)
	r.GET("/admin/rotation/status", h.RotationStatus)
	return r
}

func sampleRotation() services.RotatedListings {
	return services.RotatedListings{
		Featured:       []services.ListingRef{{ID: "F1", Title: "Loft", Featured: true}},
		Hot:            []services.ListingRef{},
		Regular:        []services.ListingRef{{ID: "S1", Title: "Studio"}, {ID: "S2", Title: "Flat"}},
		ComputedAt:     testNow.Add(-time.Hour),
		NextRotationAt: testNow.Add(11 * time.Hour),
	}
}

func TestGetRotation_OKWithCachingHeaders(t *testing.T) {
	r := newRotationRouter(&fakeRotationSvc{rot: sampleRotation()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/rotation", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	wantETag := fmt.Sprintf(`W/"rot-%d"`, testNow.Add(-time.Hour).UnixNano())
	if got := w.Header().Get("ETag"); got != wantETag {
		t.Fatalf("ETag = %q; want %q", got, wantETag)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Fatalf("Cache-Control = %q; want the default 5m cap", got)
	}

	var body services.RotatedListings
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Featured) != 1 || len(body.Hot) != 0 || len(body.Regular) != 2 || body.Stale {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Hot == nil {
		t.Fatal("empty tier should encode as [] not null")
	}
}

func TestGetRotation_NotModified(t *testing.T) {
	rot := sampleRotation()
	r := newRotationRouter(&fakeRotationSvc{rot: rot})

	req := httptest.NewRequest(http.MethodGet, "/listings/rotation", nil)
	req.Header.Set("If-None-Match", weakETag("rot", rot.ComputedAt))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d; want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatal("304 must not carry a body")
	}
	if w.Header().Get("ETag") == "" {
		t.Fatal("304 should repeat the ETag")
	}
}

func TestGetRotation_StaleIsNotCacheable(t *testing.T) {
	rot := sampleRotation()
	rot.Stale = true
	r := newRotationRouter(&fakeRotationSvc{rot: rot})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/rotation", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("Cache-Control = %q; want no-cache", got)
	}
}

func TestGetRotation_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unavailable", fmt.Errorf("%w: db down", services.ErrRotationUnavailable), http.StatusServiceUnavailable, ErrCodeRotationUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"other", errors.New("weird"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		r := newRotationRouter(&fakeRotationSvc{err: tc.err})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/rotation", nil))

		if w.Code != tc.status {
			t.Fatalf("%s: status = %d; want %d", tc.name, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("%s: json: %v", tc.name, err)
		}
		if er.Code != tc.code || er.RequestID != "rid-test" {
			t.Fatalf("%s: unexpected envelope %+v", tc.name, er)
		}
	}
}

func TestGetRotation_ClientGone(t *testing.T) {
	r := newRotationRouter(&fakeRotationSvc{err: context.Canceled})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/rotation", nil))
	if w.Code != 499 {
		t.Fatalf("status = %d; want 499", w.Code)
	}
}

func TestForceRotation_204(t *testing.T) {
	svc := &fakeRotationSvc{}
	r := newRotationRouter(svc)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/rotation/force", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d", w.Code)
		}
	}
	if svc.forced != 2 {
		t.Fatalf("ForceRotation called %d times", svc.forced)
	}
}

func TestRotationStatus(t *testing.T) {
	svc := &fakeRotationSvc{status: services.RotationStatus{State: "FRESH", ComputedAt: testNow}}
	r := newRotationRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/rotation/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st services.RotationStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "FRESH" || !st.ComputedAt.Equal(testNow) {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestGetRotation_MaxAgeOption(t *testing.T) {
	cases := []struct {
		maxAge time.Duration
		want   string
	}{
		{0, "public, max-age=39600"}, // uncapped: until the next rotation
		{time.Minute, "public, max-age=60"},
		{-time.Minute, "public, max-age=300"}, // ignored, default stays
	}
	for _, tc := range cases {
		r := newRotationRouter(&fakeRotationSvc{rot: sampleRotation()}, WithMaxAge(tc.maxAge))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/rotation", nil))
		if got := w.Header().Get("Cache-Control"); got != tc.want {
			t.Errorf("maxAge %v: Cache-Control = %q; want %q", tc.maxAge, got, tc.want)
		}
	}
}
