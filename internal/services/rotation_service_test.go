package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"

	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/repo"
	"github.com/tbourn/go-listings-backend/internal/rotation"
)

// ----- Fake repo -----

type fakeListingRepo struct {
	mu    sync.Mutex
	items []domain.Listing
	err   error
	calls int
}

func (r *fakeListingRepo) FindPublished(ctx context.Context, limit int) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Listing(nil), r.items...), nil
}

func listings(prefix string, n int, featured bool) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			ID:        fmt.Sprintf("%s%d", prefix, i+1),
			Title:     fmt.Sprintf("Listing %s%d", prefix, i+1),
			Price:     float64(100 * (i + 1)),
			Location:  "Athens",
			ImageURL:  "https://img.example/" + prefix,
			Featured:  featured,
			Status:    domain.StatusPublished,
			CreatedAt: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newService(r rotation.Repository, clk *clock) *RotationService {
	cache := rotation.New(r, rotation.DefaultConfig(),
		rotation.WithClock(clk.Now),
		rotation.WithRand(rand.New(rand.NewSource(1))),
		rotation.WithLogger(zerolog.Nop()),
	)
	return NewRotationService(cache)
}

// ----- Tests -----

func TestGetRotatedListings_MapsTiers(t *testing.T) {
	r := &fakeListingRepo{items: append(listings("F", 3, true), listings("S", 7, false)...)}
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := newService(r, clk)

	out, err := s.GetRotatedListings(context.Background())
	if err != nil {
		t.Fatalf("GetRotatedListings error: %v", err)
	}
	if len(out.Featured) != 2 || len(out.Hot) != 1 || len(out.Regular) != 6 {
		t.Fatalf("sizes = %d/%d/%d; want 2/1/6", len(out.Featured), len(out.Hot), len(out.Regular))
	}
	if !out.ComputedAt.Equal(clk.t) || !out.NextRotationAt.Equal(clk.t.Add(12*time.Hour)) {
		t.Fatalf("times = %v / %v", out.ComputedAt, out.NextRotationAt)
	}
	if out.Stale {
		t.Fatal("fresh rotation marked stale")
	}
	ref := out.Regular[0]
	if ref.ID == "" || ref.Title == "" || ref.Price == 0 || ref.Location != "Athens" || ref.Featured {
		t.Fatalf("ListingRef not mapped: %+v", ref)
	}
}

func TestGetRotatedListings_ColdStartFailure(t *testing.T) {
	cause := errors.New("connection refused")
	s := newService(&fakeListingRepo{err: cause}, &clock{t: time.Now()})

	_, err := s.GetRotatedListings(context.Background())
	if !errors.Is(err, ErrRotationUnavailable) {
		t.Fatalf("expected ErrRotationUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved: %v", err)
	}
	var repoErr *rotation.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected *rotation.RepositoryError in chain, got %T", err)
	}
	if st := s.Status(); st.State != "EMPTY" {
		t.Fatalf("state = %q; want EMPTY", st.State)
	}
}

func TestGetRotatedListings_StaleAfterFailedRecompute(t *testing.T) {
	r := &fakeListingRepo{items: listings("S", 4, false)}
	clk := &clock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	s := newService(r, clk)

	first, err := s.GetRotatedListings(context.Background())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}

	r.mu.Lock()
	r.err = errors.New("timeout")
	r.mu.Unlock()
	clk.t = clk.t.Add(13 * time.Hour)

	second, err := s.GetRotatedListings(context.Background())
	if err != nil {
		t.Fatalf("expected fail-soft, got %v", err)
	}
	if !second.Stale {
		t.Fatal("expected Stale=true when serving the previous rotation")
	}
	if !second.ComputedAt.Equal(first.ComputedAt) {
		t.Fatalf("expected previous rotation, computed at %v", second.ComputedAt)
	}
}

func TestForceRotation_AndStatus(t *testing.T) {
	r := &fakeListingRepo{items: listings("S", 4, false)}
	clk := &clock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	s := newService(r, clk)

	if st := s.Status(); st.State != "EMPTY" || !st.ComputedAt.IsZero() {
		t.Fatalf("initial status = %+v", st)
	}
	if _, err := s.GetRotatedListings(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := s.Status(); st.State != "FRESH" || !st.ComputedAt.Equal(clk.t) {
		t.Fatalf("status after read = %+v", st)
	}

	s.ForceRotation()
	s.ForceRotation()
	if st := s.Status(); st.State != "STALE" {
		t.Fatalf("status after force = %+v", st)
	}
	if r.calls != 1 {
		t.Fatalf("force hit the repository: calls=%d", r.calls)
	}

	if _, err := s.GetRotatedListings(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.calls != 2 {
		t.Fatalf("calls = %d; want 2 after forced read", r.calls)
	}
}

func TestGetRotatedListings_EmitsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	s := newService(&fakeListingRepo{items: listings("F", 2, true)}, &clock{t: time.Now()})
	if _, err := s.GetRotatedListings(context.Background()); err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for _, sp := range sr.Ended() {
		names[sp.Name()] = true
	}
	if !names["GetRotatedListings"] {
		t.Fatalf("GetRotatedListings span missing; got %v", names)
	}
	if !names["Recompute"] {
		t.Fatalf("Recompute span missing; got %v", names)
	}
}

func TestGetRotatedListings_OverSQLiteStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:svc_rotation?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	seed := append(listings("F", 3, true), listings("S", 7, false)...)
	seed = append(seed, domain.Listing{ID: "D1", Title: "draft", Featured: true, Status: domain.StatusDraft})
	for i := range seed {
		if err := repo.CreateListing(ctx, db, &seed[i]); err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}

	s := newService(repo.NewListingStore(db), &clock{t: time.Now()})
	out, err := s.GetRotatedListings(ctx)
	if err != nil {
		t.Fatalf("GetRotatedListings: %v", err)
	}
	if len(out.Featured) != 2 || len(out.Hot) != 1 || len(out.Regular) != 6 {
		t.Fatalf("sizes = %d/%d/%d; want 2/1/6", len(out.Featured), len(out.Hot), len(out.Regular))
	}
	for _, tier := range [][]ListingRef{out.Featured, out.Hot, out.Regular} {
		for _, ref := range tier {
			if ref.ID == "D1" {
				t.Fatal("draft listing appeared in rotation")
			}
		}
	}
}
