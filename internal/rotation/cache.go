// Package rotation decides which published listings fill the featured, hot
// and regular slots of the landing page.
//
// A Cache owns the current Snapshot and moves through four states:
//
//	EMPTY ──read──▶ RECOMPUTING ──ok──▶ FRESH ──ttl──▶ STALE ──read──▶ RECOMPUTING
//
// Recomputes are single-flight: however many callers arrive while the cache
// is EMPTY or STALE, the repository is queried once. Callers that already
// have a snapshot to look at are served it while the recompute runs; callers
// on a cold start wait for it. When a recompute fails and a previous snapshot
// exists, that snapshot keeps being served and the cache stays STALE.
package rotation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-listings-backend/internal/domain"
)

// State is the lifecycle state of a Cache.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateStale
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateFresh:
		return "FRESH"
	case StateStale:
		return "STALE"
	case StateRecomputing:
		return "RECOMPUTING"
	default:
		return "UNKNOWN"
	}
}

// Repository is the listing source the cache recomputes from.
type Repository interface {
	// FindPublished returns up to limit published listings, newest first.
	FindPublished(ctx context.Context, limit int) ([]domain.Listing, error)
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRand replaces the time-seeded random source used for sampling.
func WithRand(r RandSource) Option {
	return func(c *Cache) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

const flightKey = "rotation"

// Status describes the cache without triggering a recompute.
type Status struct {
	State          State
	ComputedAt     time.Time // zero when EMPTY
	NextRotationAt time.Time // effective expiry; zero when EMPTY
}

// Cache holds the current rotation snapshot. It is safe for concurrent use.
type Cache struct {
	repo Repository
	cfg  Config
	now  func() time.Time
	rng  RandSource // only touched inside the single flight
	log  zerolog.Logger

	group singleflight.Group

	mu          sync.Mutex
	snap        *Snapshot
	expiresAt   time.Time // ForceRotation pulls this in to now
	recomputing bool
}

// New returns an EMPTY cache reading from repo. cfg is normalized: negative
// tier sizes become zero, missing TTL and limit fall back to defaults.
func New(repo Repository, cfg Config, opts ...Option) *Cache {
	c := &Cache{
		repo: repo,
		cfg:  cfg.normalize(),
		now:  time.Now,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		log:  log.Logger.With().Str("component", "rotation").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the normalized configuration.
func (c *Cache) Config() Config { return c.cfg }

type flightResult struct {
	snap  *Snapshot
	stale bool // previous snapshot served after a failed recompute
}

// Get returns the current snapshot, recomputing it first when the cache is
// EMPTY or STALE.
//
// While a recompute is running, callers that can be given the previous
// snapshot get it immediately. On a cold start they wait for the recompute;
// if it fails they receive a *RepositoryError. A caller whose ctx ends while
// waiting gets ctx.Err() (or the stale snapshot, if there is one) and the
// recompute carries on for everyone else.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	prev := c.snap
	switch {
	case prev != nil && c.now().Before(c.expiresAt):
		c.mu.Unlock()
		reads.WithLabelValues(readFresh).Inc()
		return prev, nil
	case prev != nil && c.recomputing:
		c.mu.Unlock()
		reads.WithLabelValues(readStale).Inc()
		return prev, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			reads.WithLabelValues(readError).Inc()
			return nil, res.Err
		}
		out := res.Val.(flightResult)
		if out.stale {
			reads.WithLabelValues(readStale).Inc()
		} else {
			reads.WithLabelValues(readRecompute).Inc()
		}
		return out.snap, nil
	case <-ctx.Done():
		if prev != nil {
			reads.WithLabelValues(readStale).Inc()
			return prev, nil
		}
		return nil, ctx.Err()
	}
}

// ForceRotation marks the current snapshot stale so that the next Get
// recomputes. It does not touch the repository and is a no-op when the cache
// is EMPTY or already STALE.
func (c *Cache) ForceRotation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return
	}
	if now := c.now(); now.Before(c.expiresAt) {
		c.expiresAt = now
	}
}

// State reports the current lifecycle state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Status reports state and timing of the current snapshot.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.stateLocked()}
	if c.snap != nil {
		st.ComputedAt = c.snap.ComputedAt()
		st.NextRotationAt = c.expiresAt
	}
	return st
}

// Fresh reports whether snap is the snapshot currently held and is still
// within its (possibly forced) expiry.
func (c *Cache) Fresh(snap *Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snap != nil && snap == c.snap && c.now().Before(c.expiresAt)
}

func (c *Cache) stateLocked() State {
	switch {
	case c.recomputing:
		return StateRecomputing
	case c.snap == nil:
		return StateEmpty
	case c.now().Before(c.expiresAt):
		return StateFresh
	default:
		return StateStale
	}
}

// refresh runs inside the single flight. It re-checks freshness first so a
// caller that joins just after a recompute finished does not trigger another.
func (c *Cache) refresh(ctx context.Context) (flightResult, error) {
	c.mu.Lock()
	if c.snap != nil && c.now().Before(c.expiresAt) {
		snap := c.snap
		c.mu.Unlock()
		return flightResult{snap: snap}, nil
	}
	c.recomputing = true
	prev := c.snap
	c.mu.Unlock()

	start := time.Now()
	next, err := c.compute(ctx)
	recomputeDur.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recomputing = false

	if err != nil {
		recomputes.WithLabelValues("error").Inc()
		if prev != nil {
			c.log.Warn().Err(err).
				Time("computed_at", prev.ComputedAt()).
				Msg("rotation recompute failed, serving previous snapshot")
			return flightResult{snap: prev, stale: true}, nil
		}
		c.log.Error().Err(err).Msg("rotation recompute failed on cold start")
		return flightResult{}, err
	}

	recomputes.WithLabelValues("ok").Inc()
	c.snap = next
	c.expiresAt = next.ExpiresAt()
	tierSize.WithLabelValues("featured").Set(float64(len(next.featured)))
	tierSize.WithLabelValues("hot").Set(float64(len(next.hot)))
	tierSize.WithLabelValues("regular").Set(float64(len(next.regular)))
	c.log.Info().
		Int("featured", len(next.featured)).
		Int("hot", len(next.hot)).
		Int("regular", len(next.regular)).
		Time("expires_at", next.ExpiresAt()).
		Msg("rotation recomputed")
	return flightResult{snap: next}, nil
}

// compute fetches the candidate listings and fills the three tiers.
func (c *Cache) compute(ctx context.Context) (*Snapshot, error) {
	ctx, span := otel.Tracer("rotation").Start(ctx, "Recompute",
		trace.WithAttributes(attribute.Int("rotation.repository_limit", c.cfg.RepositoryLimit)),
	)
	defer span.End()

	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
	}

	listings, err := c.repo.FindPublished(ctx, c.cfg.RepositoryLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find published listings")
		return nil, &RepositoryError{Err: err}
	}
	if len(listings) > c.cfg.RepositoryLimit {
		listings = listings[:c.cfg.RepositoryLimit]
	}

	featuredPool, standardPool := partition(listings)
	featured := Sample(c.rng, featuredPool, c.cfg.FeaturedSize, nil)
	// Hot only draws from featured listings left over after the featured tier.
	hot := Sample(c.rng, featuredPool, c.cfg.HotSize, idSet(featured))
	regular := Sample(c.rng, standardPool, c.cfg.RegularSize, idSet(featured, hot))

	span.SetAttributes(
		attribute.Int("rotation.candidates", len(featuredPool)+len(standardPool)),
		attribute.Int("rotation.featured", len(featured)),
		attribute.Int("rotation.hot", len(hot)),
		attribute.Int("rotation.regular", len(regular)),
	)
	return newSnapshot(featured, hot, regular, c.now(), c.cfg.TTL), nil
}

// partition splits eligible listings into featured and standard pools. Only
// published listings with an ID are eligible; repeated IDs keep their first
// (most recent) occurrence.
func partition(listings []domain.Listing) (featured, standard []domain.Listing) {
	seen := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		if l.ID == "" || !l.IsPublished() {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		if l.Featured {
			featured = append(featured, l)
		} else {
			standard = append(standard, l)
		}
	}
	return featured, standard
}
