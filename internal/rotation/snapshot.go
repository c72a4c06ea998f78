package rotation

import (
	"time"

	"github.com/tbourn/go-listings-backend/internal/domain"
)

// Snapshot is one fully computed rotation. It is immutable: accessors return
// copies, and the cache replaces a snapshot wholesale instead of editing it.
type Snapshot struct {
	featured   []domain.Listing
	hot        []domain.Listing
	regular    []domain.Listing
	computedAt time.Time
	expiresAt  time.Time
}

func newSnapshot(featured, hot, regular []domain.Listing, computedAt time.Time, ttl time.Duration) *Snapshot {
	return &Snapshot{
		featured:   featured,
		hot:        hot,
		regular:    regular,
		computedAt: computedAt,
		expiresAt:  computedAt.Add(ttl),
	}
}

// Featured returns the featured tier.
func (s *Snapshot) Featured() []domain.Listing { return cloneListings(s.featured) }

// Hot returns the hot tier.
func (s *Snapshot) Hot() []domain.Listing { return cloneListings(s.hot) }

// Regular returns the regular tier.
func (s *Snapshot) Regular() []domain.Listing { return cloneListings(s.regular) }

// ComputedAt is when the snapshot was built.
func (s *Snapshot) ComputedAt() time.Time { return s.computedAt }

// ExpiresAt is ComputedAt plus the configured TTL.
func (s *Snapshot) ExpiresAt() time.Time { return s.expiresAt }

// Len returns the number of listings across all tiers.
func (s *Snapshot) Len() int { return len(s.featured) + len(s.hot) + len(s.regular) }

func cloneListings(in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, len(in))
	copy(out, in)
	return out
}
