package rotation

import "github.com/tbourn/go-listings-backend/internal/domain"

// RandSource is the randomness the sampler draws from. *math/rand.Rand
// satisfies it; tests pass a seeded one.
type RandSource interface {
	// Intn returns a value in [0, n). n is always > 0.
	Intn(n int) int
}

// Sample returns min(k, len(remaining)) listings drawn uniformly without
// replacement from population, where remaining is population minus any
// listing whose ID is in exclude.
//
// It performs a partial Fisher–Yates shuffle over a copy of the remaining
// listings and returns the shuffled prefix. population is never modified.
// Sample is total: k <= 0 or an empty population yield an empty, non-nil
// slice.
func Sample(rng RandSource, population []domain.Listing, k int, exclude map[string]struct{}) []domain.Listing {
	if k <= 0 || len(population) == 0 {
		return []domain.Listing{}
	}

	remaining := make([]domain.Listing, 0, len(population))
	for _, l := range population {
		if _, skip := exclude[l.ID]; skip {
			continue
		}
		remaining = append(remaining, l)
	}
	if k > len(remaining) {
		k = len(remaining)
	}

	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(remaining)-i)
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
	return remaining[:k:k]
}

// idSet collects the IDs of the given tiers.
func idSet(tiers ...[]domain.Listing) map[string]struct{} {
	n := 0
	for _, t := range tiers {
		n += len(t)
	}
	out := make(map[string]struct{}, n)
	for _, t := range tiers {
		for _, l := range t {
			out[l.ID] = struct{}{}
		}
	}
	return out
}
