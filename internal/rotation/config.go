package rotation

import "time"

// Default rotation settings.
const (
	DefaultFeaturedSize    = 2
	DefaultHotSize         = 4
	DefaultRegularSize     = 6
	DefaultTTL             = 12 * time.Hour
	DefaultRepositoryLimit = 100
	DefaultFetchTimeout    = 10 * time.Second
)

// Config controls tier sizes and snapshot lifetime.
type Config struct {
	FeaturedSize    int
	HotSize         int
	RegularSize     int
	TTL             time.Duration
	RepositoryLimit int // most recent published listings considered

	// FetchTimeout bounds a single repository call during recompute.
	// Zero disables the bound.
	FetchTimeout time.Duration
}

// DefaultConfig returns the landing page defaults (2/4/6 every 12h).
func DefaultConfig() Config {
	return Config{
		FeaturedSize:    DefaultFeaturedSize,
		HotSize:         DefaultHotSize,
		RegularSize:     DefaultRegularSize,
		TTL:             DefaultTTL,
		RepositoryLimit: DefaultRepositoryLimit,
		FetchTimeout:    DefaultFetchTimeout,
	}
}

// normalize clamps negative tier sizes to zero and replaces non-positive
// TTL and repository limit with their defaults. Invalid sizes are never an
// error: an empty tier is a valid rotation.
func (c Config) normalize() Config {
	if c.FeaturedSize < 0 {
		c.FeaturedSize = 0
	}
	if c.HotSize < 0 {
		c.HotSize = 0
	}
	if c.RegularSize < 0 {
		c.RegularSize = 0
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.RepositoryLimit <= 0 {
		c.RepositoryLimit = DefaultRepositoryLimit
	}
	if c.FetchTimeout < 0 {
		c.FetchTimeout = 0
	}
	return c
}
