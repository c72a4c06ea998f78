// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// database, rate limiting, web protection, observability and the listing
// rotation.
//
// Rotation settings may also come from a YAML file named by
// ROTATION_CONFIG_FILE. Precedence is env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-listings-backend/internal/rotation"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
	AdminToken string // ADMIN_TOKEN; when set, admin routes require X-Admin-Token
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and locates the listings database.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres)
}

// RotationConfig controls the landing page rotation.
type RotationConfig struct {
	FeaturedSize    int           // ROTATION_FEATURED_SIZE
	HotSize         int           // ROTATION_HOT_SIZE
	RegularSize     int           // ROTATION_REGULAR_SIZE
	TTL             time.Duration // ROTATION_TTL
	RepositoryLimit int           // ROTATION_REPOSITORY_LIMIT
	FetchTimeout    time.Duration // ROTATION_FETCH_TIMEOUT (0 disables)
	Seed            int64         // ROTATION_SEED (0 = time-seeded)
	File            string        // ROTATION_CONFIG_FILE
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// CacheMaxAge caps how long shared caches may keep a rotation response
	// (ROTATION_CACHE_MAX_AGE, 0 = until the next rotation).
	CacheMaxAge time.Duration

	DB       DBConfig
	Rotation RotationConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0, 0 disables)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	OTEL OTELConfig
}

// Rotation defaults come from the rotation package.
const (
	DefaultFeaturedSize    = rotation.DefaultFeaturedSize
	DefaultHotSize         = rotation.DefaultHotSize
	DefaultRegularSize     = rotation.DefaultRegularSize
	DefaultRotationTTL     = rotation.DefaultTTL
	DefaultRepositoryLimit = rotation.DefaultRepositoryLimit
	DefaultFetchTimeout    = rotation.DefaultFetchTimeout

	// DefaultCacheMaxAge caps Cache-Control on the public rotation response.
	DefaultCacheMaxAge = 5 * time.Minute
)

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (and the optional
// rotation YAML file), applies defaults, normalizes values, and validates
// the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		CacheMaxAge:    getdur("ROTATION_CACHE_MAX_AGE", DefaultCacheMaxAge),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "listings.db"),
			URL:    getenv("DATABASE_URL", ""),
		},

		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			AdminToken: getenv("ADMIN_TOKEN", ""),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-listings-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	rot, err := loadRotation()
	if err != nil {
		return cfg, err
	}
	cfg.Rotation = rot

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if cfg.Rotation.TTL <= 0 {
		return cfg, errors.New("ROTATION_TTL must be > 0")
	}
	if cfg.Rotation.RepositoryLimit <= 0 {
		return cfg, errors.New("ROTATION_REPOSITORY_LIMIT must be > 0")
	}
	if cfg.CacheMaxAge < 0 {
		return cfg, errors.New("ROTATION_CACHE_MAX_AGE must be >= 0")
	}
	if cfg.Rotation.FetchTimeout < 0 {
		return cfg, errors.New("ROTATION_FETCH_TIMEOUT must be >= 0")
	}

	return cfg, nil
}

// rotationFile is the YAML shape of ROTATION_CONFIG_FILE. Absent keys keep
// the defaults.
//
//	rotation:
//	  featured_size: 2
//	  hot_size: 4
//	  regular_size: 6
//	  ttl: 12h
//	  repository_limit: 100
//	  fetch_timeout: 10s
//	  seed: 0
type rotationFile struct {
	Rotation struct {
		FeaturedSize    *int           `yaml:"featured_size"`
		HotSize         *int           `yaml:"hot_size"`
		RegularSize     *int           `yaml:"regular_size"`
		TTL             *time.Duration `yaml:"ttl"`
		RepositoryLimit *int           `yaml:"repository_limit"`
		FetchTimeout    *time.Duration `yaml:"fetch_timeout"`
		Seed            *int64         `yaml:"seed"`
	} `yaml:"rotation"`
}

func loadRotation() (RotationConfig, error) {
	rc := RotationConfig{
		FeaturedSize:    DefaultFeaturedSize,
		HotSize:         DefaultHotSize,
		RegularSize:     DefaultRegularSize,
		TTL:             DefaultRotationTTL,
		RepositoryLimit: DefaultRepositoryLimit,
		FetchTimeout:    DefaultFetchTimeout,
		File:            getenv("ROTATION_CONFIG_FILE", ""),
	}

	if rc.File != "" {
		raw, err := os.ReadFile(rc.File)
		if err != nil {
			return rc, fmt.Errorf("read rotation config: %w", err)
		}
		var f rotationFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return rc, fmt.Errorf("parse rotation config %s: %w", rc.File, err)
		}
		r := f.Rotation
		setIf(&rc.FeaturedSize, r.FeaturedSize)
		setIf(&rc.HotSize, r.HotSize)
		setIf(&rc.RegularSize, r.RegularSize)
		setIf(&rc.TTL, r.TTL)
		setIf(&rc.RepositoryLimit, r.RepositoryLimit)
		setIf(&rc.FetchTimeout, r.FetchTimeout)
		setIf(&rc.Seed, r.Seed)
	}

	rc.FeaturedSize = getint("ROTATION_FEATURED_SIZE", rc.FeaturedSize)
	rc.HotSize = getint("ROTATION_HOT_SIZE", rc.HotSize)
	rc.RegularSize = getint("ROTATION_REGULAR_SIZE", rc.RegularSize)
	rc.TTL = getdur("ROTATION_TTL", rc.TTL)
	rc.RepositoryLimit = getint("ROTATION_REPOSITORY_LIMIT", rc.RepositoryLimit)
	rc.FetchTimeout = getdur("ROTATION_FETCH_TIMEOUT", rc.FetchTimeout)
	rc.Seed = getint64("ROTATION_SEED", rc.Seed)

	// Negative tier sizes mean "no slots" rather than a startup failure.
	rc.FeaturedSize = max(rc.FeaturedSize, 0)
	rc.HotSize = max(rc.HotSize, 0)
	rc.RegularSize = max(rc.RegularSize, 0)
	return rc, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
