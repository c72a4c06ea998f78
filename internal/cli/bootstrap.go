package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-listings-backend/internal/config"
	"github.com/tbourn/go-listings-backend/internal/repo"
	"github.com/tbourn/go-listings-backend/internal/rotation"
	"github.com/tbourn/go-listings-backend/internal/services"
	"github.com/tbourn/go-listings-backend/internal/sysutil"
)

// app is what every command needs: validated config and a migrated database.
type app struct {
	cfg config.Config
	db  *gorm.DB
}

// bootstrap loads .env and configuration, installs the global logger and
// opens the configured database.
func bootstrap(ctx context.Context) (*app, error) {
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", flagEnvFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	configured := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		configured = cfg.DB.URL
	}
	dsn := sysutil.FirstNonEmpty(flagDSN, configured)
	db, err := repo.Open(ctx, cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Debug().Str("driver", cfg.DB.Driver).Msg("database ready")
	return &app{cfg: cfg, db: db}, nil
}

// rotationService builds the rotation cache and service over the app's
// database.
func (a *app) rotationService() *services.RotationService {
	rc := a.cfg.Rotation
	var opts []rotation.Option
	if rc.Seed != 0 {
		opts = append(opts, rotation.WithRand(rand.New(rand.NewSource(rc.Seed))))
	}
	cache := rotation.New(repo.NewListingStore(a.db), rotation.Config{
		FeaturedSize:    rc.FeaturedSize,
		HotSize:         rc.HotSize,
		RegularSize:     rc.RegularSize,
		TTL:             rc.TTL,
		RepositoryLimit: rc.RepositoryLimit,
		FetchTimeout:    rc.FetchTimeout,
	}, opts...)
	return services.NewRotationService(cache)
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
