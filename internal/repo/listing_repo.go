// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Listing
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When a listing is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
//
// Listing CRUD lives in the listings API; this package only carries what the
// rotation needs plus the helpers used to seed data and tests.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-listings-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateListing inserts l. A UUID is assigned when l.ID is empty and
// CreatedAt defaults to the current UTC time.
func CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}

// GetListing fetches a single listing by ID, or ErrNotFound.
func GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListingStatus moves a listing to status. It returns ErrNotFound when
// no row matched.
func UpdateListingStatus(ctx context.Context, db *gorm.DB, id string, status domain.ListingStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindPublished returns up to limit published listings ordered by creation
// time descending (most recent first). A non-positive limit returns an empty
// slice without touching the database.
func FindPublished(ctx context.Context, db *gorm.DB, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		return []domain.Listing{}, nil
	}
	var out []domain.Listing
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusPublished).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPublished returns the number of published listings.
func CountPublished(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("status = ?", domain.StatusPublished).
		Count(&total).Error
	return total, err
}

// ListingStore binds the listing functions to a database handle. It is the
// repository the rotation cache reads from.
type ListingStore struct {
	DB *gorm.DB
}

// NewListingStore returns a ListingStore over db.
func NewListingStore(db *gorm.DB) *ListingStore {
	return &ListingStore{DB: db}
}

// FindPublished proxies FindPublished.
func (s *ListingStore) FindPublished(ctx context.Context, limit int) ([]domain.Listing, error) {
	return FindPublished(ctx, s.DB, limit)
}

// CountPublished proxies CountPublished.
func (s *ListingStore) CountPublished(ctx context.Context) (int64, error) {
	return CountPublished(ctx, s.DB)
}
