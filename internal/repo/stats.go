// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries over the listings
// table, used by the operator tooling to check what the rotation has to draw
// from.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-listings-backend/internal/domain"
)

// ListingStats summarizes the listings inventory.
type ListingStats struct {
	ByStatus          map[domain.ListingStatus]int64
	Published         int64
	PublishedFeatured int64
	// LatestPublishedAt is the CreatedAt of the newest published listing, or
	// nil when nothing is published.
	LatestPublishedAt *time.Time
}

// Stats returns counts per status, published and published-featured totals,
// and the most recent published CreatedAt. Soft-deleted rows are excluded.
func Stats(ctx context.Context, db *gorm.DB) (ListingStats, error) {
	st := ListingStats{ByStatus: map[domain.ListingStatus]int64{}}

	var rows []struct {
		Status domain.ListingStatus
		N      int64
	}
	if err := db.WithContext(ctx).Model(&domain.Listing{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return ListingStats{}, err
	}
	for _, r := range rows {
		st.ByStatus[r.Status] = r.N
	}
	st.Published = st.ByStatus[domain.StatusPublished]
	if st.Published == 0 {
		return st, nil
	}

	published := db.WithContext(ctx).Model(&domain.Listing{}).Where("status = ?", domain.StatusPublished)
	if err := published.Session(&gorm.Session{}).Where("featured = ?", true).Count(&st.PublishedFeatured).Error; err != nil {
		return ListingStats{}, err
	}

	// Latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err := published.Session(&gorm.Session{}).Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return ListingStats{}, err
	}
	st.LatestPublishedAt = &row.CreatedAt
	return st, nil
}
