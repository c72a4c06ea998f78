// Package domain defines the persistence models for marketplace listings.
// These types are mapped with GORM and shared by the repository, rotation
// and service layers.
package domain

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// ListingStatus is the moderation/publication state of a listing.
type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusPending   ListingStatus = "pending"
	StatusPublished ListingStatus = "published"
	StatusRejected  ListingStatus = "rejected"
	StatusArchived  ListingStatus = "archived"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the known set.
var ErrUnknownStatus = errors.New("unknown listing status")

var statusFolder = cases.Fold()

// ParseStatus maps free-form input (any case, surrounding whitespace) to a
// ListingStatus.
func ParseStatus(s string) (ListingStatus, error) {
	switch ListingStatus(statusFolder.String(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPending:
		return StatusPending, nil
	case StatusPublished:
		return StatusPublished, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusArchived:
		return StatusArchived, nil
	}
	return "", ErrUnknownStatus
}

// Listing is an item offered on the marketplace. Only published listings are
// eligible for the landing page rotation.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Featured: paid/promoted flag; featured listings feed the featured and hot tiers.
//   - Status: publication state; (status, created_at) is indexed for the
//     "most recent published" query.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Listing struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price"       gorm:"not null;default:0"`
	Location    string         `json:"location"    gorm:"type:varchar(255)"`
	ImageURL    string         `json:"image_url"   gorm:"type:varchar(1024)"`
	Featured    bool           `json:"featured"    gorm:"not null;default:false"`
	Status      ListingStatus  `json:"status"      gorm:"type:varchar(16);not null;default:'draft';index:idx_listing_status_created,priority:1"`
	OwnerID     string         `json:"owner_id"    gorm:"type:varchar(64);index"`
	CreatedAt   time.Time      `json:"created_at"  gorm:"index:idx_listing_status_created,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Listing.
func (Listing) TableName() string { return "listings" }

// IsPublished reports whether the listing is visible to the public.
func (l Listing) IsPublished() bool { return l.Status == StatusPublished }
