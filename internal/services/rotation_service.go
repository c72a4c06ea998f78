// Package services – RotationService
//
// This file implements RotationService, the application-facing entry point
// to the listing rotation. It reads snapshots from a rotation.Cache and maps
// them to the transport-neutral RotatedListings view consumed by the HTTP
// handlers and the CLI.
//
// Observability: reads are OpenTelemetry-instrumented under the
// "services/RotationService" tracer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/rotation"
)

// ListingRef is the subset of a listing exposed in a rotation.
type ListingRef struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Location  string    `json:"location,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
}

// RotatedListings is one rotation as served to clients.
type RotatedListings struct {
	Featured       []ListingRef `json:"featured"`
	Hot            []ListingRef `json:"hot"`
	Regular        []ListingRef `json:"regular"`
	ComputedAt     time.Time    `json:"computed_at"`
	NextRotationAt time.Time    `json:"next_rotation_at"`
	// Stale is set when the rotation is past its expiry, e.g. because the
	// last recompute failed and the previous rotation is being served.
	Stale bool `json:"stale"`
}

// RotationStatus describes the cache without triggering a recompute.
type RotationStatus struct {
	State          string    `json:"state"`
	ComputedAt     time.Time `json:"computed_at,omitempty"`
	NextRotationAt time.Time `json:"next_rotation_at,omitempty"`
}

// RotationService serves rotated listings from a shared cache.
type RotationService struct {
	Cache *rotation.Cache
}

// NewRotationService returns a RotationService backed by cache.
func NewRotationService(cache *rotation.Cache) *RotationService {
	return &RotationService{Cache: cache}
}

// GetRotatedListings returns the current rotation, recomputing it when
// expired. It fails only when no rotation has ever been computed and the
// repository is unavailable; the error then wraps ErrRotationUnavailable.
func (s *RotationService) GetRotatedListings(ctx context.Context) (RotatedListings, error) {
	tr := otel.Tracer("services/RotationService")
	ctx, span := tr.Start(ctx, "GetRotatedListings")
	defer span.End()

	snap, err := s.Cache.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rotation unavailable")
		var repoErr *rotation.RepositoryError
		if errors.As(err, &repoErr) {
			return RotatedListings{}, fmt.Errorf("%w: %w", ErrRotationUnavailable, err)
		}
		return RotatedListings{}, err
	}

	out := RotatedListings{
		Featured:       toRefs(snap.Featured()),
		Hot:            toRefs(snap.Hot()),
		Regular:        toRefs(snap.Regular()),
		ComputedAt:     snap.ComputedAt(),
		NextRotationAt: snap.ExpiresAt(),
		Stale:          !s.Cache.Fresh(snap),
	}
	span.SetAttributes(
		attribute.Int("rotation.featured", len(out.Featured)),
		attribute.Int("rotation.hot", len(out.Hot)),
		attribute.Int("rotation.regular", len(out.Regular)),
		attribute.Bool("rotation.stale", out.Stale),
	)
	return out, nil
}

// ForceRotation invalidates the current rotation; the next read recomputes.
// It performs no I/O and is safe to call repeatedly.
func (s *RotationService) ForceRotation() {
	s.Cache.ForceRotation()
	log.Info().Str("component", "rotation").Msg("rotation forced")
}

// Status reports the cache state without triggering a recompute.
func (s *RotationService) Status() RotationStatus {
	st := s.Cache.Status()
	return RotationStatus{
		State:          st.State.String(),
		ComputedAt:     st.ComputedAt,
		NextRotationAt: st.NextRotationAt,
	}
}

func toRefs(ls []domain.Listing) []ListingRef {
	out := make([]ListingRef, len(ls))
	for i, l := range ls {
		out[i] = ListingRef{
			ID:        l.ID,
			Title:     l.Title,
			Price:     l.Price,
			Location:  l.Location,
			ImageURL:  l.ImageURL,
			Featured:  l.Featured,
			CreatedAt: l.CreatedAt,
		}
	}
	return out
}
