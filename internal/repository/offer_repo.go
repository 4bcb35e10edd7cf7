package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/db"
)

// OfferRepository provides data access methods for decided offers.
// Offer rows are append-only apart from the accepted flag.
type OfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new repository bound to the given DB connection.
func NewOfferRepository(database *gorm.DB) *OfferRepository {
	return &OfferRepository{db: database}
}

func (r *OfferRepository) Create(ctx context.Context, offer *db.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

// ListByUser returns a user's most recently decided offers, newest first.
func (r *OfferRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]db.Offer, error) {
	var offers []db.Offer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("decided_at DESC, id DESC").
		Limit(limit).
		Find(&offers).Error
	return offers, err
}

// CountAcceptedSince counts accepted offers whose decision timestamp is
// at or after the given instant. Used for the weekly rollup with the
// Redis counter as a cache in front.
func (r *OfferRepository) CountAcceptedSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Offer{}).
		Where("user_id = ? AND accepted = ? AND decided_at >= ?", userID, true, since).
		Count(&count).Error
	return count, err
}
