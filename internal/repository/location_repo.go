package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/db"
)

// LocationRepository provides data access methods for per-location
// acceptance preferences.
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new repository bound to the given DB connection.
func NewLocationRepository(database *gorm.DB) *LocationRepository {
	return &LocationRepository{db: database}
}

// ListByUser returns all of a user's location preferences, enabled or not,
// ordered by code for stable dashboard rendering.
func (r *LocationRepository) ListByUser(ctx context.Context, userID uint64) ([]db.LocationPreference, error) {
	var prefs []db.LocationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("code ASC").
		Find(&prefs).Error
	return prefs, err
}

// ListEnabledByUser returns only the preferences that participate in
// matching.
func (r *LocationRepository) ListEnabledByUser(ctx context.Context, userID uint64) ([]db.LocationPreference, error) {
	var prefs []db.LocationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("code ASC").
		Find(&prefs).Error
	return prefs, err
}

func (r *LocationRepository) GetByID(ctx context.Context, id uint64) (*db.LocationPreference, error) {
	var pref db.LocationPreference
	if err := r.db.WithContext(ctx).First(&pref, id).Error; err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *LocationRepository) Create(ctx context.Context, pref *db.LocationPreference) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

// Update applies the given column set to a preference row and returns the
// refreshed record. Callers verify ownership before updating.
func (r *LocationRepository) Update(ctx context.Context, id uint64, fields map[string]any) (*db.LocationPreference, error) {
	if err := r.db.WithContext(ctx).
		Model(&db.LocationPreference{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a preference row. Historical offers keep their
// denormalized location fields, so deletion never orphans history.
func (r *LocationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.LocationPreference{}, id).Error
}
