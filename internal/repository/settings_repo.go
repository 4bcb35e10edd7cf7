package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/db"
)

// SettingsRepository provides data access methods for the one-per-user
// global search settings row.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new repository bound to the given DB connection.
func NewSettingsRepository(database *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: database}
}

func (r *SettingsRepository) GetByUser(ctx context.Context, userID uint64) (*db.SearchSettings, error) {
	var s db.SearchSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Create(ctx context.Context, s *db.SearchSettings) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Update applies the given column set to a user's settings row and
// returns the refreshed record.
func (r *SettingsRepository) Update(ctx context.Context, userID uint64, fields map[string]any) (*db.SearchSettings, error) {
	if err := r.db.WithContext(ctx).
		Model(&db.SearchSettings{}).
		Where("user_id = ?", userID).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}
