package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/db"
)

// ActivityRepository provides append and read access to the audit trail.
// Entries are never updated or deleted.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new repository bound to the given DB connection.
func NewActivityRepository(database *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: database}
}

// Append writes one audit entry.
//
// Example:
//
//	repo.Append(ctx, 1, db.ActionSearchStarted, "Search started")
func (r *ActivityRepository) Append(ctx context.Context, userID uint64, action, details string) error {
	entry := db.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ListByUser returns a user's most recent audit entries, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]db.ActivityLog, error) {
	var entries []db.ActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
