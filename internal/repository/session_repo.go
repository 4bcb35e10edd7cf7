package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/db"
	apperr "github.com/shifthunter/backend/internal/errors"
)

// SessionRepository provides data access methods for search sessions.
// It owns the single-running-session-per-user invariant.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new repository bound to the given DB connection.
func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

// CreateRunning starts a new running session for a user.
//
// Behavior:
//   - The existence check and the insert run in one transaction, so two
//     concurrent start requests cannot both create a running session.
//   - Returns ErrAlreadyRunning when a running session exists; no row is
//     created in that case.
func (r *SessionRepository) CreateRunning(ctx context.Context, userID uint64) (*db.SearchSession, error) {
	var created db.SearchSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.SearchSession{}).
			Where("user_id = ? AND status = ?", userID, db.SessionRunning).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrAlreadyRunning
		}
		created = db.SearchSession{
			UserID: userID,
			Status: db.SessionRunning,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetActive returns the user's running session, or ErrNoActiveSession.
func (r *SessionRepository) GetActive(ctx context.Context, userID uint64) (*db.SearchSession, error) {
	var s db.SearchSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, db.SessionRunning).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNoActiveSession
	} else if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRunning returns every running session across users. The automation
// runner polls this each tick.
func (r *SessionRepository) ListRunning(ctx context.Context) ([]db.SearchSession, error) {
	var sessions []db.SearchSession
	err := r.db.WithContext(ctx).
		Where("status = ?", db.SessionRunning).
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) GetByID(ctx context.Context, id uint64) (*db.SearchSession, error) {
	var s db.SearchSession
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Stop transitions a session to stopped with the given end time.
func (r *SessionRepository) Stop(ctx context.Context, id uint64, endedAt time.Time) (*db.SearchSession, error) {
	if err := r.db.WithContext(ctx).
		Model(&db.SearchSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   db.SessionStopped,
			"end_time": endedAt,
		}).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// IncrementCounters bumps offersFound and, when accepted, offersAccepted.
func (r *SessionRepository) IncrementCounters(ctx context.Context, id uint64, accepted bool) (*db.SearchSession, error) {
	updates := map[string]any{
		"offers_found": gorm.Expr("offers_found + 1"),
	}
	if accepted {
		updates["offers_accepted"] = gorm.Expr("offers_accepted + 1")
	}
	if err := r.db.WithContext(ctx).
		Model(&db.SearchSession{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// MinutesAccruedSince sums the running minutes of a user's sessions that
// overlap [since, now]. Open sessions count up to now.
func (r *SessionRepository) MinutesAccruedSince(ctx context.Context, userID uint64, since, now time.Time) (int64, error) {
	var sessions []db.SearchSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND (end_time IS NULL OR end_time >= ?)", userID, since).
		Find(&sessions).Error
	if err != nil {
		return 0, err
	}

	var total time.Duration
	for _, s := range sessions {
		start := s.StartTime
		if start.Before(since) {
			start = since
		}
		end := now
		if s.EndTime != nil && s.EndTime.Before(now) {
			end = *s.EndTime
		}
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return int64(total.Minutes()), nil
}
