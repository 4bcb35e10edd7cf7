// Package search implements the search-session lifecycle: starting and
// stopping the automated search, recording matcher decisions against the
// active session, and the dashboard status rollups.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/db"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/matcher"
	"github.com/shifthunter/backend/internal/repository"
	"github.com/shifthunter/backend/internal/utils/weekwindow"
)

// Service owns session transitions and decision accounting.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	sessions  *repository.SessionRepository
	offers    *repository.OfferRepository
	locations *repository.LocationRepository
	settings  *repository.SettingsRepository
	activity  *repository.ActivityRepository

	now func() time.Time
}

// NewService creates a search service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		users:     repository.NewUserRepository(appCtx.DB),
		sessions:  repository.NewSessionRepository(appCtx.DB),
		offers:    repository.NewOfferRepository(appCtx.DB),
		locations: repository.NewLocationRepository(appCtx.DB),
		settings:  repository.NewSettingsRepository(appCtx.DB),
		activity:  repository.NewActivityRepository(appCtx.DB),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StatusReport is the derived "current search status" view.
type StatusReport struct {
	Active             bool              `json:"isActive"`
	Session            *db.SearchSession `json:"session,omitempty"`
	SearchMinutesToday int64             `json:"searchMinutesToday"`
	AcceptedThisWeek   int64             `json:"acceptedShiftsThisWeek"`
}

// Start creates a running session for the user.
//
// Preconditions:
//   - a linked platform account
//   - search settings and at least one configured location
//   - no session currently running (ErrAlreadyRunning otherwise; the
//     check-then-create runs transactionally in the repository)
//
// Side effect: SEARCH_STARTED audit entry.
func (s *Service) Start(ctx context.Context, userID uint64) (*db.SearchSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ExternalAccountID == "" {
		return nil, apperr.ErrAccountNotLinked
	}

	if _, err := s.settings.GetByUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Invalid("search settings not found")
		}
		return nil, err
	}

	locations, err := s.locations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, apperr.Invalid("no locations configured")
	}

	session, err := s.sessions.CreateRunning(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, userID, db.ActionSearchStarted, "Search started"); err != nil {
		s.appCtx.Logger.Error("failed to log search start", "user_id", userID, "err", err)
	}

	s.appCtx.Logger.Info("search started", "user_id", userID, "session_id", session.ID)
	return session, nil
}

// Stop concludes the user's running session.
// Returns ErrNoActiveSession when nothing is running.
// Side effect: SEARCH_STOPPED audit entry.
func (s *Service) Stop(ctx context.Context, userID uint64) (*db.SearchSession, error) {
	active, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.stopSession(ctx, active)
}

func (s *Service) stopSession(ctx context.Context, session *db.SearchSession) (*db.SearchSession, error) {
	stopped, err := s.sessions.Stop(ctx, session.ID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, session.UserID, db.ActionSearchStopped, "Search stopped"); err != nil {
		s.appCtx.Logger.Error("failed to log search stop", "user_id", session.UserID, "err", err)
	}

	s.appCtx.Logger.Info("search stopped", "user_id", session.UserID, "session_id", session.ID)
	return stopped, nil
}

// Preferences assembles the matcher aggregate for a user: enabled
// location rules plus the global settings row.
func (s *Service) Preferences(ctx context.Context, userID uint64) (matcher.Preferences, *db.SearchSettings, error) {
	settings, err := s.settings.GetByUser(ctx, userID)
	if err != nil {
		return matcher.Preferences{}, nil, err
	}

	locations, err := s.locations.ListEnabledByUser(ctx, userID)
	if err != nil {
		return matcher.Preferences{}, nil, err
	}

	prefs := matcher.Preferences{Locations: make([]matcher.LocationRule, 0, len(locations))}
	for _, loc := range locations {
		prefs.Locations = append(prefs.Locations, matcher.LocationRule{
			Code:             loc.Code,
			Enabled:          loc.Enabled,
			MinPay:           loc.MinPay,
			MinHourlyPay:     loc.MinHourlyPay,
			ArrivalBuffer:    loc.ArrivalBuffer,
			MinShiftDuration: loc.MinShiftDuration,
			MaxShiftDuration: loc.MaxShiftDuration,
		})
	}
	return prefs, settings, nil
}

// RecordDecision folds one matcher decision into the running session.
//
// Behavior:
//   - offersFound is always incremented; offersAccepted only on accept.
//   - The candidate is persisted as an Offer with its accepted flag and
//     denormalized location fields, then logged (OFFER_ACCEPTED or
//     OFFER_FOUND with the rejection reason).
//   - On accept, the cached weekly counter is invalidated, and when the
//     user's settings have stopAfterAccepted the session is stopped
//     within this same call.
//
// Candidates arriving for a session that is no longer running are not
// recorded (ErrNoActiveSession).
func (s *Service) RecordDecision(ctx context.Context, session *db.SearchSession, c matcher.Candidate, dec matcher.Decision) (*db.SearchSession, error) {
	if session.Status != db.SessionRunning {
		return nil, apperr.ErrNoActiveSession
	}

	updated, err := s.sessions.IncrementCounters(ctx, session.ID, dec.Accept)
	if err != nil {
		return nil, err
	}

	offer := db.Offer{
		UserID:          session.UserID,
		LocationCode:    c.LocationCode,
		LocationName:    c.LocationName,
		LocationAddress: c.LocationAddress,
		CongestionZone:  c.CongestionZone,
		Pay:             c.Pay,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		DurationHours:   c.DurationHours,
		HourlyRate:      c.HourlyRate,
		Accepted:        dec.Accept,
		DecidedAt:       s.now(),
	}
	if err := s.offers.Create(ctx, &offer); err != nil {
		return nil, err
	}

	if !dec.Accept {
		detail := fmt.Sprintf("Rejected %s shift: %s", c.LocationCode, dec.Reason)
		if err := s.activity.Append(ctx, session.UserID, db.ActionOfferFound, detail); err != nil {
			s.appCtx.Logger.Error("failed to log rejection", "user_id", session.UserID, "err", err)
		}
		return updated, nil
	}

	detail := fmt.Sprintf("Accepted %s shift at %s (%.1fh, %dp)", c.LocationCode, c.StartTime.Format("Mon 15:04"), c.DurationHours, c.Pay)
	if err := s.activity.Append(ctx, session.UserID, db.ActionOfferAccepted, detail); err != nil {
		s.appCtx.Logger.Error("failed to log acceptance", "user_id", session.UserID, "err", err)
	}

	settings, err := s.settings.GetByUser(ctx, session.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.appCtx.Logger.Error("failed to load settings after acceptance", "user_id", session.UserID, "err", err)
	}

	tz := ""
	if settings != nil {
		tz = settings.Timezone
	}
	weekStart := weekwindow.WeekStart(s.now(), tz)
	_ = s.appCtx.RedisCache.InvalidateWeeklyAccepted(ctx, session.UserID, weekStart)

	if settings != nil && settings.StopAfterAccepted {
		return s.stopSession(ctx, updated)
	}
	return updated, nil
}

// Status reports whether a session is running plus two rollups: running
// minutes accrued today and accepted offers this week, both computed in
// the user's configured timezone. The weekly count is cache-first with
// the offer store as fallback.
func (s *Service) Status(ctx context.Context, userID uint64) (*StatusReport, error) {
	tz := ""
	if settings, err := s.settings.GetByUser(ctx, userID); err == nil {
		tz = settings.Timezone
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	report := &StatusReport{}

	session, err := s.sessions.GetActive(ctx, userID)
	switch {
	case err == nil:
		report.Active = true
		report.Session = session
	case errors.Is(err, apperr.ErrNoActiveSession):
		// no running session, rollups still apply
	default:
		return nil, err
	}

	now := s.now()

	minutes, err := s.sessions.MinutesAccruedSince(ctx, userID, weekwindow.DayStart(now, tz), now)
	if err != nil {
		return nil, err
	}
	report.SearchMinutesToday = minutes

	weekly, err := s.acceptedThisWeek(ctx, userID, now, tz)
	if err != nil {
		return nil, err
	}
	report.AcceptedThisWeek = weekly

	return report, nil
}

// acceptedThisWeek is cache-first:
//  1. read Redis (offers:accepted:week:userID:weekStart)
//  2. on miss, count from the offer store since the week start
//  3. populate Redis with a 1h TTL
//
// The week start in the key means a rollover is a plain cache miss.
func (s *Service) acceptedThisWeek(ctx context.Context, userID uint64, now time.Time, tz string) (int64, error) {
	weekStart := weekwindow.WeekStart(now, tz)

	if count, found, err := s.appCtx.RedisCache.GetWeeklyAccepted(ctx, userID, weekStart); err == nil && found {
		return count, nil
	}

	count, err := s.offers.CountAcceptedSince(ctx, userID, weekStart)
	if err != nil {
		return 0, err
	}

	if err := s.appCtx.RedisCache.SetWeeklyAccepted(ctx, userID, weekStart, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache weekly count", "user_id", userID, "err", err)
	}
	return count, nil
}
