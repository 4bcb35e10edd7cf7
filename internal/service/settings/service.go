package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/db"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/repository"
)

const (
	defaultListLimit = 100

	// matches the column default on location_preferences.max_shift_duration
	defaultMaxShiftDuration = 24
)

var validate = validator.New()

// Service owns the per-user search configuration: depot preferences,
// search settings, plus the read side of the activity and offer
// histories.
type Service struct {
	appCtx    *app.AppContext
	locations *repository.LocationRepository
	settings  *repository.SettingsRepository
	offers    *repository.OfferRepository
	activity  *repository.ActivityRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		locations: repository.NewLocationRepository(appCtx.DB),
		settings:  repository.NewSettingsRepository(appCtx.DB),
		offers:    repository.NewOfferRepository(appCtx.DB),
		activity:  repository.NewActivityRepository(appCtx.DB),
	}
}

type LocationRequest struct {
	Code             string  `json:"code" validate:"required,max=16"`
	Name             string  `json:"name" validate:"required,max=128"`
	Address          string  `json:"address" validate:"max=256"`
	CongestionZone   bool    `json:"congestionZone"`
	Enabled          *bool   `json:"enabled"`
	MinPay           int64   `json:"minPay" validate:"min=0"`
	MinHourlyPay     int64   `json:"minHourlyPay" validate:"min=0"`
	ArrivalBuffer    int     `json:"arrivalBuffer" validate:"min=0"`
	MinShiftDuration float64 `json:"minShiftDuration" validate:"min=0"`
	MaxShiftDuration float64 `json:"maxShiftDuration" validate:"min=0"`
}

// LocationPatch carries only the fields present in a PATCH body.
// Pointers distinguish "absent" from zero values.
type LocationPatch struct {
	Name             *string  `json:"name" validate:"omitempty,max=128"`
	Address          *string  `json:"address" validate:"omitempty,max=256"`
	CongestionZone   *bool    `json:"congestionZone"`
	Enabled          *bool    `json:"enabled"`
	MinPay           *int64   `json:"minPay" validate:"omitempty,min=0"`
	MinHourlyPay     *int64   `json:"minHourlyPay" validate:"omitempty,min=0"`
	ArrivalBuffer    *int     `json:"arrivalBuffer" validate:"omitempty,min=0"`
	MinShiftDuration *float64 `json:"minShiftDuration" validate:"omitempty,min=0"`
	MaxShiftDuration *float64 `json:"maxShiftDuration" validate:"omitempty,min=0"`
}

type SettingsPatch struct {
	Strategy          *string          `json:"strategy" validate:"omitempty,oneof=short-burst steady"`
	AutoSolveCaptcha  *bool            `json:"autoSolveCaptcha"`
	StopAfterAccepted *bool            `json:"stopAfterAccepted"`
	Timezone          *string          `json:"timezone" validate:"omitempty,max=64"`
	Schedule          *db.WeekSchedule `json:"schedule"`
}

func (s *Service) ListLocations(ctx context.Context, userID uint64) ([]db.LocationPreference, error) {
	return s.locations.ListByUser(ctx, userID)
}

func (s *Service) CreateLocation(ctx context.Context, userID uint64, req LocationRequest) (*db.LocationPreference, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	// an omitted max means "no upper bound", stored as the column default
	if req.MaxShiftDuration == 0 {
		req.MaxShiftDuration = defaultMaxShiftDuration
	}
	if req.MinShiftDuration > req.MaxShiftDuration {
		return nil, apperr.Invalid("minShiftDuration must not exceed maxShiftDuration")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	pref := &db.LocationPreference{
		UserID:           userID,
		Code:             req.Code,
		Name:             req.Name,
		Address:          req.Address,
		CongestionZone:   req.CongestionZone,
		Enabled:          enabled,
		MinPay:           req.MinPay,
		MinHourlyPay:     req.MinHourlyPay,
		ArrivalBuffer:    req.ArrivalBuffer,
		MinShiftDuration: req.MinShiftDuration,
		MaxShiftDuration: req.MaxShiftDuration,
	}
	if err := s.locations.Create(ctx, pref); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("Added location %s (%s)", pref.Code, pref.Name)
	if err := s.activity.Append(ctx, userID, db.ActionLocationAdded, detail); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return pref, nil
}

func (s *Service) UpdateLocation(ctx context.Context, userID, locationID uint64, patch LocationPatch) (*db.LocationPreference, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	existing, err := s.ownedLocation(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Address != nil {
		fields["address"] = *patch.Address
	}
	if patch.CongestionZone != nil {
		fields["congestion_zone"] = *patch.CongestionZone
	}
	if patch.Enabled != nil {
		fields["enabled"] = *patch.Enabled
	}
	if patch.MinPay != nil {
		fields["min_pay"] = *patch.MinPay
	}
	if patch.MinHourlyPay != nil {
		fields["min_hourly_pay"] = *patch.MinHourlyPay
	}
	if patch.ArrivalBuffer != nil {
		fields["arrival_buffer"] = *patch.ArrivalBuffer
	}
	if patch.MinShiftDuration != nil {
		fields["min_shift_duration"] = *patch.MinShiftDuration
	}
	if patch.MaxShiftDuration != nil {
		// a zero max resets the upper bound to the column default
		maxDur := *patch.MaxShiftDuration
		if maxDur == 0 {
			maxDur = defaultMaxShiftDuration
		}
		fields["max_shift_duration"] = maxDur
	}

	// duration bounds are checked against the merged row, not just the
	// fields present in the patch
	minDur, maxDur := existing.MinShiftDuration, existing.MaxShiftDuration
	if patch.MinShiftDuration != nil {
		minDur = *patch.MinShiftDuration
	}
	if v, ok := fields["max_shift_duration"]; ok {
		maxDur = v.(float64)
	}
	if minDur > maxDur {
		return nil, apperr.Invalid("minShiftDuration must not exceed maxShiftDuration")
	}

	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.locations.Update(ctx, locationID, fields)
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("Updated location %s", updated.Code)
	if err := s.activity.Append(ctx, userID, db.ActionLocationUpdated, detail); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return updated, nil
}

func (s *Service) DeleteLocation(ctx context.Context, userID, locationID uint64) error {
	existing, err := s.ownedLocation(ctx, userID, locationID)
	if err != nil {
		return err
	}

	if err := s.locations.Delete(ctx, locationID); err != nil {
		return err
	}

	detail := fmt.Sprintf("Removed location %s", existing.Code)
	if err := s.activity.Append(ctx, userID, db.ActionLocationDeleted, detail); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return nil
}

// GetSettings returns the user's settings row, creating a default one
// on first read so callers never see a missing row.
func (s *Service) GetSettings(ctx context.Context, userID uint64) (*db.SearchSettings, error) {
	settings, err := s.settings.GetByUser(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &db.SearchSettings{
		UserID:   userID,
		Strategy: db.StrategySteady,
		Schedule: db.DefaultWeekSchedule(),
	}
	if err := s.settings.Create(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userID uint64, patch SettingsPatch) (*db.SearchSettings, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if patch.Timezone != nil {
		if _, err := time.LoadLocation(*patch.Timezone); err != nil {
			return nil, apperr.Invalid("unknown timezone")
		}
	}

	// upsert: a PATCH before any explicit read still lands somewhere
	existing, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Strategy != nil {
		fields["strategy"] = *patch.Strategy
	}
	if patch.AutoSolveCaptcha != nil {
		fields["auto_solve_captcha"] = *patch.AutoSolveCaptcha
	}
	if patch.StopAfterAccepted != nil {
		fields["stop_after_accepted"] = *patch.StopAfterAccepted
	}
	if patch.Timezone != nil {
		fields["timezone"] = *patch.Timezone
	}
	if patch.Schedule != nil {
		fields["schedule"] = *patch.Schedule
	}
	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.settings.Update(ctx, userID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, userID, db.ActionSettingsUpdated, "Search settings updated"); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return updated, nil
}

func (s *Service) ListActivity(ctx context.Context, userID uint64, limit int) ([]db.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.activity.ListByUser(ctx, userID, limit)
}

func (s *Service) ListOffers(ctx context.Context, userID uint64, limit int) ([]db.Offer, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.offers.ListByUser(ctx, userID, limit)
}

// ownedLocation loads a location and verifies it belongs to the user.
// Rows owned by someone else surface as not-found.
func (s *Service) ownedLocation(ctx context.Context, userID, locationID uint64) (*db.LocationPreference, error) {
	pref, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if pref.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	return pref, nil
}
