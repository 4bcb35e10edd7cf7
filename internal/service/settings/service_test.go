package settings_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/cache"
	"github.com/shifthunter/backend/internal/config"
	"github.com/shifthunter/backend/internal/db"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/service/settings"
)

func setupService(t *testing.T) (*settings.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(
		&db.User{}, &db.LocationPreference{}, &db.SearchSettings{},
		&db.Offer{}, &db.SearchSession{}, &db.ActivityLog{},
	))

	users := []db.User{
		{ID: 1, Username: "driver1", PasswordHash: "x"},
		{ID: 2, Username: "driver2", PasswordHash: "x"},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return settings.NewService(appCtx), appCtx
}

func validLocation() settings.LocationRequest {
	return settings.LocationRequest{
		Code:             "DXN1",
		Name:             "Wembley Depot",
		Address:          "Fifth Way, Wembley",
		MinPay:           5000,
		MinHourlyPay:     1200,
		ArrivalBuffer:    60,
		MinShiftDuration: 2,
		MaxShiftDuration: 5,
	}
}

func TestCreateLocation(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)
	assert.Equal(t, "DXN1", pref.Code)
	assert.True(t, pref.Enabled) // enabled by default

	var logs []db.ActivityLog
	require.NoError(t, appCtx.DB.Where("user_id = ? AND action = ?", 1, db.ActionLocationAdded).Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestCreateLocation_RejectsInvertedDurationBounds(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	req := validLocation()
	req.MinShiftDuration = 6
	req.MaxShiftDuration = 4

	_, err := svc.CreateLocation(ctx, 1, req)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCreateLocation_ZeroMaxDurationUsesDefault(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	req := validLocation()
	req.MaxShiftDuration = 0
	pref, err := svc.CreateLocation(ctx, 1, req)
	require.NoError(t, err)
	assert.EqualValues(t, 24, pref.MaxShiftDuration)
	assert.LessOrEqual(t, pref.MinShiftDuration, pref.MaxShiftDuration)

	// the bound check still applies against the resolved default
	req = validLocation()
	req.Code = "DRH1"
	req.MinShiftDuration = 30
	req.MaxShiftDuration = 0
	_, err = svc.CreateLocation(ctx, 1, req)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateLocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)

	minPay := int64(7000)
	enabled := false
	updated, err := svc.UpdateLocation(ctx, 1, pref.ID, settings.LocationPatch{
		MinPay:  &minPay,
		Enabled: &enabled,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7000, updated.MinPay)
	assert.False(t, updated.Enabled)
	// untouched fields survive the patch
	assert.Equal(t, "Wembley Depot", updated.Name)
}

func TestUpdateLocation_ChecksMergedDurationBounds(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)

	// existing max is 5, a lone min of 6 must be rejected
	minDur := 6.0
	_, err = svc.UpdateLocation(ctx, 1, pref.ID, settings.LocationPatch{MinShiftDuration: &minDur})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateLocation_ZeroMaxDurationUsesDefault(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)

	// patching max to 0 resets the bound instead of storing a row every
	// candidate would fail against
	zero := 0.0
	updated, err := svc.UpdateLocation(ctx, 1, pref.ID, settings.LocationPatch{MaxShiftDuration: &zero})
	require.NoError(t, err)
	assert.EqualValues(t, 24, updated.MaxShiftDuration)

	minDur := 30.0
	_, err = svc.UpdateLocation(ctx, 1, pref.ID, settings.LocationPatch{
		MinShiftDuration: &minDur,
		MaxShiftDuration: &zero,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLocationOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)

	// another user's rows look like they do not exist
	name := "Hijacked"
	_, err = svc.UpdateLocation(ctx, 2, pref.ID, settings.LocationPatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.DeleteLocation(ctx, 2, pref.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteLocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	pref, err := svc.CreateLocation(ctx, 1, validLocation())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLocation(ctx, 1, pref.ID))

	prefs, err := svc.ListLocations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestGetSettings_ProvisionsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	got, err := svc.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.StrategySteady, got.Strategy)
	assert.False(t, got.StopAfterAccepted)
	assert.NotNil(t, got.Schedule)

	// second read returns the same row
	again, err := svc.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	strategy := db.StrategyShortBurst
	stop := true
	tz := "Europe/London"
	updated, err := svc.UpdateSettings(ctx, 1, settings.SettingsPatch{
		Strategy:          &strategy,
		StopAfterAccepted: &stop,
		Timezone:          &tz,
	})
	require.NoError(t, err)
	assert.Equal(t, db.StrategyShortBurst, updated.Strategy)
	assert.True(t, updated.StopAfterAccepted)
	assert.Equal(t, "Europe/London", updated.Timezone)
}

func TestUpdateSettings_RejectsUnknownStrategyAndTimezone(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	bad := "frantic"
	_, err := svc.UpdateSettings(ctx, 1, settings.SettingsPatch{Strategy: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	tz := "Mars/Olympus_Mons"
	_, err = svc.UpdateSettings(ctx, 1, settings.SettingsPatch{Timezone: &tz})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestListActivity_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := db.ActivityLog{
			UserID:    1,
			Action:    db.ActionOfferFound,
			Details:   fmt.Sprintf("entry %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, appCtx.DB.Create(&entry).Error)
	}

	entries, err := svc.ListActivity(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 4", entries[0].Details)
	assert.Equal(t, "entry 2", entries[2].Details)
}
