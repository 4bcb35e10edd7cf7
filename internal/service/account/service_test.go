package account_test

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
	"github.com/shifthunter/backend/internal/service/account"
)

func setupService(t *testing.T) (*account.Service, *app.AppContext) {
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return account.NewService(appCtx), appCtx
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	profile, token, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)
	assert.Equal(t, "driver1", profile.Username)
	require.NotEmpty(t, token)

	// registering opens a session right away
	userID, err := appCtx.RedisCache.GetAuthSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, userID)

	// a settings row is provisioned alongside the account
	var settings db.SearchSettings
	require.NoError(t, appCtx.DB.Where("user_id = ?", profile.ID).First(&settings).Error)
	assert.Equal(t, db.StrategySteady, settings.Strategy)
	assert.NotNil(t, settings.Schedule)

	// password is stored hashed
	var u db.User
	require.NoError(t, appCtx.DB.First(&u, profile.ID).Error)
	assert.NotEqual(t, "secret99", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "another1"})
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "abc"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	registered, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	profile, token, err := svc.Login(ctx, account.LoginRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, profile.ID)

	userID, err := appCtx.RedisCache.GetAuthSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, userID)
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, account.LoginRequest{Username: "driver1", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	// unknown username reports the same error as a wrong password
	_, _, err = svc.Login(ctx, account.LoginRequest{Username: "nobody", Password: "secret99"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLogout_RevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	profile, token, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, profile.ID, token))

	_, err = appCtx.RedisCache.GetAuthSession(ctx, token)
	assert.ErrorIs(t, err, cache.ErrNoSession)
}

func TestLinkAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	profile, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	url := "https://hiring.example.com/app?redirect=%2Fdriver%2Fid%2FAB12CD34&locale=en-GB"
	updated, err := svc.LinkAccount(ctx, profile.ID, account.LinkAccountRequest{URL: url})
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", updated.ExternalAccountID)
}

func TestLinkAccount_DecodesEncodedID(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	profile, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	// the id arrives percent-encoded inside the already-encoded path
	url := "https://hiring.example.com/app?redirect=%2Fdriver%2Fid%2Fuser%40example&locale=en-GB"
	updated, err := svc.LinkAccount(ctx, profile.ID, account.LinkAccountRequest{URL: url})
	require.NoError(t, err)
	assert.Equal(t, "user@example", updated.ExternalAccountID)
}

func TestLinkAccount_InvalidURL(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	profile, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	_, err = svc.LinkAccount(ctx, profile.ID, account.LinkAccountRequest{URL: "https://example.com/nothing-here"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	profile, _, err := svc.Register(ctx, account.RegisterRequest{Username: "driver1", Password: "secret99"})
	require.NoError(t, err)

	number := "+447700900123"
	updated, err := svc.UpdateProfile(ctx, profile.ID, account.UpdateProfileRequest{NotificationNumber: &number})
	require.NoError(t, err)
	assert.Equal(t, number, updated.NotificationNumber)

	var logs []db.ActivityLog
	require.NoError(t, appCtx.DB.Where("user_id = ? AND action = ?", profile.ID, db.ActionUserUpdated).Find(&logs).Error)
	assert.Len(t, logs, 1)
}
