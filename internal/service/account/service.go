package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/db"
	apperr "github.com/shifthunter/backend/internal/errors"
	"github.com/shifthunter/backend/internal/repository"
)

// accountLinkPattern pulls the account id out of a copied registration
// URL. The id sits after an URL-encoded "id/" path segment.
var accountLinkPattern = regexp.MustCompile(`id%2F([^&]+)`)

var validate = validator.New()

// Service owns user accounts: registration, credential checks, session
// tokens, profile updates and platform account linking.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	settings *repository.SettingsRepository
	activity *repository.ActivityRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		settings: repository.NewSettingsRepository(appCtx.DB),
		activity: repository.NewActivityRepository(appCtx.DB),
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	NotificationNumber *string `json:"notificationNumber" validate:"omitempty,max=32"`
}

type LinkAccountRequest struct {
	URL string `json:"url" validate:"required"`
}

// Profile is the public view of a user row. The password hash never
// leaves the service.
type Profile struct {
	ID                 uint64    `json:"id"`
	Username           string    `json:"username"`
	ExternalAccountID  string    `json:"externalAccountId,omitempty"`
	NotificationNumber string    `json:"notificationNumber,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func profileOf(u *db.User) *Profile {
	return &Profile{
		ID:                 u.ID,
		Username:           u.Username,
		ExternalAccountID:  u.ExternalAccountID,
		NotificationNumber: u.NotificationNumber,
		CreatedAt:          u.CreatedAt,
	}
}

// Register creates a user with a bcrypt password hash and a default
// settings row, then opens a session so the caller is logged in
// immediately.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Profile, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", apperr.Invalid(err.Error())
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", apperr.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	u := &db.User{Username: req.Username, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	// every user gets a settings row up front so the dashboard never
	// has to special-case a missing one
	if err := s.settings.Create(ctx, &db.SearchSettings{
		UserID:   u.ID,
		Strategy: db.StrategySteady,
		Schedule: db.DefaultWeekSchedule(),
	}); err != nil {
		return nil, "", err
	}

	if err := s.activity.Append(ctx, u.ID, db.ActionAccountCreated, "Account created"); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}

	token, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return profileOf(u), token, nil
}

// Login verifies credentials and opens a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Profile, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", apperr.Invalid(err.Error())
	}

	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", apperr.ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}

	if err := s.activity.Append(ctx, u.ID, db.ActionUserLogin, "Logged in"); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return profileOf(u), token, nil
}

// Logout revokes the session token. A missing or already-expired token
// is not an error.
func (s *Service) Logout(ctx context.Context, userID uint64, token string) error {
	if token != "" {
		if err := s.appCtx.RedisCache.DeleteAuthSession(ctx, token); err != nil {
			return err
		}
	}
	if err := s.activity.Append(ctx, userID, db.ActionUserLogout, "Logged out"); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID uint64) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint64, req UpdateProfileRequest) (*Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	fields := map[string]any{}
	if req.NotificationNumber != nil {
		fields["notification_number"] = *req.NotificationNumber
	}
	if len(fields) == 0 {
		return s.GetProfile(ctx, userID)
	}

	u, err := s.users.Update(ctx, userID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, userID, db.ActionUserUpdated, "Profile updated"); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return profileOf(u), nil
}

// LinkAccount extracts the platform account id from a registration URL
// the user pasted in and stores it on the profile. Searching cannot
// start until this id is set.
func (s *Service) LinkAccount(ctx context.Context, userID uint64, req LinkAccountRequest) (*Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	m := accountLinkPattern.FindStringSubmatch(req.URL)
	if m == nil {
		return nil, apperr.Invalid("could not find an account id in the provided URL")
	}
	// the id is captured still percent-encoded
	accountID, err := url.QueryUnescape(m[1])
	if err != nil {
		return nil, apperr.Invalid("could not decode the account id in the provided URL")
	}

	u, err := s.users.Update(ctx, userID, map[string]any{"external_account_id": accountID})
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("Linked platform account %s", accountID)
	if err := s.activity.Append(ctx, userID, db.ActionAccountLinked, detail); err != nil {
		s.appCtx.Logger.Warn("activity append failed", "error", err)
	}
	return profileOf(u), nil
}

func (s *Service) issueSession(ctx context.Context, userID uint64) (string, error) {
	token := uuid.NewString()
	ttl := s.appCtx.Config.Session.TTL
	if err := s.appCtx.RedisCache.PutAuthSession(ctx, token, userID, ttl); err != nil {
		return "", err
	}
	return token, nil
}
