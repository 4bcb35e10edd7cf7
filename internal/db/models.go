package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Session statuses
const (
	SessionRunning = "running"
	SessionStopped = "stopped"
)

// Search strategies (poll cadence only, no effect on matching)
const (
	StrategyShortBurst = "short-burst"
	StrategySteady     = "steady"
)

// Activity log actions
const (
	ActionAccountCreated  = "ACCOUNT_CREATED"
	ActionUserLogin       = "USER_LOGIN"
	ActionUserLogout      = "USER_LOGOUT"
	ActionUserUpdated     = "USER_UPDATED"
	ActionAccountLinked   = "ACCOUNT_LINKED"
	ActionLocationAdded   = "LOCATION_ADDED"
	ActionLocationUpdated = "LOCATION_UPDATED"
	ActionLocationDeleted = "LOCATION_DELETED"
	ActionSettingsUpdated = "SETTINGS_UPDATED"
	ActionSearchStarted   = "SEARCH_STARTED"
	ActionSearchStopped   = "SEARCH_STOPPED"
	ActionOfferFound      = "OFFER_FOUND"
	ActionOfferAccepted   = "OFFER_ACCEPTED"
)

// User table
type User struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement"`
	Username           string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash       string    `gorm:"size:255;not null"`
	ExternalAccountID  string    `gorm:"size:128"` // linked gig-platform account
	NotificationNumber string    `gorm:"size:32"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// LocationPreference holds per-location acceptance thresholds.
//
// Monetary fields are integer minor currency units (pence); durations are
// hours and may be fractional. The arrival buffer is minutes of lead time
// required between decision and shift start.
//
// Index:
//   - idx_location_user_code(user_id, code) UNIQUE
//     One preference row per (user, location) pair.
type LocationPreference struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	UserID           uint64    `gorm:"not null;uniqueIndex:idx_location_user_code,priority:1"`
	Code             string    `gorm:"size:16;not null;uniqueIndex:idx_location_user_code,priority:2"`
	Name             string    `gorm:"size:128;not null"`
	Address          string    `gorm:"size:255;not null"`
	CongestionZone   bool      `gorm:"default:false"`
	Enabled          bool      `gorm:"default:true"`
	MinPay           int64     `gorm:"not null;default:0"`
	MinHourlyPay     int64     `gorm:"not null;default:0"`
	ArrivalBuffer    int       `gorm:"not null;default:60"`
	MinShiftDuration float64   `gorm:"not null;default:0"`
	MaxShiftDuration float64   `gorm:"not null;default:24"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// DaySchedule is one weekday's search window.
type DaySchedule struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"` // "HH:MM"
	EndTime   string `json:"endTime"`
}

// WeekSchedule maps lowercase weekday names to their windows.
// Stored as a JSON text column.
type WeekSchedule map[string]DaySchedule

func (s WeekSchedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *WeekSchedule) Scan(v any) error {
	if v == nil {
		*s = nil
		return nil
	}
	switch data := v.(type) {
	case []byte:
		return json.Unmarshal(data, s)
	case string:
		return json.Unmarshal([]byte(data), s)
	default:
		return fmt.Errorf("unsupported schedule column type %T", v)
	}
}

// DefaultWeekSchedule allows searching around the clock every day.
func DefaultWeekSchedule() WeekSchedule {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	s := make(WeekSchedule, len(days))
	for _, d := range days {
		s[d] = DaySchedule{Enabled: true, StartTime: "00:00", EndTime: "23:59"}
	}
	return s
}

// SearchSettings holds a user's global search configuration (one row per user).
type SearchSettings struct {
	ID                uint64       `gorm:"primaryKey;autoIncrement"`
	UserID            uint64       `gorm:"uniqueIndex;not null"`
	Strategy          string       `gorm:"size:16;not null;default:steady"`
	AutoSolveCaptcha  bool         `gorm:"default:true"`
	StopAfterAccepted bool         `gorm:"default:false"`
	Timezone          string       `gorm:"size:64;default:Etc/Greenwich"`
	Schedule          WeekSchedule `gorm:"type:text"`
	CreatedAt         time.Time    `gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime"`
}

// Offer is a decided candidate opportunity. Location name/address/code are
// denormalized so history survives preference deletion. Rows are written
// once, with the accepted flag already decided, and never updated.
//
// Index:
//   - idx_offer_user_accepted_decided(user_id, accepted, decided_at)
//     Optimizes the "accepted this week" rollup.
type Offer struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	UserID          uint64    `gorm:"not null;index:idx_offer_user_accepted_decided,priority:1"`
	LocationCode    string    `gorm:"size:16;not null"`
	LocationName    string    `gorm:"size:128;not null"`
	LocationAddress string    `gorm:"size:255;not null"`
	CongestionZone  bool      `gorm:"default:false"`
	Pay             int64     `gorm:"not null"`
	StartTime       time.Time `gorm:"not null"`
	EndTime         time.Time `gorm:"not null"`
	DurationHours   float64   `gorm:"not null"`
	HourlyRate      int64     `gorm:"not null"`
	Accepted        bool      `gorm:"not null;default:false;index:idx_offer_user_accepted_decided,priority:2"`
	DecidedAt       time.Time `gorm:"autoCreateTime;index:idx_offer_user_accepted_decided,priority:3"`
}

// SearchSession is one start/stop cycle of the search process.
// At most one running session may exist per user; the session repository
// enforces that transactionally.
type SearchSession struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement"`
	UserID         uint64     `gorm:"not null;index:idx_session_user_status,priority:1"`
	StartTime      time.Time  `gorm:"autoCreateTime"`
	EndTime        *time.Time
	Status         string     `gorm:"size:16;not null;default:running;index:idx_session_user_status,priority:2"`
	OffersFound    int64      `gorm:"not null;default:0"`
	OffersAccepted int64      `gorm:"not null;default:0"`
}

// ActivityLog is the append-only audit trail. Never updated or deleted.
type ActivityLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Action    string    `gorm:"size:64;not null"`
	Details   string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}
