package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo accounts,
// location preferences, settings and offer history.
//
// Behavior:
//  1. Clears all domain tables.
//  2. Creates 3 demo users with hashed passwords and default settings.
//  3. Gives each user a handful of depot locations and a week of offers.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{"activity_logs", "offers", "search_sessions", "search_settings", "location_preferences", "users"}
	for _, tbl := range tables {
		if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, tbl := range tables {
			db.Exec("ALTER TABLE " + tbl + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, tbl := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", tbl)
		}
	}

	log.Println("Cleared existing data")

	depots := []struct {
		Code    string
		Name    string
		Address string
		Zone    bool
	}{
		{"DXN1", "Wembley Depot", "Fifth Way, Wembley HA9 0LH", true},
		{"DRH1", "Croydon Depot", "6 Commerce Way, Croydon CR0 4YL", false},
		{"DHA1", "Weybridge Depot", "Brooklands Drive, Weybridge KT13 0SL", false},
		{"DHA2", "Bolton Depot", "Lostock Lane, Bolton BL6 4BL", false},
	}

	for i := 1; i <= 3; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := User{
			Username:     fmt.Sprintf("driver%d", i),
			PasswordHash: string(hash),
		}
		if i == 1 {
			user.ExternalAccountID = "amzn1.account.demo"
			user.NotificationNumber = "+447700900123"
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		settings := SearchSettings{
			UserID:           user.ID,
			Strategy:         StrategySteady,
			AutoSolveCaptcha: true,
			Timezone:         "Europe/London",
			Schedule:         DefaultWeekSchedule(),
		}
		if err := db.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}

		for _, d := range depots {
			pref := LocationPreference{
				UserID:           user.ID,
				Code:             d.Code,
				Name:             d.Name,
				Address:          d.Address,
				CongestionZone:   d.Zone,
				Enabled:          true,
				MinPay:           int64(4000 + r.Intn(3)*500),
				MinHourlyPay:     1200,
				ArrivalBuffer:    60,
				MinShiftDuration: 2,
				MaxShiftDuration: 5,
			}
			if err := db.Create(&pref).Error; err != nil {
				return fmt.Errorf("failed to seed location: %w", err)
			}
		}

		// A week of decided offers, roughly one in three accepted.
		for j := 0; j < 12; j++ {
			d := depots[r.Intn(len(depots))]
			start := time.Now().Add(-time.Duration(r.Intn(7*24)) * time.Hour)
			hours := float64(2 + r.Intn(4))
			rate := int64(1300 + r.Intn(5)*50)
			offer := Offer{
				UserID:          user.ID,
				LocationCode:    d.Code,
				LocationName:    d.Name,
				LocationAddress: d.Address,
				CongestionZone:  d.Zone,
				Pay:             int64(hours * float64(rate)),
				StartTime:       start,
				EndTime:         start.Add(time.Duration(hours * float64(time.Hour))),
				DurationHours:   hours,
				HourlyRate:      rate,
				Accepted:        j%3 == 0,
			}
			if err := db.Create(&offer).Error; err != nil {
				return fmt.Errorf("failed to seed offer: %w", err)
			}
		}

		logEntry := ActivityLog{
			UserID:  user.ID,
			Action:  ActionAccountCreated,
			Details: "Account created successfully",
		}
		if err := db.Create(&logEntry).Error; err != nil {
			return fmt.Errorf("failed to seed activity log: %w", err)
		}
	}

	log.Println("Seeded demo users, locations and offers.")
	return nil
}
