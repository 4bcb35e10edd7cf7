// Package matcher decides whether a candidate shift offer should be
// accepted against a user's configured location preferences.
//
// Evaluate is pure: the decision instant is an explicit input and the
// function performs no I/O, so identical inputs always yield identical
// decisions. Rejection is a normal return value, not an error.
package matcher

import "time"

// Reason explains a decision. Exactly one reason is reported per
// evaluation: the first failing check in the fixed order below, or
// ReasonMatched when every check passes.
type Reason string

const (
	ReasonMatched               Reason = "MATCHED"
	ReasonLocationNotConfigured Reason = "LOCATION_NOT_CONFIGURED"
	ReasonPayTooLow             Reason = "PAY_TOO_LOW"
	ReasonHourlyRateTooLow      Reason = "HOURLY_RATE_TOO_LOW"
	ReasonDurationOutOfRange    Reason = "DURATION_OUT_OF_RANGE"
	ReasonInsufficientLeadTime  Reason = "INSUFFICIENT_LEAD_TIME"
)

// Decision is the outcome of evaluating one candidate.
type Decision struct {
	Accept bool
	Reason Reason
}

// LocationRule is one location's acceptance thresholds.
// Monetary fields are minor currency units; durations are hours
// (fractional allowed); ArrivalBuffer is minutes of required lead time.
type LocationRule struct {
	Code             string
	Enabled          bool
	MinPay           int64
	MinHourlyPay     int64
	ArrivalBuffer    int
	MinShiftDuration float64
	MaxShiftDuration float64
}

// Preferences is the aggregate passed to Evaluate. Only enabled
// location rules participate in matching; the global settings that
// ride along in storage (strategy, schedule, captcha flags) affect
// scheduling, never matching.
type Preferences struct {
	Locations []LocationRule
}

// Candidate is a transient, externally supplied opportunity. Location
// name/address ride along for denormalized offer history and are
// ignored by matching.
type Candidate struct {
	LocationCode    string
	LocationName    string
	LocationAddress string
	CongestionZone  bool
	Pay             int64
	StartTime       time.Time
	EndTime         time.Time
	DurationHours   float64
	HourlyRate      int64
}

// Evaluate decides whether a candidate should be accepted at instant now.
//
// Checks run in a fixed order and short-circuit on the first failure,
// so a candidate failing several checks reports only the highest
// priority reason:
//  1. location configured and enabled
//  2. total pay >= MinPay
//  3. hourly rate >= MinHourlyPay
//  4. MinShiftDuration <= duration <= MaxShiftDuration (both inclusive)
//  5. lead time until start >= ArrivalBuffer minutes
//
// The lead time comparison uses the full fractional minute difference;
// offers whose start has already passed have negative lead time and
// are rejected by check 5.
func Evaluate(prefs Preferences, c Candidate, now time.Time) Decision {
	rule, ok := findRule(prefs.Locations, c.LocationCode)
	if !ok {
		return reject(ReasonLocationNotConfigured)
	}

	if c.Pay < rule.MinPay {
		return reject(ReasonPayTooLow)
	}

	if c.HourlyRate < rule.MinHourlyPay {
		return reject(ReasonHourlyRateTooLow)
	}

	if c.DurationHours < rule.MinShiftDuration || c.DurationHours > rule.MaxShiftDuration {
		return reject(ReasonDurationOutOfRange)
	}

	minutesUntilStart := c.StartTime.Sub(now).Minutes()
	if minutesUntilStart < float64(rule.ArrivalBuffer) {
		return reject(ReasonInsufficientLeadTime)
	}

	return Decision{Accept: true, Reason: ReasonMatched}
}

func findRule(rules []LocationRule, code string) (LocationRule, bool) {
	for _, r := range rules {
		if r.Code == code && r.Enabled {
			return r, true
		}
	}
	return LocationRule{}, false
}

func reject(r Reason) Decision {
	return Decision{Accept: false, Reason: r}
}
