package matcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shifthunter/backend/internal/matcher"
)

var now = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

// basePrefs is the reference preference set: one enabled depot with
// minPay 5000, minHourly 1200, 60 min arrival buffer, 2-5h shifts.
func basePrefs() matcher.Preferences {
	return matcher.Preferences{
		Locations: []matcher.LocationRule{
			{
				Code:             "DXN1",
				Enabled:          true,
				MinPay:           5000,
				MinHourlyPay:     1200,
				ArrivalBuffer:    60,
				MinShiftDuration: 2,
				MaxShiftDuration: 5,
			},
		},
	}
}

// baseCandidate passes every check against basePrefs.
func baseCandidate() matcher.Candidate {
	return matcher.Candidate{
		LocationCode:  "DXN1",
		Pay:           5500,
		HourlyRate:    1300,
		DurationHours: 3.5,
		StartTime:     now.Add(90 * time.Minute),
		EndTime:       now.Add(90*time.Minute + 3*time.Hour + 30*time.Minute),
	}
}

func TestEvaluate_Matched(t *testing.T) {
	dec := matcher.Evaluate(basePrefs(), baseCandidate(), now)

	assert.True(t, dec.Accept)
	assert.Equal(t, matcher.ReasonMatched, dec.Reason)
}

func TestEvaluate_UnknownLocation(t *testing.T) {
	c := baseCandidate()
	c.LocationCode = "DIG1"

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonLocationNotConfigured, dec.Reason)
}

func TestEvaluate_DisabledLocation(t *testing.T) {
	prefs := basePrefs()
	prefs.Locations[0].Enabled = false

	// all other fields would fail too; the location check must win
	c := baseCandidate()
	c.Pay = 0

	dec := matcher.Evaluate(prefs, c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonLocationNotConfigured, dec.Reason)
}

func TestEvaluate_PayTooLow(t *testing.T) {
	c := baseCandidate()
	c.Pay = 4999

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonPayTooLow, dec.Reason)
}

func TestEvaluate_HourlyRateTooLow(t *testing.T) {
	c := baseCandidate()
	c.HourlyRate = 1199

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonHourlyRateTooLow, dec.Reason)
}

func TestEvaluate_DurationBounds(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		accept   bool
	}{
		{"below min", 1.5, false},
		{"at min inclusive", 2, true},
		{"at max inclusive", 5, true},
		{"above max", 5.5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseCandidate()
			c.DurationHours = tc.duration

			dec := matcher.Evaluate(basePrefs(), c, now)

			assert.Equal(t, tc.accept, dec.Accept)
			if !tc.accept {
				assert.Equal(t, matcher.ReasonDurationOutOfRange, dec.Reason)
			}
		})
	}
}

func TestEvaluate_InsufficientLeadTime(t *testing.T) {
	c := baseCandidate()
	c.StartTime = now.Add(30 * time.Minute) // below the 60-minute buffer

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonInsufficientLeadTime, dec.Reason)
}

func TestEvaluate_LeadTimeIsFractional(t *testing.T) {
	// 59 minutes 30 seconds of lead: must fail a 60-minute buffer
	// because the comparison never truncates to whole minutes.
	c := baseCandidate()
	c.StartTime = now.Add(59*time.Minute + 30*time.Second)

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonInsufficientLeadTime, dec.Reason)

	// exactly at the buffer boundary is accepted
	c.StartTime = now.Add(60 * time.Minute)
	dec = matcher.Evaluate(basePrefs(), c, now)
	assert.True(t, dec.Accept)
}

func TestEvaluate_StartInThePast(t *testing.T) {
	c := baseCandidate()
	c.StartTime = now.Add(-10 * time.Minute)

	dec := matcher.Evaluate(basePrefs(), c, now)

	assert.False(t, dec.Accept)
	assert.Equal(t, matcher.ReasonInsufficientLeadTime, dec.Reason)
}

// TestEvaluate_CheckOrder pins the rejection priority: a candidate
// violating several thresholds reports the first failing check only.
func TestEvaluate_CheckOrder(t *testing.T) {
	c := baseCandidate()
	c.Pay = 100          // fails check 2
	c.HourlyRate = 100   // would fail check 3
	c.DurationHours = 10 // would fail check 4

	dec := matcher.Evaluate(basePrefs(), c, now)
	assert.Equal(t, matcher.ReasonPayTooLow, dec.Reason)

	c.Pay = 5500 // check 2 passes, check 3 must win now
	dec = matcher.Evaluate(basePrefs(), c, now)
	assert.Equal(t, matcher.ReasonHourlyRateTooLow, dec.Reason)

	c.HourlyRate = 1300 // check 4 wins
	dec = matcher.Evaluate(basePrefs(), c, now)
	assert.Equal(t, matcher.ReasonDurationOutOfRange, dec.Reason)
}

func TestEvaluate_Idempotent(t *testing.T) {
	first := matcher.Evaluate(basePrefs(), baseCandidate(), now)
	second := matcher.Evaluate(basePrefs(), baseCandidate(), now)

	assert.Equal(t, first, second)
}
