package hours

import (
	"testing"
	"time"
)

func TestPriceWindow(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		expectedStart string
		expectedEnd   string
	}{
		{
			name:          "afternoon at UTC+1",
			now:           time.Date(2024, time.March, 10, 15, 0, 0, 0, time.FixedZone("CET", 3600)),
			expectedStart: "2024-03-09T23:00:00Z",
			expectedEnd:   "2024-03-11T23:00:00Z",
		},
		{
			name:          "midnight in UTC",
			now:           time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			expectedStart: "2025-01-01T00:00:00Z",
			expectedEnd:   "2025-01-03T00:00:00Z",
		},
		{
			name:          "negative offset crosses into next UTC day",
			now:           time.Date(2025, time.June, 15, 22, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			expectedStart: "2025-06-15T05:00:00Z",
			expectedEnd:   "2025-06-17T05:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PriceWindow(tt.now)
			if start != tt.expectedStart {
				t.Errorf("PriceWindow() start expected %q, got %q", tt.expectedStart, start)
			}
			if end != tt.expectedEnd {
				t.Errorf("PriceWindow() end expected %q, got %q", tt.expectedEnd, end)
			}
		})
	}
}

func TestUsageWindow(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.FixedZone("CET", 3600))
	start, end := UsageWindow(now)
	if start != "2024-03-09T23:00:00Z" {
		t.Errorf("UsageWindow() start expected %q, got %q", "2024-03-09T23:00:00Z", start)
	}
	if end != "2024-03-10T23:00:00Z" {
		t.Errorf("UsageWindow() end expected %q, got %q", "2024-03-10T23:00:00Z", end)
	}
}

func TestFormatLocal(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	utc := time.Date(2024, time.March, 10, 13, 15, 30, 0, time.UTC)
	expected := "2024-03-10T14:15:30"
	if s := FormatLocal(utc, loc); s != expected {
		t.Errorf("FormatLocal() expected %q, got %q", expected, s)
	}
}

func TestLocalDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	// 23:30 UTC is already the next day locally.
	utc := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)
	if d := LocalDate(utc, loc); d != "2024-03-11" {
		t.Errorf("LocalDate() expected %q, got %q", "2024-03-11", d)
	}
}

func TestNextHourlyTick(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "mid hour",
			now:      time.Date(2025, time.January, 1, 10, 30, 45, 0, time.UTC),
			expected: time.Date(2025, time.January, 1, 11, 1, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the tick still advances an hour",
			now:      time.Date(2025, time.January, 1, 10, 1, 0, 0, time.UTC),
			expected: time.Date(2025, time.January, 1, 11, 1, 0, 0, time.UTC),
		},
		{
			name:     "crosses midnight",
			now:      time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC),
			expected: time.Date(2025, time.January, 2, 0, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextHourlyTick(tt.now); !got.Equal(tt.expected) {
				t.Errorf("NextHourlyTick() expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNextMidnightTick(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 30, 0, time.UTC)
	expected := time.Date(2025, time.January, 2, 0, 1, 0, 0, time.UTC)
	if got := NextMidnightTick(now); !got.Equal(expected) {
		t.Errorf("NextMidnightTick() expected %v, got %v", expected, got)
	}
}
