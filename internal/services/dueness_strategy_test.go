package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	startDate := date(2024, 1, 1)

	tests := []struct {
		name      string
		lastAlert time.Time
		want      bool
	}{
		{"never alerted - is due", time.Time{}, true},
		{"alerted today - not due", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), false},
		{"alerted yesterday - is due", time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastAlert, now, startDate); got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntervalChecker_IsDue(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	startDate := date(2024, 1, 1)

	tests := []struct {
		name      string
		frequency core.Frequency
		lastAlert time.Time
		want      bool
	}{
		{"weekly never alerted", core.FrequencyWeekly, time.Time{}, true},
		{"weekly 3 days ago", core.FrequencyWeekly, time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC), false},
		{"weekly exactly 7 days ago", core.FrequencyWeekly, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), true},
		{"bi-weekly 10 days ago", core.FrequencyBiWeekly, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), false},
		{"bi-weekly 14 days ago", core.FrequencyBiWeekly, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if err != nil {
				t.Fatalf("GetDuenessChecker() error = %v", err)
			}
			if got := checker.IsDue(tt.lastAlert, now, startDate); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name      string
		lastAlert time.Time
		now       time.Time
		startDate time.Time
		want      bool
	}{
		{
			name:      "never alerted - is due",
			now:       time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate: date(2024, 1, 10),
			want:      true,
		},
		{
			name:      "alerted this month - not due",
			lastAlert: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate: date(2024, 1, 10),
			want:      false,
		},
		{
			name:      "new month but before start day - not due",
			lastAlert: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
			startDate: date(2024, 1, 15),
			want:      false,
		},
		{
			name:      "new month on start day - is due",
			lastAlert: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
			startDate: date(2024, 1, 15),
			want:      true,
		},
		{
			name:      "start day 31 in February - clamps to 29",
			lastAlert: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			startDate: date(2024, 1, 31),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastAlert, tt.now, tt.startDate); got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		frequency core.Frequency
		wantErr   bool
	}{
		{core.FrequencyDaily, false},
		{core.FrequencyWeekly, false},
		{core.FrequencyBiWeekly, false},
		{core.FrequencyMonthly, false},
		{core.Frequency("hourly"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}
