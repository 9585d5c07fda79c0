// This file implements the per-frequency strategies that decide whether a
// budget alert is due again.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker decides whether an alert should be sent again given the
// time the previous one went out. A zero lastAlert means none was sent.
type DuenessChecker interface {
	IsDue(lastAlert, now, startDate time.Time) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastAlert, now, _ time.Time) bool {
	if lastAlert.IsZero() {
		return true
	}
	return lastAlert.Format(time.DateOnly) != now.Format(time.DateOnly)
}

// IntervalChecker is due once Every has elapsed since the last alert.
type IntervalChecker struct {
	Every time.Duration
}

func (c IntervalChecker) IsDue(lastAlert, now, _ time.Time) bool {
	if lastAlert.IsZero() {
		return true
	}
	return now.Sub(lastAlert) >= c.Every
}

// MonthlyChecker is due once per month, on or after the day of month the
// budget started.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastAlert, now, startDate time.Time) bool {
	if lastAlert.IsZero() {
		return true
	}
	if lastAlert.Year() == now.Year() && lastAlert.Month() == now.Month() {
		return false
	}

	// Clamp to the last day of short months.
	targetDay := startDate.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}

var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.FrequencyDaily:    DailyChecker{},
	core.FrequencyWeekly:   IntervalChecker{Every: 7 * 24 * time.Hour},
	core.FrequencyBiWeekly: IntervalChecker{Every: 14 * 24 * time.Hour},
	core.FrequencyMonthly:  MonthlyChecker{},
}

// GetDuenessChecker returns the checker for an alert frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown alert frequency: %q", frequency)
	}
	return checker, nil
}
