package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AlertPublisher delivers budget alerts, typically to a message broker.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, alert core.BudgetAlert) error
}

// AlertProcessor scans budgets and publishes an alert for every budget past
// its notification threshold, at most once per the budget's notification
// frequency.
type AlertProcessor struct {
	budgets   storage.BudgetRepository
	publisher AlertPublisher
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[int64]time.Time
}

func NewAlertProcessor(budgets storage.BudgetRepository, publisher AlertPublisher) *AlertProcessor {
	return &AlertProcessor{
		budgets:   budgets,
		publisher: publisher,
		now:       time.Now,
		lastSent:  make(map[int64]time.Time),
	}
}

// ProcessAlerts publishes the alerts that are due at now and returns how
// many were sent. A failed publish is retried on the next run.
func (p *AlertProcessor) ProcessAlerts(ctx context.Context, now time.Time) (int, error) {
	if p.budgets == nil || p.publisher == nil {
		return 0, fmt.Errorf("alert processor not properly initialized")
	}

	budgets, err := p.budgets.ListBudgets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list budgets: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	active := make(map[int64]bool, len(budgets))
	sent := 0
	for _, b := range budgets {
		if !p.inEffect(b, now) || !b.OverThreshold() {
			continue
		}
		active[b.ID] = true

		checker, err := GetDuenessChecker(b.Notifications.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if alert is due", "budget_id", b.ID, "error", err)
			continue
		}
		if !checker.IsDue(p.lastSent[b.ID], now, b.StartDate) {
			continue
		}

		alert := core.AlertFor(b)
		if err := p.publisher.PublishBudgetAlert(ctx, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert", "budget_id", b.ID, "error", err)
			continue
		}
		p.lastSent[b.ID] = now
		sent++
	}

	// Forget budgets that dropped back under their threshold or were
	// deleted so that crossing it again alerts immediately.
	for id := range p.lastSent {
		if !active[id] {
			delete(p.lastSent, id)
		}
	}

	slog.InfoContext(ctx, "Budget alert scan complete",
		"sent", sent,
		"over_threshold", len(active),
		"total_checked", len(budgets))
	return sent, nil
}

// inEffect reports whether b's date range covers now. Budgets that have
// not started or have ended do not alert.
func (p *AlertProcessor) inEffect(b core.Budget, now time.Time) bool {
	if !b.StartDate.IsZero() && now.Before(b.StartDate) {
		return false
	}
	if b.EndDate != nil && now.After(b.EndDate.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Run schedules ProcessAlerts with a standard cron spec and blocks until
// ctx is cancelled, waiting for a running scan to finish.
func (p *AlertProcessor) Run(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := p.ProcessAlerts(ctx, p.now()); err != nil {
			slog.ErrorContext(ctx, "Budget alert scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule alert scan %q: %w", spec, err)
	}

	c.Start()
	slog.InfoContext(ctx, "Budget alert scheduler started", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Budget alert scheduler stopped")
	return nil
}
