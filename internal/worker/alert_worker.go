// Package worker consumes background messages published by the API server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/mail"
)

// staleAfter drops alerts that sat in the queue for too long; a newer scan
// will have published a fresher one.
const staleAfter = 48 * time.Hour

// maxRemembered bounds the set of alerts already mailed.
const maxRemembered = 1024

// AlertWorker turns budget alert messages into notification emails.
type AlertWorker struct {
	mailer     mail.Mailer
	recipients []string
	now        func() time.Time
	// mailed remembers delivered alerts so a redelivered message is not
	// mailed twice.
	mailed cache.Cache[struct{}]
}

// NewAlertWorker mails alerts to the comma-separated recipients.
func NewAlertWorker(mailer mail.Mailer, recipients string) *AlertWorker {
	var to []string
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	return &AlertWorker{
		mailer:     mailer,
		recipients: to,
		now:        time.Now,
		mailed:     cache.NewLRUCache[struct{}](maxRemembered, staleAfter),
	}
}

// HandleAlertMessage processes a single budget alert message from AMQP. A
// returned error requeues the message.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	a := msg.Alert
	slog.InfoContext(ctx, "Processing budget alert",
		"budget_id", a.BudgetID,
		"progress", a.Progress.String(),
		"threshold", a.Threshold)

	if !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > staleAfter {
		slog.WarnContext(ctx, "Dropping stale budget alert",
			"budget_id", a.BudgetID,
			"timestamp", msg.Timestamp)
		return nil
	}
	if len(w.recipients) == 0 {
		slog.WarnContext(ctx, "No alert recipient configured, skipping email", "budget_id", a.BudgetID)
		return nil
	}

	key := deliveryKey(msg)
	if _, seen := w.mailed.Get(key); seen {
		slog.InfoContext(ctx, "Budget alert already mailed", "budget_id", a.BudgetID)
		return nil
	}

	m := mail.Message{
		To:      w.recipients,
		Subject: fmt.Sprintf("[%s] Budget %q is at %s%%", strings.ToUpper(string(a.Priority)), a.Name, a.DisplayProgress.StringFixed(0)),
		Text:    alertText(msg),
	}
	if err := w.mailer.Send(ctx, m); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	w.mailed.Set(key, struct{}{})

	slog.InfoContext(ctx, "Budget alert mailed", "budget_id", a.BudgetID, "recipients", len(w.recipients))
	return nil
}

// deliveryKey identifies one published alert. Every scan stamps its own
// timestamp, so a later reminder for the same budget gets a new key.
func deliveryKey(msg *amqp.BudgetAlertMessage) string {
	return fmt.Sprintf("%d@%d", msg.Alert.BudgetID, msg.Timestamp.UnixNano())
}

func alertText(msg *amqp.BudgetAlertMessage) string {
	a := msg.Alert
	var b strings.Builder
	fmt.Fprintf(&b, "Budget %q (%s) has passed its %.0f%% alert threshold.\n\n", a.Name, a.Category, a.Threshold)
	fmt.Fprintf(&b, "Allocated: %s\n", a.Allocated.StringFixed(2))
	fmt.Fprintf(&b, "Spent:     %s\n", a.Spent.StringFixed(2))
	fmt.Fprintf(&b, "Progress:  %s%%\n", a.Progress.StringFixed(2))
	if a.Spent.GreaterThan(a.Allocated) {
		fmt.Fprintf(&b, "Overspent: %s\n", a.Spent.Sub(a.Allocated).StringFixed(2))
	}
	fmt.Fprintf(&b, "\nYou will be reminded %s while the budget stays over its threshold.\n", a.Frequency)
	fmt.Fprintf(&b, "Checked at %s.\n", msg.Timestamp.UTC().Format(time.RFC1123))
	return b.String()
}
