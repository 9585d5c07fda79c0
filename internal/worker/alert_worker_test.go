package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/mail"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, mail.Message) error { return errors.New("smtp down") }

func sampleMessage(ts time.Time) *amqp.BudgetAlertMessage {
	return &amqp.BudgetAlertMessage{
		Alert: core.BudgetAlert{
			BudgetID:        4,
			Name:            "Dining",
			Category:        "Leisure",
			Priority:        core.PriorityHigh,
			Threshold:       80,
			Frequency:       core.FrequencyWeekly,
			Allocated:       decimal.NewFromInt(200),
			Spent:           decimal.NewFromInt(250),
			Progress:        decimal.NewFromInt(125),
			DisplayProgress: decimal.NewFromInt(100),
		},
		Timestamp: ts,
	}
}

func TestAlertWorker_HandleAlertMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("mails every recipient", func(t *testing.T) {
		mailer := mail.NewLogMailer(nil)
		w := NewAlertWorker(mailer, "me@example.com, partner@example.com,")
		w.now = func() time.Time { return now }

		if err := w.HandleAlertMessage(context.Background(), sampleMessage(now)); err != nil {
			t.Fatalf("HandleAlertMessage() error = %v", err)
		}
		sent := mailer.Sent()
		if len(sent) != 1 {
			t.Fatalf("sent %d messages", len(sent))
		}
		if len(sent[0].To) != 2 || sent[0].To[1] != "partner@example.com" {
			t.Errorf("To = %v", sent[0].To)
		}
		if sent[0].Subject != `[HIGH] Budget "Dining" is at 100%` {
			t.Errorf("Subject = %q", sent[0].Subject)
		}
		for _, want := range []string{"Spent:     250.00", "Progress:  125.00%", "Overspent: 50.00", "reminded weekly"} {
			if !strings.Contains(sent[0].Text, want) {
				t.Errorf("text missing %q:\n%s", want, sent[0].Text)
			}
		}
	})

	t.Run("stale alerts are dropped", func(t *testing.T) {
		mailer := mail.NewLogMailer(nil)
		w := NewAlertWorker(mailer, "me@example.com")
		w.now = func() time.Time { return now }

		if err := w.HandleAlertMessage(context.Background(), sampleMessage(now.Add(-72*time.Hour))); err != nil {
			t.Fatalf("HandleAlertMessage() error = %v", err)
		}
		if len(mailer.Sent()) != 0 {
			t.Error("stale alert was mailed")
		}
	})

	t.Run("no recipients", func(t *testing.T) {
		mailer := mail.NewLogMailer(nil)
		w := NewAlertWorker(mailer, " ")
		if err := w.HandleAlertMessage(context.Background(), sampleMessage(time.Now())); err != nil {
			t.Fatalf("HandleAlertMessage() error = %v", err)
		}
		if len(mailer.Sent()) != 0 {
			t.Error("mail sent without recipients")
		}
	})

	t.Run("mailer failure requeues", func(t *testing.T) {
		w := NewAlertWorker(failingMailer{}, "me@example.com")
		if err := w.HandleAlertMessage(context.Background(), sampleMessage(time.Now())); err == nil {
			t.Error("HandleAlertMessage() should return the mailer error")
		}
	})

	t.Run("redelivered alert is mailed once", func(t *testing.T) {
		mailer := mail.NewLogMailer(nil)
		w := NewAlertWorker(mailer, "me@example.com")
		w.now = func() time.Time { return now }

		msg := sampleMessage(now)
		for i := 0; i < 2; i++ {
			if err := w.HandleAlertMessage(context.Background(), msg); err != nil {
				t.Fatalf("HandleAlertMessage() error = %v", err)
			}
		}
		if got := len(mailer.Sent()); got != 1 {
			t.Errorf("sent %d messages, want 1", got)
		}

		if err := w.HandleAlertMessage(context.Background(), sampleMessage(now.Add(time.Hour))); err != nil {
			t.Fatalf("HandleAlertMessage() error = %v", err)
		}
		if got := len(mailer.Sent()); got != 2 {
			t.Errorf("a later reminder should be mailed, sent %d", got)
		}
	})
}
