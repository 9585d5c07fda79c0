package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
)

func TestNew(t *testing.T) {
	if _, ok := New(SMTPConfig{}, nil).(*LogMailer); !ok {
		t.Error("expected LogMailer without SMTP host")
	}
	if _, ok := New(SMTPConfig{Host: "smtp.example.com", Port: 587}, nil).(*SMTPMailer); !ok {
		t.Error("expected SMTPMailer with SMTP host")
	}
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(nil)
	msg := Message{To: []string{"a@b.co"}, Subject: "hi", Text: "body"}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := m.Sent()
	if len(sent) != 1 || sent[0].Subject != "hi" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	var (
		gotAddr  string
		gotEmail *email.Email
		gotAuth  smtp.Auth
	)
	m := NewSMTPMailer(SMTPConfig{
		Host: "smtp.example.com", Port: 2525,
		Username: "user", Password: "pass", From: "alerts@example.com",
	}, nil)
	m.send = func(e *email.Email, addr string, a smtp.Auth) error {
		gotEmail, gotAddr, gotAuth = e, addr, a
		return nil
	}

	err := m.Send(context.Background(), Message{To: []string{"me@example.com"}, Subject: "Budget alert", Text: "Food is at 90%"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotAuth == nil {
		t.Error("expected PLAIN auth with credentials")
	}
	if gotEmail.From != "alerts@example.com" || gotEmail.Subject != "Budget alert" {
		t.Errorf("email = %+v", gotEmail)
	}
	if !strings.Contains(string(gotEmail.Text), "90%") {
		t.Errorf("text = %q", gotEmail.Text)
	}
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "a@b.co"}, nil)
	boom := errors.New("connection refused")
	m.send = func(*email.Email, string, smtp.Auth) error { return boom }

	if err := m.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Error("expected error without recipients")
	}
	if err := m.Send(context.Background(), Message{To: []string{"c@d.co"}, Subject: "x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped transport error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, Message{To: []string{"c@d.co"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
