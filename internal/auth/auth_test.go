package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correcthorse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correcthorse" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if !h.Matches(hash, "correcthorse") {
		t.Error("Matches should accept the right password")
	}
	if h.Matches(hash, "batterystaple") {
		t.Error("Matches should reject a wrong password")
	}

	other, _ := h.Hash("correcthorse")
	if other == hash {
		t.Error("hashes should be salted")
	}

	h.Burn("anything")

	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("long password: err = %v, want ErrPasswordTooLong", err)
	}
}

func TestNewHasher_CostOutOfRange(t *testing.T) {
	h := NewHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want default", h.cost)
	}
}

func newTestIssuer(now time.Time) *Issuer {
	i := NewIssuer("test-secret-0123456789", time.Hour, 10*time.Minute)
	i.now = func() time.Time { return now }
	return i
}

func TestIssuer_SessionRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(now)
	user := core.User{ID: 42, Email: "ada@example.com"}

	token, expires, err := i.IssueSession(user)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Errorf("expires = %v", expires)
	}

	claims, err := i.Verify(token, PurposeSession)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Email != "ada@example.com" || claims.ID == "" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestIssuer_VerifyRejects(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(now)
	user := core.User{ID: 7, Email: "x@y.z"}

	session, _, _ := i.IssueSession(user)
	reset, _, _ := i.IssueReset(user)

	other := NewIssuer("another-secret-0123456789", time.Hour, time.Hour)
	other.now = i.now
	foreign, _, _ := other.IssueSession(user)

	expired := newTestIssuer(now.Add(-2 * time.Hour))
	stale, _, _ := expired.IssueSession(user)

	tests := []struct {
		name    string
		token   string
		purpose string
	}{
		{"wrong purpose", reset, PurposeSession},
		{"session used for reset", session, PurposeReset},
		{"wrong secret", foreign, PurposeSession},
		{"expired", stale, PurposeSession},
		{"garbage", "not-a-token", PurposeSession},
		{"empty", "", PurposeSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := i.Verify(tt.token, tt.purpose)
			if !IsInvalidToken(err) {
				t.Fatalf("err = %v, want invalid token", err)
			}
			if !errors.Is(err, core.ErrUnauthorized) {
				t.Errorf("err should classify as unauthorized: %v", err)
			}
			if core.Message(err) != "Invalid or expired token" {
				t.Errorf("message = %q", core.Message(err))
			}
		})
	}
}

func TestClaimsContext(t *testing.T) {
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Error("empty context should carry no claims")
	}
	c := &Claims{Purpose: PurposeSession}
	got, ok := ClaimsFromContext(WithClaims(context.Background(), c))
	if !ok || got != c {
		t.Errorf("claims = %v, %v", got, ok)
	}
}
