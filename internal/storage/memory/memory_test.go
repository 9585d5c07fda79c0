package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateBudget(ctx, core.Budget{Name: "a"}); err != nil {
		t.Fatal(err)
	}

	list, _ := s.ListBudgets(ctx)
	list[0].Name = "mutated"

	again, _ := s.ListBudgets(ctx)
	if again[0].Name != "a" {
		t.Errorf("store modified through list result: %q", again[0].Name)
	}
}

func TestStore_CreatedAtFromClock(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	u, err := s.CreateUser(context.Background(), core.User{Email: "x@y.z"})
	if err != nil {
		t.Fatal(err)
	}
	if !u.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, fixed)
	}
}
