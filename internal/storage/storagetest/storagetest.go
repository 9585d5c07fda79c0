// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises newStore against the storage contract. newStore must return
// an empty store each time it is called.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("BudgetIDsIncrease", func(t *testing.T) { testBudgetIDsIncrease(t, newStore(t)) })
	t.Run("BudgetRoundTrip", func(t *testing.T) { testBudgetRoundTrip(t, newStore(t)) })
	t.Run("BudgetUpdate", func(t *testing.T) { testBudgetUpdate(t, newStore(t)) })
	t.Run("BudgetDelete", func(t *testing.T) { testBudgetDelete(t, newStore(t)) })
	t.Run("TransactionLifecycle", func(t *testing.T) { testTransactionLifecycle(t, newStore(t)) })
	t.Run("UserUniqueEmail", func(t *testing.T) { testUserUniqueEmail(t, newStore(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, newStore(t)) })
}

func sampleBudget(name string) core.Budget {
	return core.NewBudget(core.BudgetPatch{
		Name:        &name,
		Category:    ptr("Living"),
		SubCategory: ptr("General"),
		Allocated:   ptr(decimal.RequireFromString("250.75")),
		Period:      ptr(core.Monthly),
		StartDate:   ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func ptr[T any](v T) *T { return &v }

func testBudgetIDsIncrease(t *testing.T, s storage.Store) {
	ctx := context.Background()
	var last int64
	for i := 0; i < 3; i++ {
		b, err := s.CreateBudget(ctx, sampleBudget(fmt.Sprintf("b%d", i)))
		if err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
		if b.ID <= last {
			t.Fatalf("id %d not greater than previous %d", b.ID, last)
		}
		last = b.ID
	}

	// Deleting the newest budget must not free its id.
	if err := s.DeleteBudget(ctx, last); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	b, err := s.CreateBudget(ctx, sampleBudget("after delete"))
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if b.ID <= last {
		t.Errorf("id %d reused after delete of %d", b.ID, last)
	}
}

func testBudgetRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	in := sampleBudget("Rent")
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	in.EndDate = &end
	in.Rollover = true
	in.Priority = core.PriorityCritical
	in.Notifications = core.Notifications{Threshold: 95, Frequency: core.FrequencyDaily}

	created, err := s.CreateBudget(ctx, in)
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	got, err := s.GetBudget(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}

	if got.Name != in.Name || got.Period != in.Period || !got.Rollover || got.Priority != core.PriorityCritical {
		t.Errorf("fields differ: %+v", got)
	}
	if !got.Allocated.Equal(in.Allocated) || !got.Spent.Equal(in.Spent) {
		t.Errorf("amounts differ: %s/%s", got.Allocated, got.Spent)
	}
	if !got.StartDate.Equal(in.StartDate) || got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("dates differ: %v %v", got.StartDate, got.EndDate)
	}
	if got.Notifications != in.Notifications {
		t.Errorf("notifications = %+v", got.Notifications)
	}

	list, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func testBudgetUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	created, err := s.CreateBudget(ctx, sampleBudget("Food"))
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	updated, err := s.UpdateBudget(ctx, created.ID, func(b core.Budget) (core.Budget, error) {
		b.ID = 999
		b.Name = "Groceries"
		b.EndDate = nil
		return b, nil
	})
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Groceries" {
		t.Errorf("updated = %+v", updated)
	}
	got, _ := s.GetBudget(ctx, created.ID)
	if got.Name != "Groceries" {
		t.Errorf("stored name = %q", got.Name)
	}

	called := false
	_, err = s.UpdateBudget(ctx, 12345, func(b core.Budget) (core.Budget, error) {
		called = true
		return b, nil
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if called {
		t.Error("update fn called for a missing budget")
	}

	abort := errors.New("abort")
	_, err = s.UpdateBudget(ctx, created.ID, func(b core.Budget) (core.Budget, error) {
		b.Name = "discarded"
		return b, abort
	})
	if !errors.Is(err, abort) {
		t.Errorf("err = %v, want abort", err)
	}
	got, _ = s.GetBudget(ctx, created.ID)
	if got.Name != "Groceries" {
		t.Errorf("aborted update persisted: %q", got.Name)
	}
}

func testBudgetDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b, err := s.CreateBudget(ctx, sampleBudget("Fun"))
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if err := s.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := s.DeleteBudget(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetBudget(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get deleted: err = %v, want ErrNotFound", err)
	}
	list, _ := s.ListBudgets(ctx)
	if len(list) != 0 {
		t.Errorf("list after delete = %+v", list)
	}
}

func testTransactionLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	in := core.NewTransaction(core.TransactionPatch{
		BudgetID:    ptr(int64(42)),
		Amount:      ptr(decimal.RequireFromString("19.99")),
		Type:        ptr(core.Expense),
		Category:    ptr("Living"),
		SubCategory: ptr("Books"),
		Date:        ptr(time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC)),
	})

	first, err := s.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	second, err := s.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	updated, err := s.UpdateTransaction(ctx, first.ID, func(tx core.Transaction) (core.Transaction, error) {
		tx.Description = "paperback"
		tx.Type = core.Income
		return tx, nil
	})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Description != "paperback" || updated.BudgetID != 42 || !updated.Amount.Equal(in.Amount) {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.DeleteTransaction(ctx, first.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("list = %+v", list)
	}
	if !list[0].Date.Equal(in.Date) {
		t.Errorf("date = %v, want %v", list[0].Date, in.Date)
	}
	if err := s.DeleteTransaction(ctx, first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func testUserUniqueEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := core.User{Email: "ada@example.com", PasswordHash: "hash", FirstName: "Ada", LastName: "Lovelace"}

	created, err := s.CreateUser(ctx, u)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Errorf("created = %+v", created)
	}

	if _, err := s.CreateUser(ctx, u); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate: err = %v, want ErrConflict", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("store size = %d after duplicate, want 1", len(users))
	}

	found, err := s.FindUserByEmail(ctx, "ada@example.com")
	if err != nil || found.ID != created.ID || found.PasswordHash != "hash" {
		t.Errorf("FindUserByEmail = %+v, %v", found, err)
	}
	if _, err := s.FindUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown email: err = %v", err)
	}
	if got, err := s.GetUser(ctx, created.ID); err != nil || got.Email != u.Email {
		t.Errorf("GetUser = %+v, %v", got, err)
	}
}

func testConcurrentCreates(t *testing.T, s storage.Store) {
	ctx := context.Background()
	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateBudget(ctx, sampleBudget(fmt.Sprintf("c%d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	list, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(list) != n {
		t.Fatalf("got %d budgets, want %d", len(list), n)
	}
	seen := map[int64]bool{}
	for i, b := range list {
		if seen[b.ID] {
			t.Fatalf("duplicate id %d", b.ID)
		}
		seen[b.ID] = true
		if i > 0 && b.ID <= list[i-1].ID {
			t.Fatalf("list not in creation order at %d", i)
		}
	}
}
