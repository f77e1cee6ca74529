package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"skiclub/models"
)

func TestDeviceTokenRepository_RegisterListTouch(t *testing.T) {
	d := openTestDB(t, "tokenrepo")
	f := newFixture(t, d)
	repo := NewDeviceTokenRepository(d)
	ctx := context.Background()
	t0 := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

	a, err := repo.Register(ctx, f.parent1.ID, "", " tok-a ", t0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.Token != "tok-a" || a.Platform != models.PlatformWeb {
		t.Fatalf("unexpected token record: %+v", a)
	}
	if _, err := repo.Register(ctx, f.parent2.ID, models.PlatformAndroid, "tok-b", t0); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if _, err := repo.Register(ctx, f.parent1.ID, "", "   ", t0); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("blank token: expected ErrValidation, got %v", err)
	}

	// Re-registering an existing token moves it to the new owner.
	moved, err := repo.Register(ctx, f.parent2.ID, models.PlatformIOS, "tok-a", t0)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if moved.ID != a.ID || moved.UserID == nil || *moved.UserID != f.parent2.ID {
		t.Fatalf("token not moved: %+v", moved)
	}

	list, err := repo.ListByUsers(ctx, []int64{f.parent1.ID, f.parent2.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(list))
	}
	if got, _ := repo.ListByUsers(ctx, []int64{f.parent1.ID}); len(got) != 0 {
		t.Fatalf("parent1 should own no tokens, got %+v", got)
	}
	if got, err := repo.ListByUsers(ctx, nil); err != nil || got != nil {
		t.Fatalf("empty id list: %+v, %v", got, err)
	}

	t1 := t0.Add(time.Hour)
	if err := repo.Touch(ctx, []int64{a.ID}, t1); err != nil {
		t.Fatalf("touch: %v", err)
	}
	list, _ = repo.ListByUsers(ctx, []int64{f.parent2.ID})
	for _, tok := range list {
		if tok.ID == a.ID && !tok.LastUsedAt.Equal(t1) {
			t.Fatalf("last_used_at not refreshed: %v", tok.LastUsedAt)
		}
	}

	if err := repo.Delete(ctx, f.parent1.ID, "tok-b"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("deleting someone else's token: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, f.parent2.ID, "tok-b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
