package repository

import (
	"context"
	"testing"
	"time"

	"skiclub/models"
)

func TestMessageRepository_ListVisibleForParent(t *testing.T) {
	d := openTestDB(t, "msgrepo_visible")
	f := newFixture(t, d)
	repo := NewMessageRepository(d)
	ctx := context.Background()
	cats := NewCategoryRepository(d)
	u14, err := cats.Create(ctx, "U14", "")
	if err != nil {
		t.Fatalf("create u14: %v", err)
	}

	base := time.Now().UTC()
	post := func(title string, cat, ath *int64, offset time.Duration) {
		t.Helper()
		_, err := repo.Create(ctx, &models.Message{
			SenderID: &f.coach.ID, CategoryID: cat, AthleteID: ath,
			Title: title, Content: "...", CreatedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	post("club", nil, nil, 0)
	post("u10", &f.u10.ID, nil, time.Second)
	post("u14", &u14.ID, nil, 2*time.Second)
	post("noah", nil, &f.noah.ID, 3*time.Second)
	post("juno", &f.u10.ID, &f.juno.ID, 4*time.Second)

	// Parent1 has Noah only, in U10.
	got, err := repo.ListVisible(ctx, []int64{f.noah.ID}, []int64{f.u10.ID}, 50)
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	want := []string{"noah", "u10", "club"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got)
	}
	for i, m := range got {
		if m.Title != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], m.Title)
		}
	}

	// A parent with no children still sees club-wide messages.
	got, err = repo.ListVisible(ctx, nil, nil, 50)
	if err != nil {
		t.Fatalf("list visible without children: %v", err)
	}
	if len(got) != 1 || !got[0].IsBroadcast() {
		t.Fatalf("expected only the broadcast, got %+v", got)
	}

	sent, err := repo.ListBySender(ctx, f.coach.ID, 2)
	if err != nil {
		t.Fatalf("list by sender: %v", err)
	}
	if len(sent) != 2 || sent[0].Title != "juno" {
		t.Fatalf("expected newest two sent messages, got %+v", sent)
	}
}
