package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"skiclub/internal/db"
	"skiclub/models"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// fixture is the small club most tests need: one U10 category with Noah and
// Juno, their two parents, one coach and one upcoming race.
type fixture struct {
	coach, parent1, parent2 *models.User
	u10                     *models.Category
	noah, juno              *models.Athlete
	race                    *models.Event
}

func newFixture(t *testing.T, d *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(d)
	cats := NewCategoryRepository(d)
	aths := NewAthleteRepository(d)
	events := NewEventRepository(d)

	var f fixture
	var err error
	if f.coach, err = users.Create(ctx, "Coach Luca", "luca@example.com", models.RoleCoach); err != nil {
		t.Fatalf("create coach: %v", err)
	}
	if f.parent1, err = users.Create(ctx, "Genitore Noah", "", models.RoleParent); err != nil {
		t.Fatalf("create parent1: %v", err)
	}
	if f.parent2, err = users.Create(ctx, "Genitore Juno", "", models.RoleParent); err != nil {
		t.Fatalf("create parent2: %v", err)
	}
	if f.u10, err = cats.Create(ctx, "U10", "Cuccioli"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := cats.AssignCoach(ctx, f.coach.ID, f.u10.ID); err != nil {
		t.Fatalf("assign coach: %v", err)
	}
	y := 2014
	if f.noah, err = aths.Create(ctx, &models.Athlete{Name: "Noah Favre", BirthYear: &y, CategoryID: &f.u10.ID}); err != nil {
		t.Fatalf("create noah: %v", err)
	}
	if f.juno, err = aths.Create(ctx, &models.Athlete{Name: "Juno Favre", CategoryID: &f.u10.ID}); err != nil {
		t.Fatalf("create juno: %v", err)
	}
	if _, err := aths.LinkParent(ctx, f.parent1.ID, f.noah.ID); err != nil {
		t.Fatalf("link parent1: %v", err)
	}
	if _, err := aths.LinkParent(ctx, f.parent2.ID, f.juno.ID); err != nil {
		t.Fatalf("link parent2: %v", err)
	}
	f.race, err = events.Create(ctx, &models.Event{
		Type: models.EventTypeRace, CategoryID: f.u10.ID, Title: "Gara sociale",
		Date: time.Now().UTC().AddDate(0, 0, 5), AskCarpool: true,
	})
	if err != nil {
		t.Fatalf("create race: %v", err)
	}
	return f
}

func TestCategoryDelete_RestrictedByEventsLeavesRowsIntact(t *testing.T) {
	d := openTestDB(t, "repo_category_restrict")
	f := newFixture(t, d)
	cats := NewCategoryRepository(d)
	ctx := context.Background()

	err := cats.Delete(ctx, f.u10.ID)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if c, err := cats.GetByID(ctx, f.u10.ID); err != nil || c == nil {
		t.Fatalf("category should survive, got %v %v", c, err)
	}
	ok, err := cats.IsCoachOf(ctx, f.coach.ID, f.u10.ID)
	if err != nil || !ok {
		t.Fatalf("coach link should survive the failed delete, got %v %v", ok, err)
	}

	if err := NewEventRepository(d).Delete(ctx, f.race.ID); err != nil {
		t.Fatalf("delete race: %v", err)
	}
	if err := cats.Delete(ctx, f.u10.ID); err != nil {
		t.Fatalf("delete category without events: %v", err)
	}
}
