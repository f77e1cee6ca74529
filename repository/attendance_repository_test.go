package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"skiclub/internal/db"
	"skiclub/models"
)

func TestAttendanceRepository_EnsureIsIdempotent(t *testing.T) {
	d := openTestDB(t, "attrepo_ensure")
	f := newFixture(t, d)
	repo := NewAttendanceRepository(d)
	ctx := context.Background()
	now := time.Now().UTC()

	first, created, err := repo.Ensure(ctx, f.race.ID, f.noah.ID, now)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created || first.Status != models.AttendanceUndecided || first.CarAvailable || first.CarSeats != 0 {
		t.Fatalf("unexpected default record: created=%v %+v", created, first)
	}
	second, created, err := repo.Ensure(ctx, f.race.ID, f.noah.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("second ensure must return the existing row: created=%v id=%d want %d", created, second.ID, first.ID)
	}
	if n, _ := repo.CountByEvent(ctx, f.race.ID); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestAttendanceRepository_SaveOverwritesWholeRecord(t *testing.T) {
	d := openTestDB(t, "attrepo_save")
	f := newFixture(t, d)
	repo := NewAttendanceRepository(d)
	ctx := context.Background()

	if _, _, err := repo.Ensure(ctx, f.race.ID, f.noah.ID, time.Now().UTC()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	by := f.parent1.ID
	saved, err := repo.Save(ctx, &models.EventAttendance{
		EventID: f.race.ID, AthleteID: f.noah.ID, Status: models.AttendancePresent,
		CarAvailable: true, CarSeats: 3, UpdatedBy: &by, UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Status != models.AttendancePresent || !saved.CarAvailable || saved.CarSeats != 3 {
		t.Fatalf("unexpected saved record: %+v", saved)
	}
	if saved.UpdatedBy == nil || *saved.UpdatedBy != by {
		t.Fatalf("updated_by not stamped: %+v", saved.UpdatedBy)
	}

	rows, err := repo.ListByEvent(ctx, f.race.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].AthleteName != "Noah Favre" {
		t.Fatalf("unexpected roster rows: %+v", rows)
	}
}

func TestAttendanceRepository_EnsureConcurrentCreatesOneRow(t *testing.T) {
	// A file database: shared-cache memory databases serialize with table
	// locks that surface as SQLITE_LOCKED instead of waiting.
	d, err := db.Open(filepath.Join(t.TempDir(), "club.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	f := newFixture(t, d)
	repo := NewAttendanceRepository(d)

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	created := make([]bool, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, c, err := repo.Ensure(context.Background(), f.race.ID, f.juno.ID, time.Now().UTC())
			errs[i], created[i] = err, c
			if rec != nil {
				ids[i] = rec.ID
			}
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("workers saw different rows: %v", ids)
		}
		if created[i] {
			inserted++
		}
	}
	if inserted != 1 {
		t.Fatalf("expected exactly one insert, got %d", inserted)
	}
	if n, _ := repo.CountByEvent(context.Background(), f.race.ID); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestAttendanceRepository_CascadesWithEvent(t *testing.T) {
	d := openTestDB(t, "attrepo_cascade")
	f := newFixture(t, d)
	repo := NewAttendanceRepository(d)
	ctx := context.Background()

	if _, _, err := repo.Ensure(ctx, f.race.ID, f.noah.ID, time.Now().UTC()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := NewEventRepository(d).Delete(ctx, f.race.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if rec, err := repo.Get(ctx, f.race.ID, f.noah.ID); err != nil || rec != nil {
		t.Fatalf("attendance should be gone with its event: %+v, %v", rec, err)
	}
}
