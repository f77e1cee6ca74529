package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"skiclub/internal/db"
	"skiclub/repository"
)

func TestRun_SeedsOnce(t *testing.T) {
	d, err := db.Open("file:seedtest?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	demo, err := Run(ctx, d, time.Now())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	att := repository.NewAttendanceRepository(d)
	for ev, want := range map[int64]int{demo.TrainingGS.ID: 2, demo.TrainingSL.ID: 2, demo.Race.ID: 1} {
		if n, _ := att.CountByEvent(ctx, ev); n != want {
			t.Fatalf("event %d: expected %d attendance rows, got %d", ev, want, n)
		}
	}
	kids, err := repository.NewAthleteRepository(d).ListByParent(ctx, demo.Parent1.ID)
	if err != nil || len(kids) != 2 {
		t.Fatalf("parent1 children: %v, %v", kids, err)
	}

	if _, err := Run(ctx, d, time.Now()); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("second run: expected ErrNotEmpty, got %v", err)
	}
}
