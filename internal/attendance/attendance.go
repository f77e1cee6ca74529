// Package attendance keeps one attendance record per (event, athlete) and
// applies the event's logistics policy to every write.
package attendance

import (
	"context"
	"fmt"
	"time"

	"skiclub/models"
	"skiclub/repository"
)

// MaxCarSeats is the largest seat count a parent can offer for one car.
const MaxCarSeats = 8

type Store interface {
	Ensure(ctx context.Context, eventID, athleteID int64, now time.Time) (*models.EventAttendance, bool, error)
	Save(ctx context.Context, a *models.EventAttendance) (*models.EventAttendance, error)
	Get(ctx context.Context, eventID, athleteID int64) (*models.EventAttendance, error)
	ListByEvent(ctx context.Context, eventID int64) ([]repository.AttendanceRow, error)
}

type Events interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type Athletes interface {
	GetByID(ctx context.Context, id int64) (*models.Athlete, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]models.Athlete, error)
	ListByParent(ctx context.Context, parentID int64) ([]models.Athlete, error)
}

type Service struct {
	store    Store
	events   Events
	athletes Athletes
	now      func() time.Time
}

func NewService(store Store, events Events, athletes Athletes) *Service {
	return &Service{store: store, events: events, athletes: athletes, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ensure returns the attendance record of the pair, creating the undecided
// default when there is none. Safe to call repeatedly and concurrently.
func (s *Service) Ensure(ctx context.Context, eventID, athleteID int64) (*models.EventAttendance, error) {
	ev, ath, err := s.load(ctx, eventID, athleteID)
	if err != nil {
		return nil, err
	}
	if !ath.InCategory(ev.CategoryID) {
		return nil, fmt.Errorf("%w: athlete %d is not in the category of event %d", models.ErrValidation, athleteID, eventID)
	}
	rec, _, err := s.store.Ensure(ctx, eventID, athleteID, s.now().UTC())
	return rec, err
}

// UpdateInput is what a parent submits for one athlete and one event.
type UpdateInput struct {
	EventID       int64                   `json:"event_id"`
	AthleteID     int64                   `json:"athlete_id"`
	Status        models.AttendanceStatus `json:"status"`
	SkisInSkiroom bool                    `json:"skis_in_skiroom"`
	CarAvailable  bool                    `json:"car_available"`
	CarSeats      int                     `json:"car_seats"`
}

// Validate rejects values that are out of range whatever the event says.
func (in UpdateInput) Validate() error {
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, in.Status)
	}
	if in.CarSeats < 0 || in.CarSeats > MaxCarSeats {
		return fmt.Errorf("%w: car seats must be between 0 and %d", models.ErrValidation, MaxCarSeats)
	}
	return nil
}

// Policy returns the logistics fields that may be stored for ev. Ski-room is
// kept only when the coach asked for it, car availability only on a race with
// a carpool request, and seats only with a car.
func Policy(ev *models.Event, in UpdateInput) (skis, car bool, seats int) {
	if ev.AskSkiroom {
		skis = in.SkisInSkiroom
	}
	if ev.CarpoolApplies() && in.CarAvailable {
		car, seats = true, in.CarSeats
	}
	return skis, car, seats
}

// Update replaces the whole record in one statement, stamping updatedBy and
// the current time. Nothing is written when validation fails.
func (s *Service) Update(ctx context.Context, in UpdateInput, updatedBy int64) (*models.EventAttendance, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ev, ath, err := s.load(ctx, in.EventID, in.AthleteID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Get(ctx, in.EventID, in.AthleteID)
	if err != nil {
		return nil, err
	}
	// A pair without a record must still belong to the event's category.
	if existing == nil && !ath.InCategory(ev.CategoryID) {
		return nil, fmt.Errorf("%w: athlete %d is not in the category of event %d", models.ErrValidation, in.AthleteID, in.EventID)
	}

	skis, car, seats := Policy(ev, in)
	by := updatedBy
	return s.store.Save(ctx, &models.EventAttendance{
		EventID:       in.EventID,
		AthleteID:     in.AthleteID,
		Status:        in.Status,
		SkisInSkiroom: skis,
		CarAvailable:  car,
		CarSeats:      seats,
		UpdatedBy:     &by,
		UpdatedAt:     s.now().UTC(),
	})
}

// GenerateForEvent creates the missing records for every athlete currently in
// the event's category and reports how many were created. It is the explicit
// administrative action; past events are otherwise never backfilled.
func (s *Service) GenerateForEvent(ctx context.Context, eventID int64) (int, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return 0, err
	}
	list, err := s.athletes.ListByCategory(ctx, ev.CategoryID)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	created := 0
	for _, a := range list {
		_, ok, err := s.store.Ensure(ctx, ev.ID, a.ID, now)
		if err != nil {
			return created, fmt.Errorf("ensure athlete %d: %w", a.ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// ParentEntry is one of a parent's children in one event, with its record.
type ParentEntry struct {
	Athlete models.Athlete          `json:"athlete"`
	Record  *models.EventAttendance `json:"attendance"`
}

// EnsureForParent materializes the records of a parent's children in the
// event's category. Past events are only read, never backfilled, so an entry
// there may carry a nil Record.
func (s *Service) EnsureForParent(ctx context.Context, parentID, eventID int64) ([]ParentEntry, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	children, err := s.athletes.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	upcoming := ev.Upcoming(now)
	var out []ParentEntry
	for _, a := range children {
		if !a.InCategory(ev.CategoryID) {
			continue
		}
		var rec *models.EventAttendance
		if upcoming {
			rec, _, err = s.store.Ensure(ctx, ev.ID, a.ID, now)
		} else {
			rec, err = s.store.Get(ctx, ev.ID, a.ID)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ParentEntry{Athlete: a, Record: rec})
	}
	return out, nil
}

func (s *Service) event(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: event %d", models.ErrNotFound, id)
	}
	return ev, nil
}

func (s *Service) load(ctx context.Context, eventID, athleteID int64) (*models.Event, *models.Athlete, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	ath, err := s.athletes.GetByID(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}
	if ath == nil {
		return nil, nil, fmt.Errorf("%w: athlete %d", models.ErrNotFound, athleteID)
	}
	return ev, ath, nil
}
