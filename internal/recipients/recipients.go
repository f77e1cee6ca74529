// Package recipients computes which parents a message, report or logistics
// change is for.
package recipients

import (
	"context"
	"fmt"
	"sort"

	"skiclub/models"
)

// Kind is the resolved audience of a Target.
type Kind int

const (
	KindBroadcast Kind = iota
	KindCategory
	KindAthlete
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindAthlete:
		return "athlete"
	}
	return "broadcast"
}

// Target mirrors the two nullable references of a message. When both are
// set the athlete wins.
type Target struct {
	CategoryID *int64
	AthleteID  *int64
}

func Broadcast() Target { return Target{} }

func ForCategory(id int64) Target { return Target{CategoryID: &id} }

func ForAthlete(id int64) Target { return Target{AthleteID: &id} }

// Of returns the target of a stored message.
func Of(m *models.Message) Target {
	return Target{CategoryID: m.CategoryID, AthleteID: m.AthleteID}
}

func (t Target) Kind() Kind {
	switch {
	case t.AthleteID != nil:
		return KindAthlete
	case t.CategoryID != nil:
		return KindCategory
	}
	return KindBroadcast
}

type Store interface {
	AllParents(ctx context.Context) ([]int64, error)
	ParentsOfCategory(ctx context.Context, categoryID int64) ([]int64, error)
	ParentsOfAthlete(ctx context.Context, athleteID int64) ([]int64, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	AthleteExists(ctx context.Context, id int64) (bool, error)
}

type Events interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type Resolver struct {
	store  Store
	events Events
}

func NewResolver(store Store, events Events) *Resolver {
	return &Resolver{store: store, events: events}
}

// Resolve returns the parent user ids for t, without duplicates and sorted
// ascending. An unknown category or athlete is models.ErrNotFound; a target
// nobody follows yields an empty slice.
func (r *Resolver) Resolve(ctx context.Context, t Target) ([]int64, error) {
	var (
		ids []int64
		err error
	)
	switch t.Kind() {
	case KindAthlete:
		if err := r.mustExist(ctx, "athlete", *t.AthleteID, r.store.AthleteExists); err != nil {
			return nil, err
		}
		ids, err = r.store.ParentsOfAthlete(ctx, *t.AthleteID)
	case KindCategory:
		if err := r.mustExist(ctx, "category", *t.CategoryID, r.store.CategoryExists); err != nil {
			return nil, err
		}
		ids, err = r.store.ParentsOfCategory(ctx, *t.CategoryID)
	default:
		ids, err = r.store.AllParents(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s recipients: %w", t.Kind(), err)
	}
	return dedupe(ids), nil
}

// ForEvent returns the parents of the event's category.
func (r *Resolver) ForEvent(ctx context.Context, eventID int64) ([]int64, error) {
	ev, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: event %d", models.ErrNotFound, eventID)
	}
	return r.Resolve(ctx, ForCategory(ev.CategoryID))
}

func (r *Resolver) mustExist(ctx context.Context, what string, id int64, exists func(context.Context, int64) (bool, error)) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, what, id)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
