package club

import (
	"context"
	"fmt"

	"skiclub/internal/attendance"
	"skiclub/internal/auth"
	"skiclub/models"
)

// UpdateAttendance lets a parent answer for their own child, and staff of the
// category for any athlete in it.
func (s *Service) UpdateAttendance(ctx context.Context, p *auth.Principal, in attendance.UpdateInput) (*models.EventAttendance, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if p.Is(models.RoleParent) {
		ok, err := s.Athletes.IsParentOf(ctx, p.UserID, in.AthleteID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: athlete %d is not your child", models.ErrForbidden, in.AthleteID)
		}
	} else {
		ev, err := s.event(ctx, in.EventID)
		if err != nil {
			return nil, err
		}
		if err := s.requireManage(ctx, p, ev.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.Attendance.Update(ctx, in, p.UserID)
}

// ParentEvent is one upcoming event with the parent's children in it.
type ParentEvent struct {
	Event    models.Event             `json:"event"`
	Children []attendance.ParentEntry `json:"children"`
}

// ParentEvents lists the upcoming events of the categories of a parent's
// children, materializing missing attendance records on the way.
func (s *Service) ParentEvents(ctx context.Context, p *auth.Principal) ([]ParentEvent, error) {
	if err := auth.Require(p, models.RoleParent); err != nil {
		return nil, err
	}
	children, err := s.Athletes.ListByParent(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	var cats []int64
	seen := map[int64]bool{}
	for _, a := range children {
		if a.CategoryID != nil && !seen[*a.CategoryID] {
			seen[*a.CategoryID] = true
			cats = append(cats, *a.CategoryID)
		}
	}
	if len(cats) == 0 {
		return nil, nil
	}
	events, err := s.Events.ListUpcoming(ctx, s.now().UTC(), cats...)
	if err != nil {
		return nil, err
	}
	out := make([]ParentEvent, 0, len(events))
	for _, ev := range events {
		entries, err := s.Attendance.EnsureForParent(ctx, p.UserID, ev.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ParentEvent{Event: ev, Children: entries})
	}
	return out, nil
}

// CoachRosters returns the roster of every upcoming event the caller manages.
func (s *Service) CoachRosters(ctx context.Context, p *auth.Principal) ([]*attendance.Roster, error) {
	if err := auth.RequireStaff(p); err != nil {
		return nil, err
	}
	cats, err := s.managedCategories(ctx, p)
	if err != nil {
		return nil, err
	}
	if cats != nil && len(cats) == 0 {
		return nil, nil
	}
	events, err := s.Events.ListUpcoming(ctx, s.now().UTC(), cats...)
	if err != nil {
		return nil, err
	}
	out := make([]*attendance.Roster, 0, len(events))
	for _, ev := range events {
		r, err := s.Attendance.Roster(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Roster returns one event's roster when the caller manages its category.
func (s *Service) Roster(ctx context.Context, p *auth.Principal, eventID int64) (*attendance.Roster, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, p, ev.CategoryID); err != nil {
		return nil, err
	}
	return s.Attendance.Roster(ctx, ev.ID)
}
