package club

import (
	"context"
	"fmt"

	"skiclub/internal/auth"
	"skiclub/internal/notify"
	"skiclub/internal/recipients"
	"skiclub/models"
)

// SaveTeamReport creates or replaces the caller's report on an event and
// notifies the parents of the event's category.
func (s *Service) SaveTeamReport(ctx context.Context, p *auth.Principal, eventID int64, content string) (*models.TeamReport, *notify.Result, error) {
	content, err := required("content", content)
	if err != nil {
		return nil, nil, err
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireManage(ctx, p, ev.CategoryID); err != nil {
		return nil, nil, err
	}
	rep, err := s.Reports.UpsertTeam(ctx, ev.ID, p.UserID, content, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	res := s.announce(ctx, func() ([]int64, error) { return s.Resolver.ForEvent(ctx, ev.ID) }, notify.ForTeamReport(ev, rep))
	return rep, res, nil
}

// SaveAthleteReport creates or replaces the caller's note on one athlete of
// an event and notifies that athlete's parents.
func (s *Service) SaveAthleteReport(ctx context.Context, p *auth.Principal, eventID, athleteID int64, content string) (*models.AthleteReport, *notify.Result, error) {
	content, err := required("content", content)
	if err != nil {
		return nil, nil, err
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireManage(ctx, p, ev.CategoryID); err != nil {
		return nil, nil, err
	}
	a, err := s.athlete(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}
	if !a.InCategory(ev.CategoryID) {
		return nil, nil, fmt.Errorf("%w: athlete %d is not in the category of event %d", models.ErrValidation, a.ID, ev.ID)
	}
	rep, err := s.Reports.UpsertAthlete(ctx, ev.ID, a.ID, p.UserID, content, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	res := s.announce(ctx, func() ([]int64, error) { return s.Resolver.Resolve(ctx, recipients.ForAthlete(a.ID)) },
		notify.ForAthleteReport(ev, a, rep))
	return rep, res, nil
}

// EventReports holds every report written on one event.
type EventReports struct {
	Team     []models.TeamReport    `json:"team"`
	Athletes []models.AthleteReport `json:"athletes"`
}

// EventReports lists the reports of an event. Staff of the category see all of
// them; a parent sees the team reports and the notes on their own children.
func (s *Service) EventReports(ctx context.Context, p *auth.Principal, eventID int64) (*EventReports, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var mine map[int64]bool
	if p.Is(models.RoleParent) {
		children, err := s.Athletes.ListByParent(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		mine = map[int64]bool{}
		for _, a := range children {
			if a.InCategory(ev.CategoryID) {
				mine[a.ID] = true
			}
		}
		if len(mine) == 0 {
			return nil, fmt.Errorf("%w: no child in the category of event %d", models.ErrForbidden, ev.ID)
		}
	} else if err := s.requireManage(ctx, p, ev.CategoryID); err != nil {
		return nil, err
	}

	out := &EventReports{}
	if out.Team, err = s.Reports.ListTeamByEvent(ctx, ev.ID); err != nil {
		return nil, err
	}
	all, err := s.Reports.ListAthleteByEvent(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if mine == nil || mine[r.AthleteID] {
			out.Athletes = append(out.Athletes, r)
		}
	}
	return out, nil
}
