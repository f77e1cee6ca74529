package club

import (
	"context"

	"skiclub/internal/auth"
	"skiclub/internal/notify"
	"skiclub/models"
)

// SetLogistics stores the ski-room and carpool requests of an event. Parents
// of the category are notified only when a request is switched on; on a
// training the carpool request is ignored.
func (s *Service) SetLogistics(ctx context.Context, p *auth.Principal, eventID int64, askSkiroom, askCarpool bool) (*models.Event, *notify.Result, error) {
	before, err := s.event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireManage(ctx, p, before.CategoryID); err != nil {
		return nil, nil, err
	}
	if err := s.Events.SetLogistics(ctx, before.ID, askSkiroom, askCarpool); err != nil {
		return nil, nil, err
	}
	after, err := s.event(ctx, before.ID)
	if err != nil {
		return nil, nil, err
	}

	skiOn := after.AskSkiroom && !before.AskSkiroom
	carOn := after.AskCarpool && !before.AskCarpool
	if !skiOn && !carOn {
		return after, nil, nil
	}
	res := s.announce(ctx, func() ([]int64, error) { return s.Resolver.ForEvent(ctx, after.ID) },
		notify.ForLogistics(after, skiOn, carOn))
	return after, res, nil
}
