package club

import (
	"context"
	"fmt"

	"skiclub/internal/auth"
	"skiclub/internal/notify"
	"skiclub/internal/recipients"
	"skiclub/models"
)

type MessageInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID *int64 `json:"category_id,omitempty"`
	AthleteID  *int64 `json:"athlete_id,omitempty"`
}

// PostMessage stores a message and notifies its audience. A message for an
// athlete is personal: its category reference is dropped. Coaches may write
// to the whole club, to their categories, or to athletes in them.
func (s *Service) PostMessage(ctx context.Context, p *auth.Principal, in MessageInput) (*models.Message, *notify.Result, error) {
	if err := auth.RequireStaff(p); err != nil {
		return nil, nil, err
	}
	title, err := required("title", in.Title)
	if err != nil {
		return nil, nil, err
	}
	content, err := required("content", in.Content)
	if err != nil {
		return nil, nil, err
	}

	target := recipients.Target{CategoryID: in.CategoryID, AthleteID: in.AthleteID}
	switch target.Kind() {
	case recipients.KindAthlete:
		a, err := s.athlete(ctx, *in.AthleteID)
		if err != nil {
			return nil, nil, err
		}
		if a.CategoryID == nil && !p.Is(models.RoleAdmin) {
			return nil, nil, fmt.Errorf("%w: athlete %d has no category", models.ErrForbidden, a.ID)
		}
		if a.CategoryID != nil {
			if err := s.requireManage(ctx, p, *a.CategoryID); err != nil {
				return nil, nil, err
			}
		}
		target.CategoryID = nil
	case recipients.KindCategory:
		c, err := s.Categories.GetByID(ctx, *in.CategoryID)
		if err != nil {
			return nil, nil, err
		}
		if c == nil {
			return nil, nil, fmt.Errorf("%w: category %d", models.ErrNotFound, *in.CategoryID)
		}
		if err := s.requireManage(ctx, p, c.ID); err != nil {
			return nil, nil, err
		}
	}

	sender := p.UserID
	m, err := s.Messages.Create(ctx, &models.Message{
		SenderID:   &sender,
		CategoryID: target.CategoryID,
		AthleteID:  target.AthleteID,
		Title:      title,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}
	res := s.announce(ctx, func() ([]int64, error) { return s.Resolver.Resolve(ctx, recipients.Of(m)) }, notify.ForMessage(m))
	return m, res, nil
}

// Inbox lists what a parent can read, newest first: club-wide messages, those
// for their children's categories, and those personal to their children.
func (s *Service) Inbox(ctx context.Context, p *auth.Principal) ([]models.Message, error) {
	if err := auth.Require(p, models.RoleParent); err != nil {
		return nil, err
	}
	children, err := s.Athletes.ListByParent(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	var athleteIDs, categoryIDs []int64
	seen := map[int64]bool{}
	for _, a := range children {
		athleteIDs = append(athleteIDs, a.ID)
		if a.CategoryID != nil && !seen[*a.CategoryID] {
			seen[*a.CategoryID] = true
			categoryIDs = append(categoryIDs, *a.CategoryID)
		}
	}
	return s.Messages.ListVisible(ctx, athleteIDs, categoryIDs, listLimit)
}

func (s *Service) SentMessages(ctx context.Context, p *auth.Principal) ([]models.Message, error) {
	if err := auth.RequireStaff(p); err != nil {
		return nil, err
	}
	return s.Messages.ListBySender(ctx, p.UserID, listLimit)
}
