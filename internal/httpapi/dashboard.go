package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"skiclub/internal/auth"
	"skiclub/models"
)

// RoleView is the dashboard of one role: the template it renders and the data
// it needs.
type RoleView interface {
	Template() string
	Load(ctx context.Context, s *Server, p *auth.Principal) (fiber.Map, error)
}

type AdminView struct{}

func (AdminView) Template() string { return "admin" }

func (AdminView) Load(ctx context.Context, s *Server, p *auth.Principal) (fiber.Map, error) {
	st, err := s.club.Stats(ctx, p)
	if err != nil {
		return nil, err
	}
	users, err := s.club.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.club.ListCategories(ctx, p)
	if err != nil {
		return nil, err
	}
	athletes, err := s.club.ListAthletes(ctx, p)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"stats": st, "users": users, "categories": cats, "athletes": athletes}, nil
}

type CoachView struct{}

func (CoachView) Template() string { return "coach" }

func (CoachView) Load(ctx context.Context, s *Server, p *auth.Principal) (fiber.Map, error) {
	cats, err := s.club.ListCategories(ctx, p)
	if err != nil {
		return nil, err
	}
	rosters, err := s.club.CoachRosters(ctx, p)
	if err != nil {
		return nil, err
	}
	sent, err := s.club.SentMessages(ctx, p)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"categories": cats, "rosters": rosters, "sent": sent, "sheets_enabled": s.opts.Sheets != nil}, nil
}

type ParentView struct{}

func (ParentView) Template() string { return "parent" }

func (ParentView) Load(ctx context.Context, s *Server, p *auth.Principal) (fiber.Map, error) {
	events, err := s.club.ParentEvents(ctx, p)
	if err != nil {
		return nil, err
	}
	inbox, err := s.inboxItems(ctx, p)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"events": events, "inbox": inbox}, nil
}

var views = map[models.Role]RoleView{
	models.RoleAdmin:  AdminView{},
	models.RoleCoach:  CoachView{},
	models.RoleParent: ParentView{},
}

func viewFor(r models.Role) (RoleView, bool) {
	v, ok := views[r]
	return v, ok
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	p := principal(c)
	v, ok := viewFor(p.Role)
	if !ok {
		return problem(c, fiber.StatusForbidden, "no dashboard for role "+string(p.Role), nil)
	}
	data, err := v.Load(c.UserContext(), s, p)
	if err != nil {
		return fail(c, err)
	}
	if !wantsHTML(c) {
		data["role"] = p.Role
		return c.JSON(data)
	}
	data["Title"] = p.Role.Label() + " dashboard"
	data["Principal"] = p
	return c.Render(v.Template(), data)
}

// inboxItem is a message with its body rendered from markdown.
type inboxItem struct {
	models.Message
	HTML string `json:"html"`
}

func (s *Server) inboxItems(ctx context.Context, p *auth.Principal) ([]inboxItem, error) {
	msgs, err := s.club.Inbox(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]inboxItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, inboxItem{Message: m, HTML: string(s.markdown(m.Content))})
	}
	return out, nil
}
