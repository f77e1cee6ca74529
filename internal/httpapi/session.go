package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"skiclub/internal/auth"
	"skiclub/models"
)

// index is the demo user picker.
func (s *Server) index(c *fiber.Ctx) error {
	users, err := s.club.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	if !wantsHTML(c) {
		return c.JSON(fiber.Map{"users": users})
	}
	return c.Render("index", fiber.Map{"Title": "Sci Club", "Users": users, "Roles": models.Roles})
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.club.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

type loginRequest struct {
	UserID int64 `json:"user_id" form:"user_id"`
}

// login trusts the picked user id: the dashboard is a demo without passwords.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.UserID <= 0 {
		return problem(c, fiber.StatusBadRequest, "user_id is required", nil)
	}
	p, u, err := s.club.Login(c.UserContext(), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	now := s.now()
	token, err := auth.IssueToken(s.opts.JWTSecret, u, s.opts.SessionTTL, now)
	if err != nil {
		return fail(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.opts.SessionTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if wantsHTML(c) {
		return c.Redirect("/dashboard", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_in": int(s.opts.SessionTTL / time.Second),
		"user":       u,
		"role":       p.Role,
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	c.ClearCookie(sessionCookie)
	return c.SendStatus(fiber.StatusNoContent)
}
