package httpapi

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"skiclub/internal/attendance"
	"skiclub/internal/club"
	"skiclub/models"
)

func (s *Server) coachRosters(c *fiber.Ctx) error {
	rosters, err := s.club.CoachRosters(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rosters)
}

func (s *Server) loadRoster(c *fiber.Ctx) (*attendance.Roster, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return s.club.Roster(c.UserContext(), principal(c), id)
}

func (s *Server) roster(c *fiber.Ctx) error {
	r, err := s.loadRoster(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(r)
}

func (s *Server) rosterCSV(c *fiber.Ctx) error {
	r, err := s.loadRoster(c)
	if err != nil {
		return fail(c, err)
	}
	var buf bytes.Buffer
	if err := r.CSV(&buf); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="roster-%d.csv"`, r.Event.ID))
	return c.Send(buf.Bytes())
}

func (s *Server) rosterSheets(c *fiber.Ctx) error {
	if s.opts.Sheets == nil {
		return fail(c, fmt.Errorf("%w: google sheets export", models.ErrDisabled))
	}
	r, err := s.loadRoster(c)
	if err != nil {
		return fail(c, err)
	}
	tab := r.Event.Date.Format(models.DateLayout) + " " + r.Event.Title
	rng, err := s.opts.Sheets.ExportRoster(c.UserContext(), tab, r.Records())
	if err != nil {
		return problem(c, fiber.StatusBadGateway, "sheets export failed", err)
	}
	return c.JSON(fiber.Map{"range": rng, "rows": len(r.Rows)})
}

func (s *Server) setLogistics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		AskSkiroom bool `json:"ask_skiroom" form:"ask_skiroom"`
		AskCarpool bool `json:"ask_carpool" form:"ask_carpool"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	ev, res, err := s.club.SetLogistics(c.UserContext(), principal(c), id, in.AskSkiroom, in.AskCarpool)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"event": ev, "notification": res})
}

func (s *Server) eventReports(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	reps, err := s.club.EventReports(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reps)
}

type reportRequest struct {
	Content string `json:"content" form:"content"`
}

func (s *Server) saveTeamReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in reportRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	rep, res, err := s.club.SaveTeamReport(c.UserContext(), principal(c), id, in.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"report": rep, "notification": res})
}

func (s *Server) saveAthleteReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	athleteID, err := paramID(c, "athleteID")
	if err != nil {
		return err
	}
	var in reportRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	rep, res, err := s.club.SaveAthleteReport(c.UserContext(), principal(c), id, athleteID, in.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"report": rep, "notification": res})
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	var in club.MessageInput
	if err := parse(c, &in); err != nil {
		return err
	}
	m, res, err := s.club.PostMessage(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": m, "notification": res})
}

func (s *Server) sentMessages(c *fiber.Ctx) error {
	msgs, err := s.club.SentMessages(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msgs)
}

func (s *Server) parentEvents(c *fiber.Ctx) error {
	events, err := s.club.ParentEvents(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(events)
}

// updateAttendance takes the event and athlete from the path; the body only
// carries the answers.
func (s *Server) updateAttendance(c *fiber.Ctx) error {
	eventID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	athleteID, err := paramID(c, "athleteID")
	if err != nil {
		return err
	}
	var in attendance.UpdateInput
	if err := parse(c, &in); err != nil {
		return err
	}
	in.EventID, in.AthleteID = eventID, athleteID
	rec, err := s.club.UpdateAttendance(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

func (s *Server) inbox(c *fiber.Ctx) error {
	items, err := s.inboxItems(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (s *Server) registerDevice(c *fiber.Ctx) error {
	var in struct {
		Platform string `json:"platform" form:"platform"`
		Token    string `json:"token" form:"token"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	dev, err := s.club.RegisterDevice(c.UserContext(), principal(c), in.Platform, in.Token)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dev)
}

func (s *Server) unregisterDevice(c *fiber.Ctx) error {
	var in struct {
		Token string `json:"token" form:"token"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	if err := s.club.UnregisterDevice(c.UserContext(), principal(c), in.Token); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
