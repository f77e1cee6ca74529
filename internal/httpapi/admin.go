package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"skiclub/internal/club"
)

func (s *Server) stats(c *fiber.Ctx) error {
	st, err := s.club.Stats(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (s *Server) createUser(c *fiber.Ctx) error {
	var in club.UserInput
	if err := parse(c, &in); err != nil {
		return err
	}
	u, err := s.club.CreateUser(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.club.DeleteUser(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	cats, err := s.club.ListCategories(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cats)
}

func (s *Server) createCategory(c *fiber.Ctx) error {
	var in struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	cat, err := s.club.CreateCategory(c.UserContext(), principal(c), in.Name, in.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (s *Server) deleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.club.DeleteCategory(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) assignCoach(c *fiber.Ctx) error {
	catID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		CoachID int64 `json:"coach_id" form:"coach_id"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	link, err := s.club.AssignCoach(c.UserContext(), principal(c), in.CoachID, catID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (s *Server) unassignCoach(c *fiber.Ctx) error {
	catID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	coachID, err := paramID(c, "coachID")
	if err != nil {
		return err
	}
	if err := s.club.UnassignCoach(c.UserContext(), principal(c), coachID, catID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listAthletes(c *fiber.Ctx) error {
	list, err := s.club.ListAthletes(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (s *Server) createAthlete(c *fiber.Ctx) error {
	var in club.AthleteInput
	if err := parse(c, &in); err != nil {
		return err
	}
	a, err := s.club.CreateAthlete(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// moveAthlete takes {"category_id": null} to leave the athlete unassigned.
func (s *Server) moveAthlete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		CategoryID *int64 `json:"category_id"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	if err := s.club.MoveAthlete(c.UserContext(), principal(c), id, in.CategoryID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) deleteAthlete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.club.DeleteAthlete(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) linkParent(c *fiber.Ctx) error {
	athleteID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		ParentID int64 `json:"parent_id" form:"parent_id"`
	}
	if err := parse(c, &in); err != nil {
		return err
	}
	link, err := s.club.LinkParent(c.UserContext(), principal(c), in.ParentID, athleteID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (s *Server) unlinkParent(c *fiber.Ctx) error {
	athleteID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	parentID, err := paramID(c, "parentID")
	if err != nil {
		return err
	}
	if err := s.club.UnlinkParent(c.UserContext(), principal(c), parentID, athleteID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type eventRequest struct {
	club.EventInput
	GenerateAttendance bool `json:"generate_attendance"`
}

// createEvent also accepts ?generate_attendance=1.
func (s *Server) createEvent(c *fiber.Ctx) error {
	var in eventRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	generate := in.GenerateAttendance || truthy(c.Query("generate_attendance"))
	ev, n, err := s.club.CreateEvent(c.UserContext(), principal(c), in.EventInput, generate)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": ev, "attendance_created": n})
}

func (s *Server) updateEvent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in club.EventInput
	if err := parse(c, &in); err != nil {
		return err
	}
	ev, err := s.club.UpdateEvent(c.UserContext(), principal(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ev)
}

func (s *Server) deleteEvent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.club.DeleteEvent(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) generateAttendance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := s.club.GenerateAttendance(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"attendance_created": n})
}
