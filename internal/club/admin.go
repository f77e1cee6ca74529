package club

import (
	"context"
	"fmt"
	"time"

	"skiclub/internal/auth"
	"skiclub/models"
)

func admin(p *auth.Principal) error { return auth.Require(p, models.RoleAdmin) }

// ListUsers feeds the demo user picker, so it needs no caller.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Users.List(ctx)
}

type UserInput struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func (s *Service) CreateUser(ctx context.Context, p *auth.Principal, in UserInput) (*models.User, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(string(in.Role))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, in.Role)
	}
	return s.Users.Create(ctx, name, in.Email, role)
}

func (s *Service) DeleteUser(ctx context.Context, p *auth.Principal, id int64) error {
	if err := admin(p); err != nil {
		return err
	}
	if id == p.UserID {
		return fmt.Errorf("%w: cannot delete yourself", models.ErrValidation)
	}
	return s.Users.Delete(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, p *auth.Principal) ([]models.Category, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if p.Is(models.RoleCoach) {
		return s.Categories.ListByCoach(ctx, p.UserID)
	}
	return s.Categories.List(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, p *auth.Principal, name, description string) (*models.Category, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	name, err := required("name", name)
	if err != nil {
		return nil, err
	}
	return s.Categories.Create(ctx, name, description)
}

func (s *Service) DeleteCategory(ctx context.Context, p *auth.Principal, id int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Categories.Delete(ctx, id)
}

// AssignCoach links a user with the coach role to a category.
func (s *Service) AssignCoach(ctx context.Context, p *auth.Principal, coachID, categoryID int64) (*models.CoachCategory, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	if err := s.requireUserRole(ctx, coachID, models.RoleCoach); err != nil {
		return nil, err
	}
	return s.Categories.AssignCoach(ctx, coachID, categoryID)
}

func (s *Service) UnassignCoach(ctx context.Context, p *auth.Principal, coachID, categoryID int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Categories.UnassignCoach(ctx, coachID, categoryID)
}

type AthleteInput struct {
	Name       string `json:"name"`
	BirthYear  *int   `json:"birth_year,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
}

func (s *Service) ListAthletes(ctx context.Context, p *auth.Principal) ([]models.Athlete, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	switch p.Role {
	case models.RoleParent:
		return s.Athletes.ListByParent(ctx, p.UserID)
	case models.RoleCoach:
		cats, err := s.managedCategories(ctx, p)
		if err != nil {
			return nil, err
		}
		var out []models.Athlete
		for _, c := range cats {
			list, err := s.Athletes.ListByCategory(ctx, c)
			if err != nil {
				return nil, err
			}
			out = append(out, list...)
		}
		return out, nil
	}
	return s.Athletes.List(ctx)
}

func (s *Service) CreateAthlete(ctx context.Context, p *auth.Principal, in AthleteInput) (*models.Athlete, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	if in.BirthYear != nil && (*in.BirthYear < 1900 || *in.BirthYear > s.now().Year()) {
		return nil, fmt.Errorf("%w: birth year %d out of range", models.ErrValidation, *in.BirthYear)
	}
	return s.Athletes.Create(ctx, &models.Athlete{Name: name, BirthYear: in.BirthYear, CategoryID: in.CategoryID})
}

// MoveAthlete changes an athlete's category. Existing attendance records stay;
// upcoming events of the new category pick the athlete up lazily.
func (s *Service) MoveAthlete(ctx context.Context, p *auth.Principal, athleteID int64, categoryID *int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Athletes.SetCategory(ctx, athleteID, categoryID)
}

func (s *Service) DeleteAthlete(ctx context.Context, p *auth.Principal, id int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Athletes.Delete(ctx, id)
}

// LinkParent links a user with the parent role to an athlete.
func (s *Service) LinkParent(ctx context.Context, p *auth.Principal, parentID, athleteID int64) (*models.ParentAthlete, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	if err := s.requireUserRole(ctx, parentID, models.RoleParent); err != nil {
		return nil, err
	}
	return s.Athletes.LinkParent(ctx, parentID, athleteID)
}

func (s *Service) UnlinkParent(ctx context.Context, p *auth.Principal, parentID, athleteID int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Athletes.UnlinkParent(ctx, parentID, athleteID)
}

type EventInput struct {
	Type        models.EventType `json:"type"`
	CategoryID  int64            `json:"category_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Date        string           `json:"date"` // YYYY-MM-DD
	AskSkiroom  bool             `json:"ask_skiroom"`
	AskCarpool  bool             `json:"ask_carpool"`
}

func (in EventInput) event() (*models.Event, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", models.ErrValidation, in.Type)
	}
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(models.DateLayout, in.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrValidation)
	}
	if in.CategoryID <= 0 {
		return nil, fmt.Errorf("%w: category is required", models.ErrValidation)
	}
	return &models.Event{
		Type: in.Type, CategoryID: in.CategoryID, Title: title, Description: in.Description,
		Location: in.Location, Date: day, AskSkiroom: in.AskSkiroom, AskCarpool: in.AskCarpool,
	}, nil
}

// CreateEvent stores an event. With generate set it also creates the
// attendance records of every athlete now in the category.
func (s *Service) CreateEvent(ctx context.Context, p *auth.Principal, in EventInput, generate bool) (*models.Event, int, error) {
	if err := admin(p); err != nil {
		return nil, 0, err
	}
	ev, err := in.event()
	if err != nil {
		return nil, 0, err
	}
	if c, err := s.Categories.GetByID(ctx, ev.CategoryID); err != nil {
		return nil, 0, err
	} else if c == nil {
		return nil, 0, fmt.Errorf("%w: category %d", models.ErrNotFound, ev.CategoryID)
	}
	created, err := s.Events.Create(ctx, ev)
	if err != nil {
		return nil, 0, err
	}
	if !generate {
		return created, 0, nil
	}
	n, err := s.Attendance.GenerateForEvent(ctx, created.ID)
	return created, n, err
}

func (s *Service) UpdateEvent(ctx context.Context, p *auth.Principal, id int64, in EventInput) (*models.Event, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	ev, err := in.event()
	if err != nil {
		return nil, err
	}
	ev.ID = id
	if err := s.Events.Update(ctx, ev); err != nil {
		return nil, err
	}
	return s.event(ctx, id)
}

func (s *Service) DeleteEvent(ctx context.Context, p *auth.Principal, id int64) error {
	if err := admin(p); err != nil {
		return err
	}
	return s.Events.Delete(ctx, id)
}

// GenerateAttendance is the explicit backfill action for one event.
func (s *Service) GenerateAttendance(ctx context.Context, p *auth.Principal, eventID int64) (int, error) {
	if err := admin(p); err != nil {
		return 0, err
	}
	return s.Attendance.GenerateForEvent(ctx, eventID)
}

type Stats struct {
	Users      int            `json:"users"`
	Categories int            `json:"categories"`
	Athletes   int            `json:"athletes"`
	Events     int            `json:"events"`
	Upcoming   []models.Event `json:"upcoming"`
}

func (s *Service) Stats(ctx context.Context, p *auth.Principal) (*Stats, error) {
	if err := admin(p); err != nil {
		return nil, err
	}
	var st Stats
	var err error
	if st.Users, err = s.Users.Count(ctx); err != nil {
		return nil, err
	}
	if st.Categories, err = s.Categories.Count(ctx); err != nil {
		return nil, err
	}
	if st.Athletes, err = s.Athletes.Count(ctx); err != nil {
		return nil, err
	}
	if st.Events, err = s.Events.Count(ctx); err != nil {
		return nil, err
	}
	if st.Upcoming, err = s.Events.ListUpcoming(ctx, s.now().UTC()); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) requireUserRole(ctx context.Context, id int64, role models.Role) error {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	if u.Role != role {
		return fmt.Errorf("%w: user %d is not a %s", models.ErrValidation, id, role)
	}
	return nil
}
