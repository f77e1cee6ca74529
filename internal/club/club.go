// Package club holds the use cases behind every dashboard action. Each
// operation takes the caller explicitly; authorization happens here, not in
// the transport.
package club

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"skiclub/internal/attendance"
	"skiclub/internal/auth"
	"skiclub/internal/notify"
	"skiclub/internal/recipients"
	"skiclub/models"
	"skiclub/repository"
)

const listLimit = 50

type Service struct {
	Users      *repository.UserRepository
	Categories *repository.CategoryRepository
	Athletes   *repository.AthleteRepository
	Events     *repository.EventRepository
	Messages   *repository.MessageRepository
	Reports    *repository.ReportRepository
	Devices    *repository.DeviceTokenRepository

	Attendance *attendance.Service
	Resolver   *recipients.Resolver
	Notifier   *notify.Dispatcher

	now func() time.Time
}

// New wires every repository over d. A nil notifier behaves as a
// dispatcher without gateway.
func New(d *sql.DB, notifier *notify.Dispatcher) *Service {
	events := repository.NewEventRepository(d)
	athletes := repository.NewAthleteRepository(d)
	devices := repository.NewDeviceTokenRepository(d)
	if notifier == nil {
		notifier = notify.NewDispatcher(devices, nil, 0)
	}
	return &Service{
		Users:      repository.NewUserRepository(d),
		Categories: repository.NewCategoryRepository(d),
		Athletes:   athletes,
		Events:     events,
		Messages:   repository.NewMessageRepository(d),
		Reports:    repository.NewReportRepository(d),
		Devices:    devices,
		Attendance: attendance.NewService(repository.NewAttendanceRepository(d), events, athletes),
		Resolver:   recipients.NewResolver(repository.NewRecipientRepository(d), events),
		Notifier:   notifier,
		now:        time.Now,
	}
}

// WithClock replaces the time source of the service and its attendance
// service, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.Attendance.WithClock(now)
	return s
}

// Login resolves the demo user picker choice into a principal.
func (s *Service) Login(ctx context.Context, userID int64) (*auth.Principal, *models.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	return &auth.Principal{UserID: u.ID, Name: u.Name, Role: u.Role}, u, nil
}

// announce resolves and dispatches after a mutation has been stored. Any
// failure ends up in the result; the mutation stands.
func (s *Service) announce(ctx context.Context, resolve func() ([]int64, error), n notify.Notice) *notify.Result {
	ids, err := resolve()
	if err != nil {
		log.Printf("club: resolve recipients for %q: %v", n.Title, err)
		return &notify.Result{Status: notify.StatusFailed, Diagnostic: fmt.Sprintf("could not resolve recipients: %v", err)}
	}
	res := s.Notifier.Dispatch(ctx, ids, n.Title, n.Body, n.Meta)
	return &res
}

// canManage reports whether p may act on categoryID: admins always, coaches
// only for the categories they are assigned to.
func (s *Service) canManage(ctx context.Context, p *auth.Principal, categoryID int64) (bool, error) {
	switch {
	case p.Is(models.RoleAdmin):
		return true, nil
	case p.Is(models.RoleCoach):
		return s.Categories.IsCoachOf(ctx, p.UserID, categoryID)
	}
	return false, nil
}

func (s *Service) requireManage(ctx context.Context, p *auth.Principal, categoryID int64) error {
	if err := auth.RequireStaff(p); err != nil {
		return err
	}
	ok, err := s.canManage(ctx, p, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a coach of category %d", models.ErrForbidden, categoryID)
	}
	return nil
}

// managedCategories returns the category ids p coaches, or nil for admins,
// meaning every category.
func (s *Service) managedCategories(ctx context.Context, p *auth.Principal) ([]int64, error) {
	if p.Is(models.RoleAdmin) {
		return nil, nil
	}
	cats, err := s.Categories.ListByCoach(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *Service) event(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := s.Events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: event %d", models.ErrNotFound, id)
	}
	return ev, nil
}

func (s *Service) athlete(ctx context.Context, id int64) (*models.Athlete, error) {
	a, err := s.Athletes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: athlete %d", models.ErrNotFound, id)
	}
	return a, nil
}

func required(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", models.ErrValidation, field)
	}
	return v, nil
}
