// Package seed loads the demo club: an admin, two coaches, two parents, the
// U10 and U14 categories, three athletes and three upcoming events.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"skiclub/models"
	"skiclub/repository"
)

// ErrNotEmpty is returned by Run when the database already has users.
var ErrNotEmpty = errors.New("database already has users")

// Demo holds the records created by Run.
type Demo struct {
	Admin, CoachLuca, CoachSara, Parent1, Parent2 *models.User
	U10, U14                                      *models.Category
	Noah, Juno, Seth                              *models.Athlete
	TrainingGS, TrainingSL, Race                  *models.Event
}

// Run seeds an empty database. Event dates are relative to now.
func Run(ctx context.Context, d *sql.DB, now time.Time) (*Demo, error) {
	users := repository.NewUserRepository(d)
	n, err := users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrNotEmpty
	}
	cats := repository.NewCategoryRepository(d)
	aths := repository.NewAthleteRepository(d)
	events := repository.NewEventRepository(d)
	att := repository.NewAttendanceRepository(d)

	demo := &Demo{}
	for _, u := range []struct {
		dst         **models.User
		name, email string
		role        models.Role
	}{
		{&demo.Admin, "Admin Sci Club", "admin@club.test", models.RoleAdmin},
		{&demo.CoachLuca, "Luca Coach", "luca@club.test", models.RoleCoach},
		{&demo.CoachSara, "Sara Coach", "sara@club.test", models.RoleCoach},
		{&demo.Parent1, "Genitore Noah", "noah@club.test", models.RoleParent},
		{&demo.Parent2, "Genitore Juno", "juno@club.test", models.RoleParent},
	} {
		if *u.dst, err = users.Create(ctx, u.name, u.email, u.role); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.name, err)
		}
	}

	if demo.U10, err = cats.Create(ctx, "U10 – Cuccioli", "Atleti U10"); err != nil {
		return nil, err
	}
	if demo.U14, err = cats.Create(ctx, "U14 – Ragazzi", "Atleti U14"); err != nil {
		return nil, err
	}
	if _, err = cats.AssignCoach(ctx, demo.CoachLuca.ID, demo.U10.ID); err != nil {
		return nil, err
	}
	if _, err = cats.AssignCoach(ctx, demo.CoachSara.ID, demo.U14.ID); err != nil {
		return nil, err
	}

	for _, a := range []struct {
		dst  **models.Athlete
		name string
		year int
		cat  int64
	}{
		{&demo.Noah, "Noah Favre", 2014, demo.U10.ID},
		{&demo.Juno, "Juno Favre", 2020, demo.U10.ID},
		{&demo.Seth, "Seth Favre", 2014, demo.U14.ID},
	} {
		year, cat := a.year, a.cat
		if *a.dst, err = aths.Create(ctx, &models.Athlete{Name: a.name, BirthYear: &year, CategoryID: &cat}); err != nil {
			return nil, fmt.Errorf("seed athlete %s: %w", a.name, err)
		}
	}
	for _, link := range [][2]int64{
		{demo.Parent1.ID, demo.Noah.ID},
		{demo.Parent1.ID, demo.Seth.ID},
		{demo.Parent2.ID, demo.Juno.ID},
	} {
		if _, err = aths.LinkParent(ctx, link[0], link[1]); err != nil {
			return nil, err
		}
	}

	today := now.UTC()
	for _, e := range []struct {
		dst **models.Event
		ev  models.Event
	}{
		{&demo.TrainingGS, models.Event{Type: models.EventTypeTraining, CategoryID: demo.U10.ID, Title: "Allenamento GS Antagnod",
			Description: "Lavoro su curva media.", Location: "Antagnod – Boudin", Date: today.AddDate(0, 0, 1)}},
		{&demo.TrainingSL, models.Event{Type: models.EventTypeTraining, CategoryID: demo.U10.ID, Title: "Allenamento SL Champoluc",
			Description: "Pali corti.", Location: "Champoluc – Crest", Date: today.AddDate(0, 0, 3)}},
		{&demo.Race, models.Event{Type: models.EventTypeRace, CategoryID: demo.U14.ID, Title: "Gara Regionale SL",
			Description: "Selezione U14.", Location: "Gressoney – Weissmatten", Date: today.AddDate(0, 0, 5)}},
	} {
		ev := e.ev
		if *e.dst, err = events.Create(ctx, &ev); err != nil {
			return nil, fmt.Errorf("seed event %s: %w", ev.Title, err)
		}
	}

	for _, ev := range []*models.Event{demo.TrainingGS, demo.TrainingSL, demo.Race} {
		for _, a := range []*models.Athlete{demo.Noah, demo.Juno, demo.Seth} {
			if !a.InCategory(ev.CategoryID) {
				continue
			}
			if _, _, err = att.Ensure(ctx, ev.ID, a.ID, today); err != nil {
				return nil, err
			}
		}
	}
	log.Printf("seeded demo club: 5 users, 2 categories, 3 athletes, 3 events")
	return demo, nil
}
