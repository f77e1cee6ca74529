package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"skiclub/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, type, category_id, title, description, location, date, ask_skiroom, ask_carpool`

// Create inserts an event. A carpool request on a training is dropped.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	if e == nil {
		return nil, errors.New("event is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out := *e
	out.AskCarpool = out.AskCarpool && out.IsRace()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO events (type, category_id, title, description, location, date, ask_skiroom, ask_carpool)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(out.Type), out.CategoryID, out.Title, out.Description, out.Location,
		out.Date.Format(models.DateLayout), out.AskSkiroom, out.AskCarpool)
	if err != nil {
		return nil, translate(err, "event")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out.ID = id
	return &out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// Update rewrites every editable field of an event, including its category.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	if e == nil {
		return errors.New("event is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
UPDATE events SET type = ?, category_id = ?, title = ?, description = ?, location = ?, date = ?, ask_skiroom = ?, ask_carpool = ?
WHERE id = ?`,
		string(e.Type), e.CategoryID, e.Title, e.Description, e.Location,
		e.Date.Format(models.DateLayout), e.AskSkiroom, e.AskCarpool && e.IsRace(), e.ID)
	if err != nil {
		return translate(err, "event")
	}
	return affected(res, "event")
}

// SetLogistics stores the coach's ski-room and carpool requests.
func (r *EventRepository) SetLogistics(ctx context.Context, id int64, askSkiroom, askCarpool bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
UPDATE events SET ask_skiroom = ?, ask_carpool = CASE WHEN type = 'race' THEN ? ELSE 0 END
WHERE id = ?`, askSkiroom, askCarpool, id)
	if err != nil {
		return err
	}
	return affected(res, "event")
}

// ListUpcoming returns events on or after from, ordered by date. With no
// category ids it returns the events of every category.
func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time, categoryIDs ...int64) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM events WHERE date >= ?`
	args := []any{from.Format(models.DateLayout)}
	if len(categoryIDs) > 0 {
		query += ` AND category_id IN (?)`
		args = append(args, categoryIDs)
	}
	query, args, err := sqlx.In(query+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlx.Rebind(sqlx.QUESTION, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return translate(err, "event")
	}
	return affected(res, "event")
}

func (r *EventRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM events`)
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var typ, date string
	if err := row.Scan(&e.ID, &typ, &e.CategoryID, &e.Title, &e.Description, &e.Location, &date, &e.AskSkiroom, &e.AskCarpool); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	e.Type = models.EventType(typ)
	e.Date = d
	return &e, nil
}
