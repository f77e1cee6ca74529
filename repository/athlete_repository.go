package repository

import (
	"context"
	"database/sql"
	"errors"

	"skiclub/models"
)

type AthleteRepository struct {
	db *sql.DB
}

func NewAthleteRepository(db *sql.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

const athleteColumns = `a.id, a.name, a.birth_year, a.category_id`

func (r *AthleteRepository) Create(ctx context.Context, a *models.Athlete) (*models.Athlete, error) {
	if a == nil {
		return nil, errors.New("athlete is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var birth any
	if a.BirthYear != nil {
		birth = *a.BirthYear
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO athletes (name, birth_year, category_id) VALUES (?, ?, ?)`,
		a.Name, birth, argInt64(a.CategoryID))
	if err != nil {
		return nil, translate(err, "athlete")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *a
	out.ID = id
	return &out, nil
}

func (r *AthleteRepository) GetByID(ctx context.Context, id int64) (*models.Athlete, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAthlete(r.db.QueryRowContext(ctx, `SELECT `+athleteColumns+` FROM athletes a WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AthleteRepository) List(ctx context.Context) ([]models.Athlete, error) {
	return r.list(ctx, `SELECT `+athleteColumns+` FROM athletes a ORDER BY a.name, a.id`)
}

func (r *AthleteRepository) ListByCategory(ctx context.Context, categoryID int64) ([]models.Athlete, error) {
	return r.list(ctx, `SELECT `+athleteColumns+` FROM athletes a WHERE a.category_id = ? ORDER BY a.name, a.id`, categoryID)
}

// ListByParent returns the athletes linked to a parent user.
func (r *AthleteRepository) ListByParent(ctx context.Context, parentID int64) ([]models.Athlete, error) {
	return r.list(ctx, `
SELECT `+athleteColumns+`
FROM athletes a
JOIN parent_athlete pa ON pa.athlete_id = a.id
WHERE pa.parent_id = ?
ORDER BY a.name, a.id`, parentID)
}

func (r *AthleteRepository) list(ctx context.Context, query string, args ...any) ([]models.Athlete, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Athlete
	for rows.Next() {
		a, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetCategory moves an athlete to another category, or detaches it when categoryID is nil.
// Attendance rows of past events are left untouched.
func (r *AthleteRepository) SetCategory(ctx context.Context, athleteID int64, categoryID *int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE athletes SET category_id = ? WHERE id = ?`, argInt64(categoryID), athleteID)
	if err != nil {
		return translate(err, "athlete")
	}
	return affected(res, "athlete")
}

func (r *AthleteRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM athletes WHERE id = ?`, id)
	if err != nil {
		return translate(err, "athlete")
	}
	return affected(res, "athlete")
}

// LinkParent records that parentID is a parent of athleteID. The pair is unique.
func (r *AthleteRepository) LinkParent(ctx context.Context, parentID, athleteID int64) (*models.ParentAthlete, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO parent_athlete (parent_id, athlete_id) VALUES (?, ?)`, parentID, athleteID)
	if err != nil {
		return nil, translate(err, "parent link")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.ParentAthlete{ID: id, ParentID: parentID, AthleteID: athleteID}, nil
}

func (r *AthleteRepository) UnlinkParent(ctx context.Context, parentID, athleteID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM parent_athlete WHERE parent_id = ? AND athlete_id = ?`, parentID, athleteID)
	if err != nil {
		return err
	}
	return affected(res, "parent link")
}

func (r *AthleteRepository) IsParentOf(ctx context.Context, parentID, athleteID int64) (bool, error) {
	n, err := count(ctx, r.db, `SELECT COUNT(*) FROM parent_athlete WHERE parent_id = ? AND athlete_id = ?`, parentID, athleteID)
	return n > 0, err
}

func (r *AthleteRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM athletes`)
}

func scanAthlete(row rowScanner) (*models.Athlete, error) {
	var a models.Athlete
	var birth, cat sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &birth, &cat); err != nil {
		return nil, err
	}
	if birth.Valid {
		y := int(birth.Int64)
		a.BirthYear = &y
	}
	a.CategoryID = nullInt64(cat)
	return &a, nil
}
