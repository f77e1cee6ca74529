package repository

import (
	"context"
	"database/sql"
	"errors"

	"skiclub/models"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, name, description string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return nil, translate(err, "category")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name, Description: description}, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c models.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	return r.list(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
}

// ListByCoach returns the categories a coach is assigned to.
func (r *CategoryRepository) ListByCoach(ctx context.Context, coachID int64) ([]models.Category, error) {
	return r.list(ctx, `
SELECT c.id, c.name, c.description
FROM categories c
JOIN coach_category cc ON cc.category_id = c.id
WHERE cc.coach_id = ?
ORDER BY c.name`, coachID)
}

func (r *CategoryRepository) list(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a category. Athletes are detached (category set to NULL),
// coach links cascade, and a category that still has events is refused.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return translate(err, "category")
	}
	return affected(res, "category")
}

// AssignCoach links a coach to a category. The pair is unique.
func (r *CategoryRepository) AssignCoach(ctx context.Context, coachID, categoryID int64) (*models.CoachCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO coach_category (coach_id, category_id) VALUES (?, ?)`, coachID, categoryID)
	if err != nil {
		return nil, translate(err, "coach assignment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.CoachCategory{ID: id, CoachID: coachID, CategoryID: categoryID}, nil
}

func (r *CategoryRepository) UnassignCoach(ctx context.Context, coachID, categoryID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM coach_category WHERE coach_id = ? AND category_id = ?`, coachID, categoryID)
	if err != nil {
		return err
	}
	return affected(res, "coach assignment")
}

// IsCoachOf reports whether coachID is assigned to categoryID.
func (r *CategoryRepository) IsCoachOf(ctx context.Context, coachID, categoryID int64) (bool, error) {
	n, err := count(ctx, r.db, `SELECT COUNT(*) FROM coach_category WHERE coach_id = ? AND category_id = ?`, coachID, categoryID)
	return n > 0, err
}

func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM categories`)
}
