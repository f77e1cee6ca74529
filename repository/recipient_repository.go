package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// RecipientRepository answers the "which parents" questions behind
// notification targeting. Every query returns distinct user ids.
type RecipientRepository struct {
	db *sqlx.DB
}

func NewRecipientRepository(db *sql.DB) *RecipientRepository {
	return &RecipientRepository{db: sqlx.NewDb(db, "sqlite3")}
}

// AllParents returns every user with the parent role.
func (r *RecipientRepository) AllParents(ctx context.Context) ([]int64, error) {
	return r.ids(ctx, `SELECT DISTINCT id FROM users WHERE role = 'parent' ORDER BY id`)
}

// ParentsOfCategory returns parents linked to at least one athlete currently
// in the category.
func (r *RecipientRepository) ParentsOfCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	return r.ids(ctx, `
SELECT DISTINCT pa.parent_id FROM parent_athlete pa
JOIN athletes a ON a.id = pa.athlete_id
JOIN users u ON u.id = pa.parent_id
WHERE a.category_id = ? AND u.role = 'parent'
ORDER BY pa.parent_id`, categoryID)
}

func (r *RecipientRepository) ParentsOfAthlete(ctx context.Context, athleteID int64) ([]int64, error) {
	return r.ids(ctx, `
SELECT DISTINCT pa.parent_id FROM parent_athlete pa
JOIN users u ON u.id = pa.parent_id
WHERE pa.athlete_id = ? AND u.role = 'parent'
ORDER BY pa.parent_id`, athleteID)
}

func (r *RecipientRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = ?)`, id)
}

func (r *RecipientRepository) AthleteExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM athletes WHERE id = ?)`, id)
}

func (r *RecipientRepository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var out []int64
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecipientRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, args...); err != nil {
		return false, err
	}
	return ok, nil
}
