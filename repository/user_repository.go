package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"skiclub/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. An empty email is stored as NULL so that several
// users without email do not collide on the unique index.
func (r *UserRepository) Create(ctx context.Context, name, email string, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var emailArg any
	if e := strings.TrimSpace(email); e != "" {
		emailArg = e
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (name, email, role) VALUES (?, ?, ?)`, name, emailArg, string(role))
	if err != nil {
		return nil, translate(err, "user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT id, name, email, role, created_at FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// List returns every user ordered by role then name, as shown in the user picker.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, role, created_at FROM users ORDER BY role, name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return translate(err, "user")
	}
	return affected(res, "user")
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var email sql.NullString
	var role string
	if err := row.Scan(&u.ID, &u.Name, &email, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		e := email.String
		u.Email = &e
	}
	u.Role = models.Role(role)
	return &u, nil
}

func count(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
