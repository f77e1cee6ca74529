// Package repository holds the database/sql repositories of the club schema.
// Lookups return (nil, nil) when the row does not exist; callers decide
// whether that is an error.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"skiclub/models"
)

const (
	queryTimeout = 3 * time.Second
	listTimeout  = 5 * time.Second
)

// formatTime renders t the way timestamps are stored: RFC 3339, UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	x := v.Int64
	return &x
}

func argInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// translate maps SQLite constraint failures onto the shared sentinel errors.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT is reported as a trigger constraint.
			return fmt.Errorf("%w: %s references a missing or still-used record", models.ErrConflict, what)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %s has an invalid field", models.ErrValidation, what)
		default:
			return fmt.Errorf("%w: %s violates a constraint", models.ErrConflict, what)
		}
	}
	return err
}

// affected turns a zero-row update or delete into models.ErrNotFound.
func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	}
	return nil
}
