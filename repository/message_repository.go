package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"skiclub/models"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, sender_id, category_id, athlete_id, title, content, created_at`

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m == nil {
		return nil, errors.New("message is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO messages (sender_id, category_id, athlete_id, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		argInt64(m.SenderID), argInt64(m.CategoryID), argInt64(m.AthleteID), m.Title, m.Content, formatTime(m.CreatedAt))
	if err != nil {
		return nil, translate(err, "message")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	return &out, nil
}

// ListBySender returns the newest messages sent by a user.
func (r *MessageRepository) ListBySender(ctx context.Context, senderID int64, limit int) ([]models.Message, error) {
	return r.list(ctx, `SELECT `+messageColumns+` FROM messages WHERE sender_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, senderID, clampLimit(limit))
}

// ListVisible returns the newest messages a parent can read: club-wide ones,
// those for one of categoryIDs, and those personal to one of athleteIDs.
// A message carrying an athlete is personal even if it also names a category.
func (r *MessageRepository) ListVisible(ctx context.Context, athleteIDs, categoryIDs []int64, limit int) ([]models.Message, error) {
	conds := []string{`(athlete_id IS NULL AND category_id IS NULL)`}
	var args []any
	if len(categoryIDs) > 0 {
		conds = append(conds, `(athlete_id IS NULL AND category_id IN (?))`)
		args = append(args, categoryIDs)
	}
	if len(athleteIDs) > 0 {
		conds = append(conds, `athlete_id IN (?)`)
		args = append(args, athleteIDs)
	}
	args = append(args, clampLimit(limit))
	query, args, err := sqlx.In(`SELECT `+messageColumns+` FROM messages WHERE `+strings.Join(conds, ` OR `)+` ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, sqlx.Rebind(sqlx.QUESTION, query), args...)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Message
	for rows.Next() {
		var m models.Message
		var sender, cat, ath sql.NullInt64
		var created string
		if err := rows.Scan(&m.ID, &sender, &cat, &ath, &m.Title, &m.Content, &created); err != nil {
			return nil, err
		}
		t, err := parseTime(created)
		if err != nil {
			return nil, err
		}
		m.SenderID, m.CategoryID, m.AthleteID, m.CreatedAt = nullInt64(sender), nullInt64(cat), nullInt64(ath), t
		out = append(out, m)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
