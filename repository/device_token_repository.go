package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"skiclub/models"
)

// DeviceTokenRepository uses sqlx for the IN-list lookups done by the
// dispatcher on every notification.
type DeviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sql.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: sqlx.NewDb(db, "sqlite3")}
}

type deviceTokenRow struct {
	ID         int64         `db:"id"`
	UserID     sql.NullInt64 `db:"user_id"`
	Platform   string        `db:"platform"`
	Token      string        `db:"token"`
	CreatedAt  string        `db:"created_at"`
	LastUsedAt string        `db:"last_used_at"`
}

func (row deviceTokenRow) model() (models.DeviceToken, error) {
	out := models.DeviceToken{ID: row.ID, UserID: nullInt64(row.UserID), Platform: row.Platform, Token: row.Token}
	var err error
	if out.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return out, err
	}
	if out.LastUsedAt, err = parseTime(row.LastUsedAt); err != nil {
		return out, err
	}
	return out, nil
}

// Register stores token for userID. A token already known is moved to
// userID and its platform refreshed, since a device can change hands.
func (r *DeviceTokenRepository) Register(ctx context.Context, userID int64, platform, token string, now time.Time) (*models.DeviceToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", models.ErrValidation)
	}
	if platform == "" {
		platform = models.PlatformWeb
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ts := formatTime(now)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO device_tokens (user_id, platform, token, created_at, last_used_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET user_id = excluded.user_id, platform = excluded.platform, last_used_at = excluded.last_used_at`,
		userID, platform, token, ts, ts)
	if err != nil {
		return nil, translate(err, "device token")
	}
	var row deviceTokenRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, user_id, platform, token, created_at, last_used_at FROM device_tokens WHERE token = ?`, token); err != nil {
		return nil, err
	}
	out, err := row.model()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes token when it belongs to userID.
func (r *DeviceTokenRepository) Delete(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = ? AND token = ?`, userID, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	return affected(res, "device token")
}

// ListByUsers returns every token owned by one of userIDs.
func (r *DeviceTokenRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]models.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, platform, token, created_at, last_used_at FROM device_tokens WHERE user_id IN (?) ORDER BY id`, userIDs)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var rows []deviceTokenRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]models.DeviceToken, 0, len(rows))
	for _, row := range rows {
		t, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Touch refreshes last_used_at for the given token ids.
func (r *DeviceTokenRepository) Touch(ctx context.Context, ids []int64, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE device_tokens SET last_used_at = ? WHERE id IN (?)`, formatTime(now), ids)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}
