package models

import "time"

const (
	PlatformWeb      = "web"
	PlatformAndroid  = "android"
	PlatformIOS      = "ios"
	PlatformTelegram = "telegram"
)

// DeviceToken is a push endpoint registered by one of a user's devices.
// Token is globally unique; a user may own several.
type DeviceToken struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"-"`
	Platform   string    `db:"platform" json:"platform"`
	Token      string    `db:"token" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastUsedAt time.Time `db:"last_used_at" json:"last_used_at"`
}
