package models

import "time"

// Message is a communication from a coach or admin to parents.
// Targeting: AthleteID set means personal, else CategoryID set means the
// category, else club-wide. When both are set the athlete wins.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	SenderID   *int64    `db:"sender_id" json:"sender_id,omitempty"`
	CategoryID *int64    `db:"category_id" json:"category_id,omitempty"`
	AthleteID  *int64    `db:"athlete_id" json:"athlete_id,omitempty"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// IsBroadcast reports whether the message reaches the whole club.
func (m *Message) IsBroadcast() bool { return m.AthleteID == nil && m.CategoryID == nil }
