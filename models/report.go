package models

import "time"

// TeamReport is one coach note per (EventID, CoachID).
type TeamReport struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	CoachID   *int64    `db:"coach_id" json:"coach_id,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AthleteReport is one coach note per (EventID, AthleteID, CoachID).
type AthleteReport struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	AthleteID int64     `db:"athlete_id" json:"athlete_id"`
	CoachID   *int64    `db:"coach_id" json:"coach_id,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
