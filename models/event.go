package models

import "time"

// EventType distinguishes trainings from races. Carpool requests only apply to races.
type EventType string

const (
	EventTypeTraining EventType = "training"
	EventTypeRace     EventType = "race"
)

func (t EventType) Valid() bool {
	return t == EventTypeTraining || t == EventTypeRace
}

// DateLayout is the storage and wire format of Event.Date.
const DateLayout = "2006-01-02"

// Event belongs to exactly one category. AskSkiroom and AskCarpool are set by
// coaches and decide which logistics fields parents are asked to fill.
type Event struct {
	ID          int64     `db:"id" json:"id"`
	Type        EventType `db:"type" json:"type"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Location    string    `db:"location" json:"location,omitempty"`
	Date        time.Time `db:"date" json:"date"`
	AskSkiroom  bool      `db:"ask_skiroom" json:"ask_skiroom"`
	AskCarpool  bool      `db:"ask_carpool" json:"ask_carpool"`
}

func (e *Event) IsRace() bool { return e.Type == EventTypeRace }

// CarpoolApplies reports whether parents are asked for car availability.
func (e *Event) CarpoolApplies() bool { return e.IsRace() && e.AskCarpool }

// Upcoming reports whether the event takes place on or after the UTC day of now.
func (e *Event) Upcoming(now time.Time) bool {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !e.Date.Before(today)
}
