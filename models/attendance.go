package models

import "time"

// AttendanceStatus is a parent's answer for one athlete and one event.
type AttendanceStatus string

const (
	AttendanceUndecided AttendanceStatus = "undecided"
	AttendancePresent   AttendanceStatus = "present"
	AttendanceAbsent    AttendanceStatus = "absent"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceUndecided, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}

// EventAttendance is the single row per (EventID, AthleteID).
// CarSeats is only meaningful when CarAvailable is set on a race with a carpool request.
type EventAttendance struct {
	ID            int64            `db:"id" json:"id"`
	EventID       int64            `db:"event_id" json:"event_id"`
	AthleteID     int64            `db:"athlete_id" json:"athlete_id"`
	Status        AttendanceStatus `db:"status" json:"status"`
	SkisInSkiroom bool             `db:"skis_in_skiroom" json:"skis_in_skiroom"`
	CarAvailable  bool             `db:"car_available" json:"car_available"`
	CarSeats      int              `db:"car_seats" json:"car_seats"`
	UpdatedBy     *int64           `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
