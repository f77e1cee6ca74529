package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skiclub/models"
)

// AttendanceRepository stores one row per (event, athlete). The UNIQUE
// constraint on that pair is what keeps concurrent callers from creating twins.
type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// AttendanceRow is an attendance record joined with its athlete's name.
type AttendanceRow struct {
	models.EventAttendance
	AthleteName string `json:"athlete_name"`
}

const attendanceColumns = `ea.id, ea.event_id, ea.athlete_id, ea.status, ea.skis_in_skiroom, ea.car_available, ea.car_seats, ea.updated_by, ea.updated_at`

// Ensure creates the default record for the pair if it is missing and returns
// the stored row. created reports whether this call inserted it.
func (r *AttendanceRepository) Ensure(ctx context.Context, eventID, athleteID int64, now time.Time) (rec *models.EventAttendance, created bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO event_attendance (event_id, athlete_id, updated_at) VALUES (?, ?, ?)
ON CONFLICT (event_id, athlete_id) DO NOTHING`, eventID, athleteID, formatTime(now))
	if err != nil {
		return nil, false, translate(err, "attendance")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	rec, err = r.Get(ctx, eventID, athleteID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		return nil, false, errors.New("attendance row vanished after ensure")
	}
	return rec, n > 0, nil
}

// Save writes every mutable field of the record in a single statement,
// creating the row when it does not exist yet.
func (r *AttendanceRepository) Save(ctx context.Context, a *models.EventAttendance) (*models.EventAttendance, error) {
	if a == nil {
		return nil, errors.New("attendance is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO event_attendance (event_id, athlete_id, status, skis_in_skiroom, car_available, car_seats, updated_by, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (event_id, athlete_id) DO UPDATE SET
    status          = excluded.status,
    skis_in_skiroom = excluded.skis_in_skiroom,
    car_available   = excluded.car_available,
    car_seats       = excluded.car_seats,
    updated_by      = excluded.updated_by,
    updated_at      = excluded.updated_at`,
		a.EventID, a.AthleteID, string(a.Status), a.SkisInSkiroom, a.CarAvailable, a.CarSeats,
		argInt64(a.UpdatedBy), formatTime(a.UpdatedAt))
	if err != nil {
		return nil, translate(err, "attendance")
	}
	return r.Get(ctx, a.EventID, a.AthleteID)
}

func (r *AttendanceRepository) Get(ctx context.Context, eventID, athleteID int64) (*models.EventAttendance, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM event_attendance ea WHERE ea.event_id = ? AND ea.athlete_id = ?`, eventID, athleteID)
	a, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListByEvent returns the existing rows of an event ordered by athlete name.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID int64) ([]AttendanceRow, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT `+attendanceColumns+`, a.name
FROM event_attendance ea
JOIN athletes a ON a.id = ea.athlete_id
WHERE ea.event_id = ?
ORDER BY a.name, a.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttendanceRow
	for rows.Next() {
		var row AttendanceRow
		var status, updatedAt string
		var updatedBy sql.NullInt64
		err := rows.Scan(&row.ID, &row.EventID, &row.AthleteID, &status, &row.SkisInSkiroom, &row.CarAvailable,
			&row.CarSeats, &updatedBy, &updatedAt, &row.AthleteName)
		if err != nil {
			return nil, err
		}
		if err := fillAttendance(&row.EventAttendance, status, updatedBy, updatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *AttendanceRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM event_attendance WHERE event_id = ?`, eventID)
}

func scanAttendance(row rowScanner) (*models.EventAttendance, error) {
	var a models.EventAttendance
	var status, updatedAt string
	var updatedBy sql.NullInt64
	if err := row.Scan(&a.ID, &a.EventID, &a.AthleteID, &status, &a.SkisInSkiroom, &a.CarAvailable, &a.CarSeats, &updatedBy, &updatedAt); err != nil {
		return nil, err
	}
	if err := fillAttendance(&a, status, updatedBy, updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func fillAttendance(a *models.EventAttendance, status string, updatedBy sql.NullInt64, updatedAt string) error {
	t, err := parseTime(updatedAt)
	if err != nil {
		return err
	}
	a.Status = models.AttendanceStatus(status)
	a.UpdatedBy = nullInt64(updatedBy)
	a.UpdatedAt = t
	return nil
}
