package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skiclub/models"
)

// ReportRepository upserts coach reports: one team report per (event, coach)
// and one athlete report per (event, athlete, coach).
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) UpsertTeam(ctx context.Context, eventID, coachID int64, content string, now time.Time) (*models.TeamReport, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ts := formatTime(now)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO team_reports (event_id, coach_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (event_id, coach_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		eventID, coachID, content, ts, ts)
	if err != nil {
		return nil, translate(err, "team report")
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, event_id, coach_id, content, created_at, updated_at FROM team_reports WHERE event_id = ? AND coach_id = ?`, eventID, coachID)
	return scanTeamReport(row)
}

func (r *ReportRepository) UpsertAthlete(ctx context.Context, eventID, athleteID, coachID int64, content string, now time.Time) (*models.AthleteReport, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ts := formatTime(now)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO athlete_reports (event_id, athlete_id, coach_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (event_id, athlete_id, coach_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		eventID, athleteID, coachID, content, ts, ts)
	if err != nil {
		return nil, translate(err, "athlete report")
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, event_id, athlete_id, coach_id, content, created_at, updated_at FROM athlete_reports WHERE event_id = ? AND athlete_id = ? AND coach_id = ?`, eventID, athleteID, coachID)
	return scanAthleteReport(row)
}

func (r *ReportRepository) ListTeamByEvent(ctx context.Context, eventID int64) ([]models.TeamReport, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, event_id, coach_id, content, created_at, updated_at FROM team_reports WHERE event_id = ? ORDER BY updated_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.TeamReport
	for rows.Next() {
		rep, err := scanTeamReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) ListAthleteByEvent(ctx context.Context, eventID int64) ([]models.AthleteReport, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, event_id, athlete_id, coach_id, content, created_at, updated_at FROM athlete_reports WHERE event_id = ? ORDER BY athlete_id, updated_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AthleteReport
	for rows.Next() {
		rep, err := scanAthleteReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

func scanTeamReport(row rowScanner) (*models.TeamReport, error) {
	var rep models.TeamReport
	var coach sql.NullInt64
	var created, updated string
	if err := row.Scan(&rep.ID, &rep.EventID, &coach, &rep.Content, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rep.CoachID = nullInt64(coach)
	var err error
	if rep.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rep.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &rep, nil
}

func scanAthleteReport(row rowScanner) (*models.AthleteReport, error) {
	var rep models.AthleteReport
	var coach sql.NullInt64
	var created, updated string
	if err := row.Scan(&rep.ID, &rep.EventID, &rep.AthleteID, &coach, &rep.Content, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rep.CoachID = nullInt64(coach)
	var err error
	if rep.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rep.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &rep, nil
}
