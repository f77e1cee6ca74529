package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"skiclub/models"
	"skiclub/repository"
)

// Roster is what a coach sees for one event: the existing records and their totals.
type Roster struct {
	Event     models.Event `json:"event"`
	Rows      []RosterRow  `json:"rows"`
	Present   int          `json:"present"`
	Absent    int          `json:"absent"`
	Undecided int          `json:"undecided"`
	Skis      int          `json:"skis_in_skiroom"`
	Drivers   int          `json:"drivers"`
	Seats     int          `json:"car_seats"`
}

// RosterRow carries the stored answers as they are; the labels show only
// what the event currently asks for.
type RosterRow struct {
	repository.AttendanceRow
	SkisLabel string `json:"skis_label"`
	CarLabel  string `json:"car_label"`
}

func skisLabel(ev *models.Event, a *models.EventAttendance) string {
	if !ev.AskSkiroom {
		return "N/A"
	}
	return strconv.FormatBool(a.SkisInSkiroom)
}

// carLabel renders the car column: N/A unless the event is a race asking for carpool.
func carLabel(ev *models.Event, a *models.EventAttendance) string {
	switch {
	case !ev.CarpoolApplies():
		return "N/A"
	case a.CarAvailable:
		return fmt.Sprintf("yes (%d seats)", a.CarSeats)
	default:
		return "-"
	}
}

func (s *Service) Roster(ctx context.Context, eventID int64) (*Roster, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	r := &Roster{Event: *ev, Rows: make([]RosterRow, 0, len(rows))}
	for _, row := range rows {
		switch row.Status {
		case models.AttendancePresent:
			r.Present++
		case models.AttendanceAbsent:
			r.Absent++
		default:
			r.Undecided++
		}
		if ev.AskSkiroom && row.SkisInSkiroom {
			r.Skis++
		}
		if ev.CarpoolApplies() && row.CarAvailable {
			r.Drivers++
			r.Seats += row.CarSeats
		}
		r.Rows = append(r.Rows, RosterRow{
			AttendanceRow: row,
			SkisLabel:     skisLabel(ev, &row.EventAttendance),
			CarLabel:      carLabel(ev, &row.EventAttendance),
		})
	}
	return r, nil
}

// Header is the column row of Records and CSV.
var Header = []string{"athlete", "status", "skis_in_skiroom", "car", "car_seats", "updated_at"}

// Records returns the roster as string rows, header first.
func (r *Roster) Records() [][]string {
	out := [][]string{Header}
	carpool := r.Event.CarpoolApplies()
	for _, row := range r.Rows {
		seats := 0
		if carpool && row.CarAvailable {
			seats = row.CarSeats
		}
		updated := ""
		if !row.UpdatedAt.IsZero() {
			updated = row.UpdatedAt.Format("2006-01-02 15:04")
		}
		out = append(out, []string{
			row.AthleteName,
			string(row.Status),
			row.SkisLabel,
			row.CarLabel,
			strconv.Itoa(seats),
			updated,
		})
	}
	return out
}

func (r *Roster) CSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Records()); err != nil {
		return fmt.Errorf("write roster csv: %w", err)
	}
	return nil
}
