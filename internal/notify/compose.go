package notify

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"skiclub/models"
)

// Notice is a composed notification ready for Dispatch.
type Notice struct {
	Title string
	Body  string
	Meta  map[string]string
}

const maxBody = 160

func ForMessage(m *models.Message) Notice {
	target := "category"
	switch {
	case m.IsBroadcast():
		target = "club"
	case m.AthleteID != nil:
		target = "athlete"
	}
	return Notice{
		Title: m.Title,
		Body:  excerpt(m.Content),
		Meta:  map[string]string{"kind": "message", "message_id": id(m.ID), "target": target},
	}
}

func ForTeamReport(ev *models.Event, rep *models.TeamReport) Notice {
	return Notice{
		Title: "Report: " + ev.Title,
		Body:  excerpt(rep.Content),
		Meta:  map[string]string{"kind": "team_report", "event_id": id(ev.ID), "report_id": id(rep.ID)},
	}
}

func ForAthleteReport(ev *models.Event, athlete *models.Athlete, rep *models.AthleteReport) Notice {
	return Notice{
		Title: "Report for " + athlete.Name + ": " + ev.Title,
		Body:  excerpt(rep.Content),
		Meta: map[string]string{"kind": "athlete_report", "event_id": id(ev.ID), "athlete_id": id(athlete.ID),
			"report_id": id(rep.ID)},
	}
}

// ForLogistics announces the requests a coach just switched on for ev.
func ForLogistics(ev *models.Event, skiroom, carpool bool) Notice {
	var asks []string
	if skiroom {
		asks = append(asks, "tell us whether the skis stay in the ski-room")
	}
	if carpool {
		asks = append(asks, "tell us whether you can drive and how many seats you have")
	}
	body := ev.Date.Format(models.DateLayout) + " · " + ev.Title
	if len(asks) > 0 {
		body += ": please " + strings.Join(asks, " and ")
	}
	return Notice{
		Title: "Logistics: " + ev.Title,
		Body:  body,
		Meta: map[string]string{"kind": "logistics", "event_id": id(ev.ID),
			"ask_skiroom": strconv.FormatBool(skiroom), "ask_carpool": strconv.FormatBool(carpool)},
	}
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// excerpt shortens s to maxBody runes on a word boundary when possible.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxBody {
		return s
	}
	runes := []rune(s)[:maxBody]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > maxBody/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
