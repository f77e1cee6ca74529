package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"skiclub/internal/auth"
	"skiclub/internal/club"
	"skiclub/internal/notify"
	"skiclub/internal/push/stub"
	"skiclub/internal/seed"
	"skiclub/internal/testutil"
	"skiclub/models"
	"skiclub/repository"
)

const testSecret = "test-secret"

type fakeExporter struct {
	tab     string
	records [][]string
	err     error
}

func (f *fakeExporter) ExportRoster(_ context.Context, tab string, records [][]string) (string, error) {
	f.tab, f.records = tab, records
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("'%s'!A1:F%d", tab, len(records)), nil
}

type testEnv struct {
	app  *fiber.App
	demo *seed.Demo
	gw   *stub.Gateway
}

func newTestEnv(t *testing.T, name string, exporter Exporter) testEnv {
	t.Helper()
	d, demo := testutil.OpenSeededDB(t, name, time.Now())
	gw := stub.New()
	svc := club.New(d, notify.NewDispatcher(repository.NewDeviceTokenRepository(d), gw, time.Second))
	app, err := New(svc, Options{JWTSecret: testSecret, SessionTTL: time.Hour, Sheets: exporter}).App()
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	return testEnv{app: app, demo: demo, gw: gw}
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, u, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

type call struct {
	method, path string
	body         any
	as           *models.User
	html         bool
}

func (e testEnv) do(t *testing.T, c call) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if c.as != nil {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, c.as))
	}
	if c.html {
		req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func expectStatus(t *testing.T, resp *http.Response, raw []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, raw)
	}
}

func TestLogin_TokenAndCookie(t *testing.T) {
	e := newTestEnv(t, "http_login", nil)

	resp, raw := e.do(t, call{method: http.MethodPost, path: "/session", body: map[string]any{"user_id": e.demo.Parent1.ID}})
	expectStatus(t, resp, raw, http.StatusOK)
	if body := decode(t, raw); body["token"] == "" || body["role"] != "parent" {
		t.Fatalf("unexpected login body: %v", body)
	}
	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie {
			session = ck
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected an http-only session cookie, got %v", resp.Cookies())
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session.Value})
	dash, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.StatusCode != http.StatusOK {
		t.Fatalf("cookie session rejected: %d", dash.StatusCode)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	e := newTestEnv(t, "http_login_unknown", nil)
	resp, raw := e.do(t, call{method: http.MethodPost, path: "/session", body: map[string]any{"user_id": 999}})
	expectStatus(t, resp, raw, http.StatusNotFound)
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "application/problem+json") {
		t.Fatalf("expected problem+json, got %q", ct)
	}
	if body := decode(t, raw); body["type"] != "urn:skiclub:problem:not-found" {
		t.Fatalf("unexpected problem: %v", body)
	}
}

func TestIndex_ListsUsers(t *testing.T) {
	e := newTestEnv(t, "http_index", nil)
	resp, raw := e.do(t, call{method: http.MethodGet, path: "/", html: true})
	expectStatus(t, resp, raw, http.StatusOK)
	if !strings.Contains(string(raw), "Luca Coach") || !strings.Contains(string(raw), `action="/session"`) {
		t.Fatalf("user picker misses users: %s", raw)
	}
}

func TestDashboard_DispatchesOnRole(t *testing.T) {
	e := newTestEnv(t, "http_dashboard", nil)
	for _, tc := range []struct {
		user *models.User
		key  string
	}{
		{e.demo.Admin, "stats"},
		{e.demo.CoachLuca, "rosters"},
		{e.demo.Parent1, "events"},
	} {
		resp, raw := e.do(t, call{method: http.MethodGet, path: "/dashboard", as: tc.user})
		expectStatus(t, resp, raw, http.StatusOK)
		body := decode(t, raw)
		if _, ok := body[tc.key]; !ok || body["role"] != string(tc.user.Role) {
			t.Fatalf("%s dashboard: expected key %q, got %v", tc.user.Role, tc.key, body)
		}
	}

	resp, raw := e.do(t, call{method: http.MethodGet, path: "/dashboard", as: e.demo.CoachLuca})
	expectStatus(t, resp, raw, http.StatusOK)
	if rosters := decode(t, raw)["rosters"].([]any); len(rosters) != 2 {
		t.Fatalf("Luca coaches U10 with two trainings, got %d rosters", len(rosters))
	}
}

func TestDashboard_RendersHTML(t *testing.T) {
	e := newTestEnv(t, "http_dashboard_html", nil)
	resp, raw := e.do(t, call{method: http.MethodGet, path: "/dashboard", as: e.demo.Parent1, html: true})
	expectStatus(t, resp, raw, http.StatusOK)
	page := string(raw)
	for _, want := range []string{"Genitore Noah", "Allenamento GS Antagnod", "Gara Regionale SL", "Seth Favre"} {
		if !strings.Contains(page, want) {
			t.Fatalf("parent dashboard misses %q:\n%s", want, page)
		}
	}

	resp, raw = e.do(t, call{method: http.MethodGet, path: "/dashboard", as: e.demo.CoachLuca, html: true})
	expectStatus(t, resp, raw, http.StatusOK)
	if !strings.Contains(string(raw), "Juno Favre") || !strings.Contains(string(raw), "N/A") {
		t.Fatalf("coach dashboard misses roster rows:\n%s", raw)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	e := newTestEnv(t, "http_unauth", nil)

	resp, raw := e.do(t, call{method: http.MethodGet, path: "/inbox"})
	expectStatus(t, resp, raw, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/inbox", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")
	bad, err := e.app.Test(req, -1)
	if err != nil || bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %v %v", bad.StatusCode, err)
	}

	resp, raw = e.do(t, call{method: http.MethodGet, path: "/dashboard", html: true})
	expectStatus(t, resp, raw, http.StatusFound)
	if loc := resp.Header.Get(fiber.HeaderLocation); loc != "/" {
		t.Fatalf("browser should go back to the picker, got %q", loc)
	}
}

func TestErrors_MapToStatus(t *testing.T) {
	e := newTestEnv(t, "http_errors", nil)

	path := fmt.Sprintf("/events/%d/logistics", e.demo.Race.ID)
	resp, raw := e.do(t, call{method: http.MethodPut, path: path, body: map[string]any{"ask_carpool": true}, as: e.demo.CoachLuca})
	expectStatus(t, resp, raw, http.StatusForbidden)
	if body := decode(t, raw); body["type"] != "urn:skiclub:problem:forbidden" {
		t.Fatalf("unexpected problem: %v", body)
	}

	resp, raw = e.do(t, call{method: http.MethodGet, path: "/events/abc/roster", as: e.demo.Admin})
	expectStatus(t, resp, raw, http.StatusBadRequest)

	resp, raw = e.do(t, call{method: http.MethodPost, path: "/messages", body: map[string]any{"title": "", "content": "x"}, as: e.demo.Admin})
	expectStatus(t, resp, raw, http.StatusBadRequest)

	resp, raw = e.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/admin/categories/%d", e.demo.U14.ID), as: e.demo.Admin})
	expectStatus(t, resp, raw, http.StatusConflict)
}

func TestRosterCSV(t *testing.T) {
	e := newTestEnv(t, "http_roster_csv", nil)
	resp, raw := e.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/events/%d/roster.csv", e.demo.TrainingGS.ID), as: e.demo.CoachLuca})
	expectStatus(t, resp, raw, http.StatusOK)
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 || lines[0] != "athlete,status,skis_in_skiroom,car,car_seats,updated_at" {
		t.Fatalf("unexpected csv:\n%s", raw)
	}
}

func TestRosterSheets(t *testing.T) {
	e := newTestEnv(t, "http_sheets_disabled", nil)
	path := fmt.Sprintf("/events/%d/roster/sheets", e.demo.Race.ID)
	resp, raw := e.do(t, call{method: http.MethodPost, path: path, as: e.demo.CoachSara})
	expectStatus(t, resp, raw, http.StatusServiceUnavailable)

	exp := &fakeExporter{}
	e = newTestEnv(t, "http_sheets", exp)
	resp, raw = e.do(t, call{method: http.MethodPost, path: path, as: e.demo.CoachSara})
	expectStatus(t, resp, raw, http.StatusOK)
	wantTab := e.demo.Race.Date.Format(models.DateLayout) + " Gara Regionale SL"
	if exp.tab != wantTab || len(exp.records) != 2 || exp.records[1][0] != "Seth Favre" {
		t.Fatalf("unexpected export: tab %q records %v", exp.tab, exp.records)
	}

	exp.err = errors.New("quota exceeded")
	resp, raw = e.do(t, call{method: http.MethodPost, path: path, as: e.demo.CoachSara})
	expectStatus(t, resp, raw, http.StatusBadGateway)
}

func TestMessage_NotifiesAndRendersMarkdown(t *testing.T) {
	e := newTestEnv(t, "http_message", nil)

	resp, raw := e.do(t, call{method: http.MethodPost, path: "/devices", body: map[string]any{"platform": "web", "token": "p1-browser"}, as: e.demo.Parent1})
	expectStatus(t, resp, raw, http.StatusCreated)

	resp, raw = e.do(t, call{method: http.MethodPost, path: "/messages", as: e.demo.CoachSara, body: map[string]any{
		"title": "Gara", "content": "Portare il **casco**", "category_id": e.demo.U14.ID,
	}})
	expectStatus(t, resp, raw, http.StatusCreated)
	note := decode(t, raw)["notification"].(map[string]any)
	if note["status"] != "sent" || note["delivered"] != float64(1) {
		t.Fatalf("unexpected notification: %v", note)
	}
	if sent := e.gw.Sent(); len(sent) != 1 || sent[0].Token != "p1-browser" {
		t.Fatalf("unexpected deliveries: %+v", sent)
	}

	resp, raw = e.do(t, call{method: http.MethodGet, path: "/inbox", as: e.demo.Parent1})
	expectStatus(t, resp, raw, http.StatusOK)
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0]["html"].(string), "<strong>casco</strong>") {
		t.Fatalf("unexpected inbox: %v", items)
	}
	if _, raw := e.do(t, call{method: http.MethodGet, path: "/inbox", as: e.demo.Parent2}); strings.Contains(string(raw), "casco") {
		t.Fatalf("parent2 has no child in U14: %s", raw)
	}

	resp, raw = e.do(t, call{method: http.MethodDelete, path: "/devices", body: map[string]any{"token": "p1-browser"}, as: e.demo.Parent1})
	expectStatus(t, resp, raw, http.StatusNoContent)
}

func TestUpdateAttendance(t *testing.T) {
	e := newTestEnv(t, "http_attendance", nil)
	path := fmt.Sprintf("/events/%d/attendance/%d", e.demo.Race.ID, e.demo.Seth.ID)

	resp, raw := e.do(t, call{method: http.MethodPut, path: path, body: map[string]any{"status": "present", "car_available": true, "car_seats": 3}, as: e.demo.Parent1})
	expectStatus(t, resp, raw, http.StatusOK)
	body := decode(t, raw)
	if body["status"] != "present" || body["car_available"] != false {
		t.Fatalf("carpool is not requested on the race yet, car must be dropped: %v", body)
	}

	resp, raw = e.do(t, call{method: http.MethodPut, path: path, body: map[string]any{"status": "absent"}, as: e.demo.Parent2})
	expectStatus(t, resp, raw, http.StatusForbidden)

	resp, raw = e.do(t, call{method: http.MethodPut, path: path, body: map[string]any{"status": "maybe"}, as: e.demo.Parent1})
	expectStatus(t, resp, raw, http.StatusBadRequest)
}

func TestAdmin_CreateEventWithAttendance(t *testing.T) {
	e := newTestEnv(t, "http_admin_event", nil)
	date := time.Now().UTC().AddDate(0, 0, 7).Format(models.DateLayout)

	resp, raw := e.do(t, call{method: http.MethodPost, path: "/admin/events?generate_attendance=1", as: e.demo.Admin, body: map[string]any{
		"type": "training", "category_id": e.demo.U10.ID, "title": "Allenamento extra", "date": date,
	}})
	expectStatus(t, resp, raw, http.StatusCreated)
	if n := decode(t, raw)["attendance_created"]; n != float64(2) {
		t.Fatalf("expected 2 attendance rows, got %v", n)
	}

	resp, raw = e.do(t, call{method: http.MethodPost, path: "/admin/events", as: e.demo.CoachLuca, body: map[string]any{
		"type": "training", "category_id": e.demo.U10.ID, "title": "x", "date": date,
	}})
	expectStatus(t, resp, raw, http.StatusForbidden)

	resp, raw = e.do(t, call{method: http.MethodGet, path: "/admin/stats", as: e.demo.Admin})
	expectStatus(t, resp, raw, http.StatusOK)
	if st := decode(t, raw); st["events"] != float64(4) {
		t.Fatalf("unexpected stats: %v", st)
	}
}
