package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"skiclub/internal/push"
	"skiclub/internal/push/stub"
	"skiclub/internal/testutil"
	"skiclub/models"
	"skiclub/repository"
)

type fixture struct {
	tokens *repository.DeviceTokenRepository
	p1, p2 int64
}

func newFixture(t *testing.T, name string) fixture {
	t.Helper()
	d, demo := testutil.OpenSeededDB(t, name, time.Now())
	return fixture{tokens: repository.NewDeviceTokenRepository(d), p1: demo.Parent1.ID, p2: demo.Parent2.ID}
}

func (f fixture) register(t *testing.T, user int64, platform, token string, at time.Time) *models.DeviceToken {
	t.Helper()
	tok, err := f.tokens.Register(context.Background(), user, platform, token, at)
	if err != nil {
		t.Fatalf("register %s: %v", token, err)
	}
	return tok
}

func TestDispatch_Disabled(t *testing.T) {
	f := newFixture(t, "notify_disabled")
	res := NewDispatcher(f.tokens, nil, 0).Dispatch(context.Background(), []int64{f.p1}, "t", "b", nil)
	if res.Status != StatusDisabled || res.Delivered != 0 || res.Diagnostic == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	empty := NewDispatcher(f.tokens, push.NewRouter(nil), 0)
	if empty.Enabled() {
		t.Fatalf("a router without routes should leave notifications disabled")
	}
}

func TestDispatch_NoRecipients(t *testing.T) {
	f := newFixture(t, "notify_norecipients")
	d := NewDispatcher(f.tokens, stub.New(), time.Second)

	if res := d.Dispatch(context.Background(), nil, "t", "b", nil); res.Status != StatusNoRecipients {
		t.Fatalf("empty user list: %+v", res)
	}
	// Parents exist but registered no device.
	res := d.Dispatch(context.Background(), []int64{f.p1, f.p2}, "t", "b", nil)
	if res.Status != StatusNoRecipients || res.Delivered != 0 || res.Total != 0 {
		t.Fatalf("users without tokens: %+v", res)
	}
}

func TestDispatch_PartialFailureAndTouch(t *testing.T) {
	f := newFixture(t, "notify_partial")
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	good := f.register(t, f.p1, models.PlatformWeb, "good-token", old)
	bad := f.register(t, f.p2, models.PlatformAndroid, "expired-token", old)
	gw := stub.New("expired-token")
	d := NewDispatcher(f.tokens, gw, time.Second)

	res := d.Dispatch(context.Background(), []int64{f.p1, f.p2, f.p1}, "Nuovo messaggio", "ciao", map[string]string{"kind": "message"})
	if res.Status != StatusPartial || res.Delivered != 1 || res.Total != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Failures) != 1 || res.Failures[0].Token != "expired-token" || res.Failures[0].Reason != "invalid token" {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if res.Diagnostic != "1 sent, 1 failed" {
		t.Fatalf("unexpected diagnostic %q", res.Diagnostic)
	}
	sent := gw.Sent()
	if len(sent) != 1 || sent[0].Data["dispatch_id"] != res.DispatchID || sent[0].Data["kind"] != "message" {
		t.Fatalf("metadata not forwarded: %+v", sent)
	}

	list, err := f.tokens.ListByUsers(context.Background(), []int64{f.p1, f.p2})
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	for _, tok := range list {
		switch tok.ID {
		case good.ID:
			if !tok.LastUsedAt.After(old) {
				t.Fatalf("delivered token not touched: %v", tok.LastUsedAt)
			}
		case bad.ID:
			if !tok.LastUsedAt.Equal(old) {
				t.Fatalf("failed token must not be touched: %v", tok.LastUsedAt)
			}
		}
	}
}

type brokenGateway struct{}

func (brokenGateway) Name() string { return "broken" }

func (brokenGateway) Send(context.Context, []push.Device, push.Notification) ([]push.Outcome, error) {
	return nil, errors.New("connection refused")
}

type slowGateway struct{}

func (slowGateway) Name() string { return "slow" }

func (slowGateway) Send(ctx context.Context, devices []push.Device, _ push.Notification) ([]push.Outcome, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDispatch_TransportErrorFailsEveryToken(t *testing.T) {
	f := newFixture(t, "notify_transport")
	f.register(t, f.p1, "", "a", time.Now())
	f.register(t, f.p1, "", "b", time.Now())

	res := NewDispatcher(f.tokens, brokenGateway{}, time.Second).Dispatch(context.Background(), []int64{f.p1}, "t", "b", nil)
	if res.Status != StatusFailed || res.Delivered != 0 || res.Total != 2 || len(res.Failures) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Diagnostic, "connection refused") {
		t.Fatalf("diagnostic should carry the cause: %q", res.Diagnostic)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	f := newFixture(t, "notify_timeout")
	f.register(t, f.p2, "", "slow-token", time.Now())

	start := time.Now()
	res := NewDispatcher(f.tokens, slowGateway{}, 50*time.Millisecond).Dispatch(context.Background(), []int64{f.p2}, "t", "b", nil)
	if time.Since(start) > 2*time.Second {
		t.Fatalf("dispatch did not honour its timeout")
	}
	if res.Status != StatusFailed || len(res.Failures) != 1 || res.Failures[0].Reason != "timeout" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestComposers(t *testing.T) {
	cat := int64(1)
	n := ForMessage(&models.Message{ID: 7, CategoryID: &cat, Title: "Uscita", Content: strings.Repeat("neve ", 60)})
	if n.Meta["target"] != "category" || n.Meta["message_id"] != "7" {
		t.Fatalf("unexpected message meta: %+v", n.Meta)
	}
	if b := ForMessage(&models.Message{ID: 8, Title: "Tutti"}); b.Meta["target"] != "club" {
		t.Fatalf("club-wide message meta: %+v", b.Meta)
	}
	if !strings.HasSuffix(n.Body, "…") || len([]rune(n.Body)) > maxBody+1 {
		t.Fatalf("body not shortened: %q", n.Body)
	}

	ev := &models.Event{ID: 3, Title: "Gara Regionale SL", Type: models.EventTypeRace, Date: time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)}
	l := ForLogistics(ev, false, true)
	if l.Meta["ask_carpool"] != "true" || !strings.Contains(l.Body, "2030-02-01") || !strings.Contains(l.Body, "seats") {
		t.Fatalf("unexpected logistics notice: %+v", l)
	}
	r := ForAthleteReport(ev, &models.Athlete{ID: 9, Name: "Seth Favre"}, &models.AthleteReport{ID: 2, Content: "Ottima gara"})
	if !strings.Contains(r.Title, "Seth Favre") || r.Meta["athlete_id"] != "9" {
		t.Fatalf("unexpected athlete report notice: %+v", r)
	}
}
