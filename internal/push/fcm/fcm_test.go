package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"

	"skiclub/internal/config"
	"skiclub/internal/push"
)

func TestGateway_Send(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/demo/messages:send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Message struct {
				Token string            `json:"token"`
				Data  map[string]string `json:"data"`
			} `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		seen = append(seen, body.Message.Token)
		w.Header().Set("Content-Type", "application/json")
		if body.Message.Token == "expired" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"projects/demo/messages/1"}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), config.FCMConfig{ProjectID: "demo", Endpoint: srv.URL + "/"},
		option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	out, err := g.Send(context.Background(), []push.Device{{Token: "good"}, {Token: "expired"}},
		push.Notification{Title: "Nuovo messaggio", Body: "ciao", Data: map[string]string{"kind": "message"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(out) != 2 || out[0].Err != nil {
		t.Fatalf("expected first token delivered: %+v", out)
	}
	if !errors.Is(out[1].Err, push.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", out[1].Err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected two requests, got %v", seen)
	}
}

func TestGateway_CancelledContext(t *testing.T) {
	g, err := New(context.Background(), config.FCMConfig{ProjectID: "demo", Endpoint: "http://127.0.0.1:1/"}, option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, _ := g.Send(ctx, []push.Device{{Token: "a"}}, push.Notification{})
	if len(out) != 1 || !errors.Is(out[0].Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %+v", out)
	}
}

func TestNew_RequiresProject(t *testing.T) {
	if _, err := New(context.Background(), config.FCMConfig{}); err == nil {
		t.Fatalf("expected error without project id")
	}
}
