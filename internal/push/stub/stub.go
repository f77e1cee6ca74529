// Package stub is a gateway that only logs. Tokens listed as rejected are
// reported invalid, which makes partial failures reproducible in development.
package stub

import (
	"context"
	"log"
	"strings"
	"sync"

	"skiclub/internal/push"
)

type Delivery struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Gateway struct {
	reject map[string]struct{}

	mu   sync.Mutex
	sent []Delivery
}

func New(reject ...string) *Gateway {
	g := &Gateway{reject: map[string]struct{}{}}
	for _, tok := range reject {
		if tok = strings.TrimSpace(tok); tok != "" {
			g.reject[tok] = struct{}{}
		}
	}
	return g
}

func (g *Gateway) Name() string { return "stub" }

func (g *Gateway) Send(ctx context.Context, devices []push.Device, n push.Notification) ([]push.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]push.Outcome, 0, len(devices))
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range devices {
		if _, bad := g.reject[d.Token]; bad {
			out = append(out, push.Outcome{Token: d.Token, Err: push.ErrInvalidToken})
			continue
		}
		g.sent = append(g.sent, Delivery{Token: d.Token, Title: n.Title, Body: n.Body, Data: n.Data})
		out = append(out, push.Outcome{Token: d.Token})
	}
	log.Printf("stub push %q: %d devices", n.Title, len(devices))
	return out, nil
}

// Sent returns a copy of every delivery so far.
func (g *Gateway) Sent() []Delivery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Delivery(nil), g.sent...)
}
