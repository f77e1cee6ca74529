// Package notify turns a set of recipients into push deliveries. Dispatch
// never fails: every expected failure is folded into the Result.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"skiclub/internal/push"
	"skiclub/models"
)

type Status string

const (
	StatusSent         Status = "sent"
	StatusPartial      Status = "partial"
	StatusFailed       Status = "failed"
	StatusNoRecipients Status = "no_recipients"
	StatusDisabled     Status = "disabled"
)

type Failure struct {
	Token  string `json:"-"`
	Reason string `json:"reason"`
}

type Result struct {
	DispatchID string    `json:"dispatch_id,omitempty"`
	Status     Status    `json:"status"`
	Delivered  int       `json:"delivered"`
	Total      int       `json:"total"`
	Failures   []Failure `json:"failures,omitempty"`
	Diagnostic string    `json:"diagnostic"`
}

// Tokens is the device-token store used by the dispatcher.
type Tokens interface {
	ListByUsers(ctx context.Context, userIDs []int64) ([]models.DeviceToken, error)
	Touch(ctx context.Context, ids []int64, now time.Time) error
}

type Dispatcher struct {
	tokens  Tokens
	gateway push.Gateway
	timeout time.Duration
	now     func() time.Time
}

// NewDispatcher builds a dispatcher. A nil gateway or a router without routes
// means notifications are not configured and every dispatch reports StatusDisabled.
func NewDispatcher(tokens Tokens, gateway push.Gateway, timeout time.Duration) *Dispatcher {
	if r, ok := gateway.(*push.Router); ok && r.Empty() {
		gateway = nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{tokens: tokens, gateway: gateway, timeout: timeout, now: time.Now}
}

// Enabled reports whether a gateway is configured.
func (d *Dispatcher) Enabled() bool { return d != nil && d.gateway != nil }

// Dispatch sends title and body to every device of userIDs.
func (d *Dispatcher) Dispatch(ctx context.Context, userIDs []int64, title, body string, meta map[string]string) Result {
	res := Result{DispatchID: uuid.NewString()}
	if !d.Enabled() {
		res.Status = StatusDisabled
		res.Diagnostic = "notifications are not configured"
		return res
	}
	if len(userIDs) == 0 {
		res.Status = StatusNoRecipients
		res.Diagnostic = "no recipients"
		return res
	}

	stored, err := d.tokens.ListByUsers(ctx, userIDs)
	if err != nil {
		log.Printf("notify %s: list tokens: %v", res.DispatchID, err)
		res.Status = StatusFailed
		res.Diagnostic = fmt.Sprintf("could not load device tokens: %v", err)
		return res
	}
	devices := uniqueDevices(stored)
	if len(devices) == 0 {
		res.Status = StatusNoRecipients
		res.Diagnostic = fmt.Sprintf("no registered devices for %d recipients", len(userIDs))
		return res
	}
	res.Total = len(devices)

	data := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		data[k] = v
	}
	data["dispatch_id"] = res.DispatchID

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	outcomes, err := d.gateway.Send(sendCtx, devices, push.Notification{Title: title, Body: body, Data: data})
	if err != nil {
		outcomes = push.FailAll(devices, err)
	}

	byToken := make(map[string]int64, len(devices))
	for _, dev := range devices {
		byToken[dev.Token] = dev.ID
	}
	var used []int64
	seen := map[string]bool{}
	for _, o := range outcomes {
		if seen[o.Token] {
			continue
		}
		seen[o.Token] = true
		if o.Err != nil {
			res.Failures = append(res.Failures, Failure{Token: o.Token, Reason: reason(o.Err)})
			continue
		}
		res.Delivered++
		if id, ok := byToken[o.Token]; ok {
			used = append(used, id)
		}
	}
	// Tokens the gateway said nothing about count as failed.
	for _, dev := range devices {
		if !seen[dev.Token] {
			res.Failures = append(res.Failures, Failure{Token: dev.Token, Reason: "no outcome from gateway"})
		}
	}

	if len(used) > 0 {
		// The send context may be spent; the refresh gets its own budget.
		if err := d.tokens.Touch(context.WithoutCancel(ctx), used, d.now().UTC()); err != nil {
			log.Printf("notify %s: touch tokens: %v", res.DispatchID, err)
		}
	}

	switch {
	case res.Delivered == res.Total:
		res.Status = StatusSent
	case res.Delivered == 0:
		res.Status = StatusFailed
	default:
		res.Status = StatusPartial
	}
	res.Diagnostic = fmt.Sprintf("%d sent, %d failed", res.Delivered, res.Total-res.Delivered)
	if res.Status == StatusFailed && len(res.Failures) > 0 {
		res.Diagnostic += ": " + res.Failures[0].Reason
	}
	log.Printf("notify %s via %s: %s", res.DispatchID, d.gateway.Name(), res.Diagnostic)
	return res
}

func uniqueDevices(tokens []models.DeviceToken) []push.Device {
	out := make([]push.Device, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tok := strings.TrimSpace(t.Token)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, push.Device{ID: t.ID, Platform: t.Platform, Token: tok})
	}
	return out
}

func reason(err error) string {
	switch {
	case errors.Is(err, push.ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, push.ErrNoRoute):
		return "no gateway for platform"
	}
	return err.Error()
}
