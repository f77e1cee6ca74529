// Package push defines the notification gateway contract shared by the
// FCM, Telegram and stub gateways.
package push

import (
	"context"
	"errors"
)

// ErrInvalidToken marks a token the gateway rejected as unknown or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrNoRoute is reported for devices whose platform has no gateway.
var ErrNoRoute = errors.New("no gateway for platform")

// Device is one delivery address.
type Device struct {
	ID       int64
	Platform string
	Token    string
}

type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Outcome is the result for one token. Err is nil when it was delivered.
type Outcome struct {
	Token string
	Err   error
}

// Gateway delivers a notification to devices. Send returns one outcome per
// device; a non-nil error means the whole call failed and no outcome is trusted.
type Gateway interface {
	Name() string
	Send(ctx context.Context, devices []Device, n Notification) ([]Outcome, error)
}

// FailAll reports err for every device.
func FailAll(devices []Device, err error) []Outcome {
	out := make([]Outcome, len(devices))
	for i, d := range devices {
		out[i] = Outcome{Token: d.Token, Err: err}
	}
	return out
}
