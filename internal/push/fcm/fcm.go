// Package fcm delivers notifications through the Firebase Cloud Messaging HTTP v1 API.
package fcm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	fcmv1 "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"skiclub/internal/config"
	"skiclub/internal/push"
)

type Gateway struct {
	svc     *fcmv1.Service
	parent  string
	project string
}

// New builds the gateway from service-account credentials. Options are
// appended last, so tests can point it at a local server.
func New(ctx context.Context, cfg config.FCMConfig, opts ...option.ClientOption) (*Gateway, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("fcm: project id is required")
	}
	var base []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		base = append(base, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		base = append(base, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		base = append(base, option.WithEndpoint(cfg.Endpoint))
	}
	base = append(base, option.WithScopes(fcmv1.CloudPlatformScope))
	svc, err := fcmv1.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("fcm: new service: %w", err)
	}
	return &Gateway{svc: svc, parent: "projects/" + cfg.ProjectID, project: cfg.ProjectID}, nil
}

func (g *Gateway) Name() string { return "fcm:" + g.project }

// Send issues one request per token; the v1 API has no multicast call.
// A token rejected with 400 or 404 is reported as push.ErrInvalidToken.
func (g *Gateway) Send(ctx context.Context, devices []push.Device, n push.Notification) ([]push.Outcome, error) {
	out := make([]push.Outcome, 0, len(devices))
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			out = append(out, push.Outcome{Token: d.Token, Err: err})
			continue
		}
		req := &fcmv1.SendMessageRequest{Message: &fcmv1.Message{
			Token:        d.Token,
			Notification: &fcmv1.Notification{Title: n.Title, Body: n.Body},
			Data:         n.Data,
		}}
		_, err := g.svc.Projects.Messages.Send(g.parent, req).Context(ctx).Do()
		out = append(out, push.Outcome{Token: d.Token, Err: classify(err)})
	}
	return out, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusNotFound:
			return fmt.Errorf("%w: %s", push.ErrInvalidToken, apiErr.Message)
		}
		return fmt.Errorf("fcm: http %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("fcm: %w", err)
}
