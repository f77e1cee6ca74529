package club

import (
	"context"
	"fmt"

	"skiclub/internal/auth"
	"skiclub/models"
)

var platforms = map[string]bool{
	models.PlatformWeb: true, models.PlatformAndroid: true, models.PlatformIOS: true, models.PlatformTelegram: true,
}

func (s *Service) RegisterDevice(ctx context.Context, p *auth.Principal, platform, token string) (*models.DeviceToken, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if platform == "" {
		platform = models.PlatformWeb
	}
	if !platforms[platform] {
		return nil, fmt.Errorf("%w: unknown platform %q", models.ErrValidation, platform)
	}
	return s.Devices.Register(ctx, p.UserID, platform, token, s.now().UTC())
}

func (s *Service) UnregisterDevice(ctx context.Context, p *auth.Principal, token string) error {
	if p == nil {
		return auth.ErrUnauthenticated
	}
	return s.Devices.Delete(ctx, p.UserID, token)
}
