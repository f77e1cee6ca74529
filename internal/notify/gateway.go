package notify

import (
	"context"
	"fmt"
	"log"

	"skiclub/internal/config"
	"skiclub/internal/push"
	"skiclub/internal/push/fcm"
	"skiclub/internal/push/stub"
	"skiclub/internal/push/telegram"
	"skiclub/models"
)

// NewGateway builds the configured gateway. Missing credentials leave
// notifications disabled: the result is (nil, nil) and the reason is logged.
// A Telegram bot token, when present, adds a route for telegram devices.
func NewGateway(ctx context.Context, cfg config.PushConfig) (push.Gateway, error) {
	var primary push.Gateway
	switch cfg.Provider {
	case "", "none":
		log.Printf("push: no provider configured, notifications disabled")
		return nil, nil
	case "stub":
		primary = stub.New(cfg.Stub.Reject...)
	case "fcm":
		if !cfg.FCM.Configured() {
			log.Printf("push: fcm selected but project or credentials missing, notifications disabled")
			return nil, nil
		}
		g, err := fcm.New(ctx, cfg.FCM)
		if err != nil {
			return nil, err
		}
		primary = g
	case "telegram":
		if cfg.Telegram.BotToken == "" {
			log.Printf("push: telegram selected but bot token missing, notifications disabled")
			return nil, nil
		}
		g, err := telegram.New(cfg.Telegram.BotToken)
		if err != nil {
			return nil, err
		}
		return push.NewRouter(nil).Route(models.PlatformTelegram, g), nil
	default:
		return nil, fmt.Errorf("unknown push provider: %s", cfg.Provider)
	}

	if cfg.Telegram.BotToken == "" {
		return primary, nil
	}
	tg, err := telegram.New(cfg.Telegram.BotToken)
	if err != nil {
		log.Printf("push: telegram route disabled: %v", err)
		return primary, nil
	}
	return push.NewRouter(primary).Route(models.PlatformTelegram, tg), nil
}
