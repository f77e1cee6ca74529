// Package telegram delivers notifications as bot messages. The device token
// of a telegram device is the chat id.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skiclub/internal/push"
)

// Sender is the part of *tgbotapi.BotAPI the gateway uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Gateway struct {
	bot Sender
}

// New connects to the Bot API with token.
func New(token string) (*Gateway, error) {
	if token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewWithSender(bot), nil
}

func NewWithSender(s Sender) *Gateway { return &Gateway{bot: s} }

func (g *Gateway) Name() string { return "telegram" }

func (g *Gateway) Send(ctx context.Context, devices []push.Device, n push.Notification) ([]push.Outcome, error) {
	text := Format(n)
	out := make([]push.Outcome, 0, len(devices))
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			out = append(out, push.Outcome{Token: d.Token, Err: err})
			continue
		}
		chatID, err := strconv.ParseInt(strings.TrimSpace(d.Token), 10, 64)
		if err != nil {
			out = append(out, push.Outcome{Token: d.Token, Err: fmt.Errorf("%w: chat id %q", push.ErrInvalidToken, d.Token)})
			continue
		}
		_, err = g.bot.Send(tgbotapi.NewMessage(chatID, text))
		out = append(out, push.Outcome{Token: d.Token, Err: classify(err)})
	}
	return out, nil
}

// Format renders the message text: the title, then the body after a blank line.
func Format(n push.Notification) string {
	if n.Body == "" {
		return n.Title
	}
	return n.Title + "\n\n" + n.Body
}

// classify maps "chat not found" and "bot was blocked" onto push.ErrInvalidToken.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusForbidden:
			return fmt.Errorf("%w: %s", push.ErrInvalidToken, apiErr.Message)
		}
	}
	return fmt.Errorf("telegram: %w", err)
}
