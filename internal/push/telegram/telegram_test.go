package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skiclub/internal/push"
)

type fakeBot struct {
	sent    []tgbotapi.MessageConfig
	blocked map[int64]bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.blocked[msg.ChatID] {
		return tgbotapi.Message{}, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestGateway_Send(t *testing.T) {
	bot := &fakeBot{blocked: map[int64]bool{222: true}}
	g := NewWithSender(bot)

	out, err := g.Send(context.Background(), []push.Device{
		{Platform: "telegram", Token: "111"},
		{Platform: "telegram", Token: "222"},
		{Platform: "telegram", Token: "not-a-chat"},
	}, push.Notification{Title: "Gara Regionale SL", Body: "Richiesta carpooling"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out[0].Err != nil {
		t.Fatalf("first chat should be delivered: %v", out[0].Err)
	}
	if !errors.Is(out[1].Err, push.ErrInvalidToken) || !errors.Is(out[2].Err, push.ErrInvalidToken) {
		t.Fatalf("blocked and malformed chats should be invalid tokens: %+v", out)
	}
	if len(bot.sent) != 1 || bot.sent[0].ChatID != 111 || bot.sent[0].Text != "Gara Regionale SL\n\nRichiesta carpooling" {
		t.Fatalf("unexpected sent messages: %+v", bot.sent)
	}
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error without token")
	}
}
