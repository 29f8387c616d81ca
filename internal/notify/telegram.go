package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func newTelegram(token string, chatID int64) (*telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, chatID: chatID}, nil
}

func (t *telegram) Send(ctx context.Context, title, text string) error {
	body := text
	if title != "" {
		body = title + "\n\n" + text
	}

	msg := tgbotapi.NewMessage(t.chatID, body)
	_, err := t.api.Send(msg)
	return err
}
