package alert

import (
	"context"
	"errors"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Alerter = (*TelegramAlerter)(nil)

// TelegramAlerter pushes operator alerts (failed/timed-out renders) to an
// admin chat. Strictly outbound; no update polling.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram admin chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	_, err := t.bot.Send(msg)
	return err
}
