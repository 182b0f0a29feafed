package notify

import (
	"context"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers to a chat id; the subject becomes the first line.
type Telegram struct {
	bot botSender
}

// NewBot connects to the Bot API through a client whose requests are bounded by
// timeout. An empty endpoint means the public API.
func NewBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
}

func NewTelegram(bot botSender) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) Send(ctx context.Context, to, subject, body string) bool {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("invalid telegram chat id")
		return false
	}

	msg := tgbotapi.NewMessage(chatID, subject+"\n\n"+body)

	// The bot API client has no context support, so the call is raced
	// against ctx instead.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
			return false
		}
	case <-ctx.Done():
		log.Error().Err(ctx.Err()).Int64("chat_id", chatID).Msg("telegram send timed out")
		return false
	}

	log.Info().Int64("chat_id", chatID).Msg("telegram message sent")
	return true
}
