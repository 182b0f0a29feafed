// Package notify delivers reminder messages. Channels report success as a
// bool and never return errors; every failure is logged and collapses to false.
package notify

import (
	"context"
	"strconv"
	"time"

	"meditrack/internal/logger"
	"meditrack/internal/models"
)

var log = logger.New("notify")

type Channel interface {
	Send(ctx context.Context, to, subject, body string) bool
}

// Notifier fans a message out to the email channel and, for users who linked
// a chat, to Telegram.
type Notifier struct {
	email    Channel
	telegram Channel
	timeout  time.Duration
}

// NewNotifier accepts nil for a channel that is not configured. timeout bounds
// each channel call.
func NewNotifier(email, telegram Channel, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{email: email, telegram: telegram, timeout: timeout}
}

// Notify reports whether at least one channel delivered.
func (n *Notifier) Notify(ctx context.Context, user models.User, subject, body string) bool {
	delivered := false

	if n.email != nil && user.Email != "" {
		delivered = n.send(ctx, n.email, user.Email, subject, body) || delivered
	}
	if n.telegram != nil && user.TelegramChatID != nil {
		to := strconv.FormatInt(*user.TelegramChatID, 10)
		delivered = n.send(ctx, n.telegram, to, subject, body) || delivered
	}

	if !delivered {
		log.Warn().Int64("user_id", user.ID).Msg("no channel delivered the message")
	}
	return delivered
}

func (n *Notifier) send(ctx context.Context, ch Channel, to, subject, body string) bool {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return ch.Send(ctx, to, subject, body)
}
