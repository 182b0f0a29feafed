// Package handlers is the Telegram bot: users link a chat, list their
// medicines and log doses from it.
package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meditrack/internal/logger"
	"meditrack/internal/medicines"
	"meditrack/internal/models"
)

var log = logger.New("bot")

// PollTimeout is the long-poll duration in seconds.
const PollTimeout = 30

type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type UserFinder interface {
	GetByTelegramChat(ctx context.Context, chatID int64) (models.User, error)
}

type MedicineService interface {
	List(ctx context.Context, userID int64) ([]medicines.Summary, error)
	Owned(ctx context.Context, userID, id int64) (models.Medicine, error)
	LogDose(ctx context.Context, userID, id int64, scheduled string, taken *bool) (float64, error)
}

type Handler struct {
	Bot       BotAPI
	Users     UserFinder
	Medicines MedicineService
}

func NewHandler(bot BotAPI, users UserFinder, meds MedicineService) *Handler {
	return &Handler{Bot: bot, Users: users, Medicines: meds}
}

// Listen long-polls for updates until ctx is cancelled.
func (h *Handler) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeout

	updates := h.Bot.GetUpdatesChan(u)
	log.Info().Msg("bot listening")

	for {
		select {
		case <-ctx.Done():
			h.Bot.StopReceivingUpdates()
			log.Info().Msg("bot stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		h.HandleCommand(ctx, msg.Chat.ID, msg.Command(), msg.CommandArguments())
		return
	}
	h.send(msg.Chat.ID, txtHelp)
}

func (h *Handler) send(chatID int64, text string) {
	h.sendMsg(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) sendMsg(msg tgbotapi.MessageConfig) {
	if _, err := h.Bot.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("send")
	}
}
