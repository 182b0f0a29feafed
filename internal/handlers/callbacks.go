package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cbTakenPrefix = "taken:"

func takenCallback(medicineID int64) string {
	return cbTakenPrefix + strconv.FormatInt(medicineID, 10)
}

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	reply := txtHelp
	if v, ok := strings.CutPrefix(cq.Data, cbTakenPrefix); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			reply = h.logTaken(ctx, chatID, id)
		}
	}

	// always answer the callback so the button stops spinning
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cq.ID, reply)); err != nil {
		log.Error().Err(err).Msg("answer callback")
	}
	h.send(chatID, reply)
}
