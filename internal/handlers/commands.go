package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meditrack/internal/models"
)

func (h *Handler) HandleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start":
		h.handleStart(ctx, chatID)
	case "meds":
		h.handleMeds(ctx, chatID)
	case "taken":
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil || id <= 0 {
			h.send(chatID, txtTakenUsage)
			return
		}
		h.send(chatID, h.logTaken(ctx, chatID, id))
	default:
		h.send(chatID, txtHelp)
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	u, err := h.Users.GetByTelegramChat(ctx, chatID)
	if err == nil {
		h.send(chatID, fmt.Sprintf(txtWelcomeLinked, u.Email))
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("lookup chat")
	}
	h.send(chatID, fmt.Sprintf(txtWelcome, chatID))
}

func (h *Handler) handleMeds(ctx context.Context, chatID int64) {
	u, ok := h.linkedUser(ctx, chatID)
	if !ok {
		return
	}

	list, err := h.Medicines.List(ctx, u.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("list medicines")
		h.send(chatID, txtSomethingWrong)
		return
	}
	if len(list) == 0 {
		h.send(chatID, txtNoMeds)
		return
	}

	var b strings.Builder
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list))
	for _, m := range list {
		fmt.Fprintf(&b, "#%d %s (%s) at %s, adherence %.1f%%\n",
			m.ID, m.Name, m.Dose, strings.Join(m.Times, ", "), m.Adherence)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf(btnTaken, m.Name), takenCallback(m.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimRight(b.String(), "\n"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.sendMsg(msg)
}

// logTaken records a dose taken now and returns the reply text.
func (h *Handler) logTaken(ctx context.Context, chatID, medicineID int64) string {
	u, ok := h.linkedUser(ctx, chatID)
	if !ok {
		return txtNotLinked
	}

	m, err := h.Medicines.Owned(ctx, u.ID, medicineID)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrForbidden) {
		return txtUnknownMed
	}
	if err != nil {
		log.Error().Err(err).Int64("medicine_id", medicineID).Msg("load medicine")
		return txtSomethingWrong
	}

	pct, err := h.Medicines.LogDose(ctx, u.ID, m.ID, "", nil)
	if err != nil {
		log.Error().Err(err).Int64("medicine_id", m.ID).Msg("log dose")
		return txtSomethingWrong
	}
	return fmt.Sprintf(txtLogged, m.Name, pct)
}

// linkedUser resolves the account of a chat, telling the chat when there is
// none.
func (h *Handler) linkedUser(ctx context.Context, chatID int64) (models.User, bool) {
	u, err := h.Users.GetByTelegramChat(ctx, chatID)
	if err == nil {
		return u, true
	}
	if errors.Is(err, models.ErrNotFound) {
		h.send(chatID, txtNotLinked)
	} else {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("lookup chat")
		h.send(chatID, txtSomethingWrong)
	}
	return models.User{}, false
}
