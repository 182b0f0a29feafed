package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditrack/internal/medicines"
	"meditrack/internal/models"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	answered []tgbotapi.CallbackConfig
	updates  chan tgbotapi.Update
	stopped  bool
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		b.answered = append(b.answered, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sent))
	for i, m := range b.sent {
		out[i] = m.Text
	}
	return out
}

type fakeUsers map[int64]models.User

func (f fakeUsers) GetByTelegramChat(_ context.Context, chatID int64) (models.User, error) {
	u, ok := f[chatID]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

type fakeMeds struct {
	list   []medicines.Summary
	logged []int64
}

func (f *fakeMeds) List(context.Context, int64) ([]medicines.Summary, error) {
	return f.list, nil
}

func (f *fakeMeds) Owned(_ context.Context, userID, id int64) (models.Medicine, error) {
	for _, s := range f.list {
		if s.ID != id {
			continue
		}
		if s.UserID != userID {
			return models.Medicine{}, models.ErrForbidden
		}
		return s.Medicine, nil
	}
	return models.Medicine{}, models.ErrNotFound
}

func (f *fakeMeds) LogDose(_ context.Context, _, id int64, scheduled string, taken *bool) (float64, error) {
	f.logged = append(f.logged, id)
	return 60, nil
}

const linkedChat, strangerChat = int64(42), int64(7)

func newTestHandler() (*Handler, *fakeBot, *fakeMeds) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update)}
	meds := &fakeMeds{list: []medicines.Summary{{
		Medicine:  models.Medicine{ID: 5, UserID: 1, Name: "Metformin", Dose: "500mg"},
		Times:     []string{"09:00", "21:00"},
		Adherence: 60,
	}}}
	users := fakeUsers{linkedChat: {ID: 1, Email: "ann@example.com"}}
	return NewHandler(bot, users, meds), bot, meds
}

func command(chatID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestStart(t *testing.T) {
	h, bot, _ := newTestHandler()

	h.HandleMessage(context.Background(), command(strangerChat, "/start"))
	h.HandleMessage(context.Background(), command(linkedChat, "/start"))

	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Your chat id is 7")
	assert.Contains(t, texts[1], "ann@example.com")
}

func TestMedsListsWithButtons(t *testing.T) {
	h, bot, _ := newTestHandler()

	h.HandleMessage(context.Background(), command(linkedChat, "/meds"))

	require.Len(t, bot.sent, 1)
	msg := bot.sent[0]
	assert.Equal(t, "#5 Metformin (500mg) at 09:00, 21:00, adherence 60.0%", msg.Text)

	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "taken:5", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestUnlinkedChat(t *testing.T) {
	h, bot, meds := newTestHandler()

	h.HandleMessage(context.Background(), command(strangerChat, "/meds"))
	h.HandleMessage(context.Background(), command(strangerChat, "/taken 5"))

	assert.Equal(t, []string{txtNotLinked, txtNotLinked}, bot.texts())
	assert.Empty(t, meds.logged)
}

func TestTakenCommand(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		logged []int64
	}{
		{"logs dose", "/taken 5", "Logged Metformin. Adherence is now 60.0%.", []int64{5}},
		{"unknown medicine", "/taken 9", txtUnknownMed, nil},
		{"missing id", "/taken", txtTakenUsage, nil},
		{"bad id", "/taken abc", txtTakenUsage, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, bot, meds := newTestHandler()

			h.HandleMessage(context.Background(), command(linkedChat, tt.text))

			assert.Equal(t, []string{tt.want}, bot.texts())
			assert.Equal(t, tt.logged, meds.logged)
		})
	}
}

func TestPlainTextGetsHelp(t *testing.T) {
	h, bot, _ := newTestHandler()

	h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: linkedChat}})

	assert.Equal(t, []string{txtHelp}, bot.texts())
}

func TestTakenCallback(t *testing.T) {
	h, bot, meds := newTestHandler()

	h.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    takenCallback(5),
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: linkedChat}},
	})

	assert.Equal(t, []int64{5}, meds.logged)
	require.Len(t, bot.answered, 1)
	assert.Equal(t, "cb1", bot.answered[0].CallbackQueryID)
	assert.Equal(t, []string{"Logged Metformin. Adherence is now 60.0%."}, bot.texts())
}

func TestListenStopsOnCancel(t *testing.T) {
	h, bot, _ := newTestHandler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Listen(ctx)
		close(done)
	}()

	bot.updates <- tgbotapi.Update{Message: command(linkedChat, "/start")}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return")
	}
	assert.True(t, bot.stopped)
	assert.Len(t, bot.texts(), 1)
}
