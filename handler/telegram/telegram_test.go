package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pandodao/gasless-wallet/core"
)

func TestToEvent(t *testing.T) {
	user := &tgbotapi.User{ID: 42, UserName: "alice"}
	private := &tgbotapi.Chat{ID: 42, Type: "private"}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   *core.Event
	}{
		{
			name:   "callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "q", From: user, Data: "send"}},
			want:   &core.Event{UserID: "42", Username: "alice", Kind: core.EventMenu, Payload: "send"},
		},
		{
			name:   "text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: private, Text: "4821"}},
			want:   &core.Event{UserID: "42", Username: "alice", Kind: core.EventText, Payload: "4821"},
		},
		{
			name: "start command",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				From:     user,
				Chat:     private,
				Text:     "/start",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
			}},
			want: &core.Event{UserID: "42", Username: "alice", Kind: core.EventStart},
		},
		{
			name:   "group chat",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: &tgbotapi.Chat{ID: -1, Type: "group"}, Text: "hi"}},
		},
		{
			name:   "no sender",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: private, Text: "hi"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toEvent(tt.update)
			if tt.want == nil {
				if got != nil {
					t.Errorf("toEvent = %+v, want nil", got)
				}
				return
			}

			if got == nil || *got != *tt.want {
				t.Errorf("toEvent = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToMessage(t *testing.T) {
	msg, err := toMessage(&core.Message{
		UserID: "42",
		Text:   "Choose an option:",
		Menu: core.Menu{
			{{Text: "Send", Action: "send"}, {Text: "Receive", Action: "receive"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if msg.ChatID != 42 || msg.Text != "Choose an option:" {
		t.Errorf("message = %+v", msg)
	}

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("ReplyMarkup = %T", msg.ReplyMarkup)
	}

	row := markup.InlineKeyboard[0]
	if len(row) != 2 || *row[1].CallbackData != "receive" {
		t.Errorf("keyboard = %+v", markup.InlineKeyboard)
	}

	if _, err := toMessage(&core.Message{UserID: "alice"}); err == nil {
		t.Error("expected error for non numeric user id")
	}
}
