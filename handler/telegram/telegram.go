package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/asaskevich/govalidator"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pandodao/gasless-wallet/core"
)

type Config struct {
	Token string `valid:"required"`
	Debug bool
}

type EventSink interface {
	Dispatch(ctx context.Context, ev *core.Event)
}

// Bot is the Telegram transport: it turns updates into chat events and
// delivers outbound messages with inline keyboards.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Bot, error) {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	api.Debug = cfg.Debug

	return &Bot{
		api:    api,
		logger: logger.With("handler", "telegram"),
	}, nil
}

func (b *Bot) Run(ctx context.Context, sink EventSink) error {
	b.logger.Info("telegram start", "bot", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			if q := update.CallbackQuery; q != nil {
				if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
					b.logger.Error("api.Request", "callback", q.ID, "err", err)
				}
			}

			if ev := toEvent(update); ev != nil {
				sink.Dispatch(ctx, ev)
			}
		}
	}
}

func (b *Bot) Send(_ context.Context, msg *core.Message) error {
	out, err := toMessage(msg)
	if err != nil {
		return err
	}

	_, err = b.api.Send(out)
	return err
}

func toEvent(update tgbotapi.Update) *core.Event {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		q := update.CallbackQuery
		return &core.Event{
			UserID:   strconv.FormatInt(q.From.ID, 10),
			Username: q.From.UserName,
			Kind:     core.EventMenu,
			Payload:  q.Data,
		}
	case update.Message != nil && update.Message.From != nil:
		m := update.Message
		ev := &core.Event{
			UserID:   strconv.FormatInt(m.From.ID, 10),
			Username: m.From.UserName,
			Kind:     core.EventText,
			Payload:  m.Text,
		}

		if m.Chat != nil && !m.Chat.IsPrivate() {
			return nil
		}

		switch {
		case m.IsCommand() && m.Command() == "start":
			ev.Kind = core.EventStart
			ev.Payload = ""
		case m.IsCommand() && m.Command() == "menu":
			ev.Kind = core.EventMenu
			ev.Payload = "show_menu"
		}

		return ev
	default:
		return nil
	}
}

func toMessage(msg *core.Message) (tgbotapi.MessageConfig, error) {
	chatID, err := strconv.ParseInt(msg.UserID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram: bad user id %q", msg.UserID)
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	if len(msg.Menu) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(msg.Menu))
		for _, line := range msg.Menu {
			row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
			for _, button := range line {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Action))
			}

			rows = append(rows, row)
		}

		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	return out, nil
}
