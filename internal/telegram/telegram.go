// Package telegram is the chat-transport boundary. The controller only sees
// the types and interfaces in this package, never the Bot API library.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Update is an inbound chat event: either a free-text message or a callback
// with an opaque payload, scoped to a chat and a message.
type Update struct {
	ChatID    string
	MessageID int
	Text      string // free-text message
	Callback  string // button press payload
}

// IsCallback reports whether the update is a button press.
func (u Update) IsCallback() bool {
	return u.Callback != ""
}

// Button is one inline keyboard option. Label is shown; Data comes back as
// the callback payload.
type Button struct {
	Label string
	Data  string
}

// Btn builds a button whose label doubles as its payload, the common case
// for menu actions.
func Btn(label string) Button {
	return Button{Label: label, Data: label}
}

// Keyboard is a button grid, row-major.
type Keyboard [][]Button

// Rows chunks an ordered option list into rows of the given width. Menus
// use width 3; option lists that must read top-to-bottom use width 1.
func Rows(width int, buttons ...Button) Keyboard {
	if width < 1 {
		width = 1
	}
	var kb Keyboard
	for len(buttons) > 0 {
		n := width
		if n > len(buttons) {
			n = len(buttons)
		}
		kb = append(kb, buttons[:n])
		buttons = buttons[n:]
	}
	return kb
}

// Append adds extra rows to a keyboard.
func (k Keyboard) Append(rows Keyboard) Keyboard {
	return append(k, rows...)
}

// Messenger is the outbound side of the transport boundary.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string, kb Keyboard) error
	EditText(ctx context.Context, chatID string, messageID int, text string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID string, messageID int) error
	SendPhoto(ctx context.Context, chatID, caption string, png []byte) error
}

// Bot adapts the Telegram Bot API to the boundary types above.
type Bot struct {
	api *tgbotapi.BotAPI
}

// NewBot connects to the Bot API with the given token.
func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram: token must not be empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot api: %w", err)
	}
	return &Bot{api: api}, nil
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}

func toMarkup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, r)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (b *Bot) SendText(_ context.Context, chatID, text string, kb Keyboard) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = toMarkup(kb)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (b *Bot) EditText(_ context.Context, chatID string, messageID int, text string, kb Keyboard) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	var edit tgbotapi.EditMessageTextConfig
	if len(kb) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(id, messageID, text, toMarkup(kb))
	} else {
		edit = tgbotapi.NewEditMessageText(id, messageID, text)
	}
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("telegram: edit message: %w", err)
	}
	return nil
}

func (b *Bot) DeleteMessage(_ context.Context, chatID string, messageID int) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(id, messageID)); err != nil {
		return fmt.Errorf("telegram: delete message: %w", err)
	}
	return nil
}

func (b *Bot) SendPhoto(_ context.Context, chatID, caption string, png []byte) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FileBytes{Name: "chart.png", Bytes: png})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	return nil
}

// FromBotUpdate converts a Bot API update to the boundary type. The second
// return is false for update kinds the bot ignores.
func FromBotUpdate(u tgbotapi.Update) (Update, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return Update{
			ChatID:    strconv.FormatInt(u.CallbackQuery.Message.Chat.ID, 10),
			MessageID: u.CallbackQuery.Message.MessageID,
			Callback:  u.CallbackQuery.Data,
		}, true
	case u.Message != nil && u.Message.Text != "":
		return Update{
			ChatID:    strconv.FormatInt(u.Message.Chat.ID, 10),
			MessageID: u.Message.MessageID,
			Text:      u.Message.Text,
		}, true
	default:
		return Update{}, false
	}
}

// Listen long-polls for updates and dispatches each on its own goroutine
// until ctx is canceled. In-flight handlers are not interrupted; shutdown
// only stops accepting new updates.
func (b *Bot) Listen(ctx context.Context, handle func(context.Context, Update)) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.CallbackQuery != nil {
				if _, err := b.api.Request(tgbotapi.NewCallback(u.CallbackQuery.ID, "")); err != nil {
					slog.Warn("failed to answer callback query", "err", err)
				}
			}
			update, ok := FromBotUpdate(u)
			if !ok {
				continue
			}
			// Detached from ctx so shutdown stops intake without aborting
			// a gateway call already in flight.
			go handle(context.WithoutCancel(ctx), update)
		}
	}
}
