package telegram

import (
	"context"
	"strings"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/kappu72/enbot-sub001/internal/commands"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

// Transport implements commands.Transport over a telebot instance. All
// prompt views are sent as Markdown with inline keyboards.
type Transport struct {
	bot *tele.Bot
}

// NewTransport wraps a bot.
func NewTransport(bot *tele.Bot) *Transport {
	return &Transport{bot: bot}
}

var _ commands.Transport = (*Transport)(nil)

// Send implements commands.Transport.
func (t *Transport) Send(_ context.Context, chatID int64, v steps.View) (int, error) {
	start := time.Now()
	msg, err := t.bot.Send(tele.ChatID(chatID), v.Text, sendOptions(v))
	if err != nil {
		return 0, err
	}
	logger.TG.Debug("message sent",
		slog.String("event", "tg.send"),
		slog.Int64("chat_id", chatID),
		slog.Int("message_id", msg.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return msg.ID, nil
}

// Edit implements commands.Transport.
func (t *Transport) Edit(_ context.Context, chatID int64, messageID int, v steps.View) error {
	ref := storedMessage(chatID, messageID)
	_, err := t.bot.Edit(ref, v.Text, sendOptions(v))
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// Delete implements commands.Transport.
func (t *Transport) Delete(_ context.Context, chatID int64, messageID int) error {
	return t.bot.Delete(storedMessage(chatID, messageID))
}

// Notify implements commands.Transport. The recipient is a Telegram
// username; delivery only works when Telegram can resolve it to a chat
// the bot may write to, and callers treat failures as non-fatal.
func (t *Transport) Notify(_ context.Context, recipient, text string) error {
	_, err := t.bot.Send(usernameRecipient(recipient), text, tele.ModeMarkdown)
	return err
}

// storedMessage builds the minimal editable reference telebot needs.
func storedMessage(chatID int64, messageID int) *tele.Message {
	return &tele.Message{ID: messageID, Chat: &tele.Chat{ID: chatID}}
}

func sendOptions(v steps.View) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(v.Keyboard) > 0 {
		opts.ReplyMarkup = buildMarkup(v.Keyboard)
	}
	return opts
}

// buildMarkup converts a view keyboard to telebot inline buttons. The
// payload travels verbatim in the callback data.
func buildMarkup(rows [][]steps.Button) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			r = append(r, tele.InlineButton{Text: btn.Label, Data: btn.Data})
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// usernameRecipient addresses a chat by @username.
type usernameRecipient string

func (u usernameRecipient) Recipient() string {
	name := string(u)
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	return name
}
