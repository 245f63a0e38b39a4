package telegram

import (
	"context"
	"strings"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/kappu72/enbot-sub001/internal/commands"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/router"
)

// bindRoutes attaches the inbound endpoints: one explicit route per entry
// command, plain text for in-flow input, callbacks for button events.
func bindRoutes(ctx context.Context, bot *tele.Bot, reg *commands.Registry, rtr *router.Router) {
	textHandler := func(c tele.Context) error {
		ev := eventFrom(c)
		ev.Text = c.Text()
		if err := rtr.HandleText(ctx, ev); err != nil {
			logHandlerError("text", err)
		}
		return nil
	}

	for name := range reg.All() {
		bot.Handle(name, textHandler)
	}
	bot.Handle(tele.OnText, textHandler)

	bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		// Ack first; Telegram shows a spinner on the button until then.
		_ = c.Respond()

		ev := eventFrom(c)
		ev.IsButton = true
		ev.Payload = strings.TrimPrefix(cb.Data, "\f")
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
		if err := rtr.HandleEvent(ctx, ev); err != nil {
			logHandlerError("callback", err)
		}
		return nil
	})
}

func eventFrom(c tele.Context) commands.Event {
	ev := commands.Event{}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		ev.UserID = user.ID
		ev.Username = user.Username
	}
	if msg := c.Message(); msg != nil {
		ev.MessageID = msg.ID
	}
	return ev
}

// logHandlerError keeps dispatch failures out of telebot's own error path;
// the user already got a message from the command layer.
func logHandlerError(kind string, err error) {
	logger.TG.Error("update handling failed",
		slog.String("event", "tg.handle"),
		slog.String("kind", kind),
		slog.String("err", err.Error()),
	)
}
