package middleware

import (
	"context"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
	tele "gopkg.in/telebot.v4"
)

// Logging emits one receipt line per inbound update.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		attrs := []slog.Attr{
			slog.String("event", "tg.update"),
			slog.Int("update_id", upd.ID),
		}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs,
				slog.Int64("chat_id", chat.ID),
				slog.String("chat_type", string(chat.Type)),
			)
		}
		if user := c.Sender(); user != nil {
			attrs = append(attrs, slog.Int64("user_id", user.ID))
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", user.Username))
			}
		}
		switch {
		case upd.Callback != nil:
			attrs = append(attrs, slog.String("kind", "callback"))
		case upd.Message != nil:
			attrs = append(attrs, slog.String("kind", "message"))
		}
		logger.TG.LogAttrs(context.Background(), slog.LevelDebug, "update received", attrs...)

		return next(c)
	}
}
