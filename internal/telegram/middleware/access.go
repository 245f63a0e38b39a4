package middleware

import (
	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
	tele "gopkg.in/telebot.v4"
)

// ChatAllowlist restricts the bot to one configured group chat. Private
// chats with the admin stay open for maintenance commands; updates from
// anywhere else are dropped silently. A zero allowedChatID disables the
// restriction.
func ChatAllowlist(allowedChatID, adminID int64) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if allowedChatID == 0 {
				return next(c)
			}
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if chat.ID == allowedChatID {
				return next(c)
			}
			if chat.Type == tele.ChatPrivate && c.Sender() != nil && c.Sender().ID == adminID {
				return next(c)
			}
			logger.TG.Debug("update from unauthorized chat dropped",
				slog.String("event", "tg.access"),
				slog.Int64("chat_id", chat.ID),
			)
			return nil
		}
	}
}
