// Package middleware holds the global telebot middlewares.
package middleware

import (
	"runtime/debug"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
	tele "gopkg.in/telebot.v4"
)

// Recover catches handler panics so one broken update cannot take the
// poller down.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
