package commands

import (
	"context"
	"errors"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

// Cancel implements /annulla: it aborts whatever flow is in progress for
// the (user, chat) pair. It never owns a session of its own.
type Cancel struct {
	sessions  session.Store
	transport Transport
}

// NewCancel builds the cancel command.
func NewCancel(sessions session.Store, transport Transport) *Cancel {
	return &Cancel{sessions: sessions, transport: transport}
}

func (c *Cancel) Name() string        { return "/annulla" }
func (c *Cancel) Kind() string        { return "" }
func (c *Cancel) Description() string { return "Annulla l'operazione in corso" }
func (c *Cancel) Admin() bool         { return false }

func (c *Cancel) CanHandleText(*session.Session) bool  { return false }
func (c *Cancel) CanHandleEvent(*session.Session) bool { return false }

// Start implements Command.
func (c *Cancel) Start(ctx context.Context, ev Event) error {
	ids, err := c.sessions.Delete(ctx, ev.UserID, ev.ChatID, session.DeleteOptions{DropMessages: true})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			_, _ = c.transport.Send(ctx, ev.ChatID, steps.View{Text: msgNothingActive})
			return nil
		}
		logger.Flow.Error("cancel delete failed",
			slog.String("event", "flow.cancel"),
			slog.Int64("user_id", ev.UserID),
			slog.String("err", err.Error()),
		)
		_, _ = c.transport.Send(ctx, ev.ChatID, steps.View{Text: msgGenericError})
		return nil
	}
	for _, id := range ids {
		_ = c.transport.Delete(ctx, ev.ChatID, id)
	}
	_, _ = c.transport.Send(ctx, ev.ChatID, steps.View{Text: msgCancelled})
	return nil
}

// Execute implements Command; cancel never owns a session.
func (c *Cancel) Execute(context.Context, *session.Session, Event) error { return nil }
