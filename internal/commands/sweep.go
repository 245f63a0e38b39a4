package commands

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

// Sweep implements /scadute: an admin command forcing an immediate purge
// of expired sessions, outside the periodic sweeper's schedule.
type Sweep struct {
	sessions  session.Store
	transport Transport
}

// NewSweep builds the sweep command.
func NewSweep(sessions session.Store, transport Transport) *Sweep {
	return &Sweep{sessions: sessions, transport: transport}
}

func (s *Sweep) Name() string        { return "/scadute" }
func (s *Sweep) Kind() string        { return "" }
func (s *Sweep) Description() string { return "Elimina le sessioni scadute" }
func (s *Sweep) Admin() bool         { return true }

func (s *Sweep) CanHandleText(*session.Session) bool  { return false }
func (s *Sweep) CanHandleEvent(*session.Session) bool { return false }

// Start implements Command.
func (s *Sweep) Start(ctx context.Context, ev Event) error {
	n, err := s.sessions.ExpireAll(ctx)
	if err != nil {
		logger.Store.Error("manual sweep failed",
			slog.String("event", "sweep.manual"),
			slog.String("err", err.Error()),
		)
		_, _ = s.transport.Send(ctx, ev.ChatID, steps.View{Text: msgGenericError})
		return nil
	}
	logger.Store.Info("manual sweep done",
		slog.String("event", "sweep.manual"),
		slog.Int("removed", n),
		slog.Int64("user_id", ev.UserID),
	)
	_, _ = s.transport.Send(ctx, ev.ChatID, steps.View{
		Text: fmt.Sprintf("🧹 Sessioni scadute eliminate: %d", n),
	})
	return nil
}

// Execute implements Command; sweep never owns a session.
func (s *Sweep) Execute(context.Context, *session.Session, Event) error { return nil }
