// Package router dispatches normalized inbound events to commands. Entry
// commands resolve through a static name registry; everything else resolves
// through the session: the stored command type names the owner, and the
// current step decides whether the input is even acceptable.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/commands"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

const msgSessionExpired = "⚠️ La sessione è scaduta. Usa /entrata, /uscita o /notacredito per ricominciare."
const msgAdminOnly = "🚫 Comando riservato all'amministratore."

// Router owns inbound dispatch for one bot instance.
type Router struct {
	registry  *commands.Registry
	sessions  session.Store
	transport commands.Transport
	adminID   int64
	now       func() time.Time
}

// New builds a router. adminID gates commands marked admin-only.
func New(registry *commands.Registry, sessions session.Store, transport commands.Transport, adminID int64) *Router {
	return &Router{
		registry:  registry,
		sessions:  sessions,
		transport: transport,
		adminID:   adminID,
		now:       time.Now,
	}
}

// HandleText routes one free-text message. A leading slash makes it an
// entry command; anything else feeds the in-progress flow, if any.
func (r *Router) HandleText(ctx context.Context, ev commands.Event) error {
	if strings.HasPrefix(ev.Text, "/") {
		return r.handleCommand(ctx, ev)
	}

	sess, ok := r.loadLive(ctx, ev)
	if !ok {
		return nil
	}
	cmd, found := r.registry.ByKind(sess.Command)
	if !found {
		logger.TG.Warn("session owned by unknown command",
			slog.String("event", "route.orphan"),
			slog.String("command", sess.Command),
		)
		return nil
	}
	if !cmd.CanHandleText(sess) {
		logger.TG.Debug("text ignored at current step",
			slog.String("event", "route.text"),
			slog.String("command", sess.Command),
			slog.String("step", sess.Step),
		)
		return nil
	}
	return cmd.Execute(ctx, sess, ev)
}

// HandleEvent routes one button event. An event with no live session is a
// click on a stale keyboard and is dropped silently.
func (r *Router) HandleEvent(ctx context.Context, ev commands.Event) error {
	sess, ok := r.loadLive(ctx, ev)
	if !ok {
		return nil
	}
	cmd, found := r.registry.ByKind(sess.Command)
	if !found {
		logger.TG.Warn("session owned by unknown command",
			slog.String("event", "route.orphan"),
			slog.String("command", sess.Command),
		)
		return nil
	}
	if !cmd.CanHandleEvent(sess) {
		logger.TG.Debug("event ignored at current step",
			slog.String("event", "route.event"),
			slog.String("command", sess.Command),
			slog.String("step", sess.Step),
		)
		return nil
	}
	return cmd.Execute(ctx, sess, ev)
}

// handleCommand resolves and starts an entry command.
func (r *Router) handleCommand(ctx context.Context, ev commands.Event) error {
	name := commandName(ev.Text)
	cmd, ok := r.registry.ByName(name)
	if !ok {
		logger.TG.Debug("unknown command",
			slog.String("event", "route.command"),
			slog.String("name", name),
		)
		return nil
	}
	if cmd.Admin() && ev.UserID != r.adminID {
		logger.TG.Warn("admin command denied",
			slog.String("event", "route.admin"),
			slog.String("name", name),
			slog.Int64("user_id", ev.UserID),
		)
		_, _ = r.transport.Send(ctx, ev.ChatID, steps.View{Text: msgAdminOnly})
		return nil
	}
	logger.TG.Info("command started",
		slog.String("event", "route.command"),
		slog.String("name", name),
		slog.Int64("user_id", ev.UserID),
	)
	return cmd.Start(ctx, ev)
}

// loadLive loads the pair's session and enforces the advisory TTL: an
// expired-but-unswept session is treated as absent, removed, and the user
// is told to restart.
func (r *Router) loadLive(ctx context.Context, ev commands.Event) (*session.Session, bool) {
	sess, err := r.sessions.Load(ctx, ev.UserID, ev.ChatID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.TG.Error("session load failed",
				slog.String("event", "route.load"),
				slog.String("err", err.Error()),
			)
		}
		return nil, false
	}
	if sess.Expired(r.now().UTC()) {
		ids, err := r.sessions.Delete(ctx, ev.UserID, ev.ChatID, session.DeleteOptions{DropMessages: true})
		if err == nil {
			for _, id := range ids {
				_ = r.transport.Delete(ctx, ev.ChatID, id)
			}
		}
		_, _ = r.transport.Send(ctx, ev.ChatID, steps.View{Text: msgSessionExpired})
		return nil, false
	}
	return sess, true
}

// commandName extracts the bare command from a message: first token, any
// @botname suffix stripped.
func commandName(text string) string {
	name := text
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name
}
