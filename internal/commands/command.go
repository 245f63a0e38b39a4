// Package commands implements the named guided flows: each command owns an
// ordered, conditionally-branching sequence of steps plus the terminal
// business action performed when the sequence completes.
package commands

import (
	"context"

	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

// Event is one inbound update, normalized by the transport layer. Exactly
// one of Text or Payload carries content.
type Event struct {
	UserID    int64
	ChatID    int64
	Username  string
	MessageID int
	Text      string
	Payload   string
	IsButton  bool
}

// Transport is the narrow outbound contract towards the chat platform.
type Transport interface {
	// Send renders a view as a new message and returns its id.
	Send(ctx context.Context, chatID int64, v steps.View) (int, error)
	// Edit replaces a previously rendered view.
	Edit(ctx context.Context, chatID int64, messageID int, v steps.View) error
	// Delete removes a previously rendered message; best-effort.
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Notify sends a plain message to a recipient outside the active chat.
	Notify(ctx context.Context, recipient, text string) error
}

// Command is the contract every flow implements. The capability checks are
// explicit methods rather than runtime-discovered metadata, so the
// compiler verifies every variant.
type Command interface {
	// Name is the entry command text, e.g. "/entrata".
	Name() string
	// Kind is the command type stored in sessions; "" for entry-only
	// commands that never own a session.
	Kind() string
	// Description is shown in the Telegram command menu.
	Description() string
	// Admin restricts the command to the configured admin user.
	Admin() bool

	// CanHandleText reports whether the session's current step accepts
	// free-text input right now.
	CanHandleText(sess *session.Session) bool
	// CanHandleEvent reports whether the session's current step accepts
	// button events.
	CanHandleEvent(sess *session.Session) bool

	// Start begins a fresh flow, superseding any existing session for the
	// (user, chat) pair.
	Start(ctx context.Context, ev Event) error
	// Execute advances an in-progress flow by one validated input.
	Execute(ctx context.Context, sess *session.Session, ev Event) error
}

// User-visible messages shared across commands.
const (
	msgGenericError  = "❌ Si è verificato un errore. Riprova."
	msgCancelled     = "❌ Operazione annullata."
	msgNothingActive = "ℹ️ Nessuna operazione in corso."
)
