package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

// Help implements /help: it lists the registered commands. The listing is
// built lazily from the registry so it never drifts from what is actually
// routable.
type Help struct {
	transport Transport
	registry  func() map[string]Command
}

// NewHelp builds the help command. registry is read on each invocation.
func NewHelp(transport Transport, registry func() map[string]Command) *Help {
	return &Help{transport: transport, registry: registry}
}

func (h *Help) Name() string        { return "/help" }
func (h *Help) Kind() string        { return "" }
func (h *Help) Description() string { return "Mostra i comandi disponibili" }
func (h *Help) Admin() bool         { return false }

func (h *Help) CanHandleText(*session.Session) bool  { return false }
func (h *Help) CanHandleEvent(*session.Session) bool { return false }

// Start implements Command.
func (h *Help) Start(ctx context.Context, ev Event) error {
	var b strings.Builder
	b.WriteString("🤖 *Comandi disponibili:*\n\n")

	names := make([]string, 0, len(h.registry()))
	for name, cmd := range h.registry() {
		if cmd.Admin() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(" — ")
		b.WriteString(h.registry()[name].Description())
		b.WriteString("\n")
	}
	b.WriteString("\nDurante un'operazione rispondi ai messaggi del bot o usa i pulsanti.")

	_, err := h.transport.Send(ctx, ev.ChatID, steps.View{Text: b.String()})
	return err
}

// Execute implements Command; help never owns a session.
func (h *Help) Execute(context.Context, *session.Session, Event) error { return nil }
