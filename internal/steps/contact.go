package steps

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,31}$`)

// Contact asks who should be notified about the transaction: a paged
// keyboard of known contacts, with an "add new" escape hatch that switches
// the step to free-text input for one message.
type Contact struct {
	catalog  catalog.Store
	pageSize int
}

// NewContact builds the contact step.
func NewContact(store catalog.Store, pageSize int) *Contact {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &Contact{catalog: store, pageSize: pageSize}
}

func (c *Contact) Name() string       { return StepContact }
func (c *Contact) AcceptsText() bool  { return true }
func (c *Contact) AcceptsEvent() bool { return true }

// Present implements Step.
func (c *Contact) Present(ctx context.Context, _ *session.Session, partial payload.Payload) (View, error) {
	page, _ := partial.Int("pg")
	if page < 0 {
		page = 0
	}

	entries, more, err := c.catalog.Page(ctx, catalog.KindContact, page, c.pageSize)
	if err != nil {
		return View{}, fmt.Errorf("contact page %d: %w", page, err)
	}

	keyboard := make([][]Button, 0, len(entries)+3)
	for _, e := range entries {
		data := payload.New(payload.KindContact,
			"id", strconv.FormatInt(e.ID, 10),
			"pg", itoa(page),
		)
		keyboard = append(keyboard, []Button{{Label: e.Name, Data: payload.Encode(data)}})
	}
	keyboard = append(keyboard,
		navRow(page, more),
		[]Button{{Label: "➕ Nuovo contatto", Data: payload.Encode(payload.New(payload.KindNew))}},
		cancelRow(),
	)

	return View{
		Text:     "👤 Seleziona il contatto da notificare:",
		Keyboard: keyboard,
	}, nil
}

// ValidateEvent implements EventStep.
func (c *Contact) ValidateEvent(p payload.Payload) (Result, *ValidationError) {
	switch p.Kind {
	case payload.KindNav:
		if p.Get("noop") == "1" {
			return Result{Noop: true}, nil
		}
		page, ok := p.Int("pg")
		if !ok || page < 0 {
			return Result{}, failf("❌ Pagina non valida.")
		}
		return Result{Pending: true, Hint: payload.New(payload.KindNav, "pg", itoa(page))}, nil
	case payload.KindContact:
		if _, ok := p.Int64("id"); !ok {
			return Result{}, failf("❌ Contatto non valido.")
		}
		return Result{Value: p.Get("id")}, nil
	case payload.KindNew:
		return Result{AwaitText: true}, nil
	}
	return Result{}, failf("❌ Selezione non riconosciuta. Usa i pulsanti qui sopra.")
}

// ValidateText implements TextStep. It is only consulted once the user
// asked to add a new contact; a leading @ is optional and normalized in.
func (c *Contact) ValidateText(raw string) (string, *ValidationError) {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "@")
	if !usernameRe.MatchString(name) {
		return "", failf("❌ Username non valido. Usa lettere, numeri e underscore (es. @mario_rossi):")
	}
	return "@" + name, nil
}

// PresentError implements Step.
func (c *Contact) PresentError(_ *session.Session, verr *ValidationError) View {
	return View{Text: verr.Msg}
}

// Confirm implements Step.
func (c *Contact) Confirm(_ *session.Session, value string) string {
	return fmt.Sprintf("👤 *Contatto:* %s", value)
}

// PresentFreeText is the prompt shown after the "add new contact" button.
func (c *Contact) PresentFreeText() View {
	return View{
		Text:     "👤 Inserisci lo username del contatto (es. @mario_rossi):",
		Keyboard: [][]Button{cancelRow()},
	}
}
