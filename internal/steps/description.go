package steps

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

var (
	descriptionCharset = regexp.MustCompile(`^[\p{L}\p{N}\s.,:;!?()'"@&%€/\-]+$`)
	hasLetter          = regexp.MustCompile(`\p{L}`)
)

// Description asks for a free-text description. Only categories flagged
// as needing one reach this step.
type Description struct {
	// MaxLen bounds the accepted length in runes.
	MaxLen int
}

// NewDescription builds the description step with the configured bound.
func NewDescription(maxLen int) *Description {
	return &Description{MaxLen: maxLen}
}

func (d *Description) Name() string       { return StepDescription }
func (d *Description) AcceptsText() bool  { return true }
func (d *Description) AcceptsEvent() bool { return false }

// Present implements Step.
func (d *Description) Present(_ context.Context, sess *session.Session, _ payload.Payload) (View, error) {
	var b strings.Builder
	if cat, ok := sess.Field(FieldCategory); ok {
		fmt.Fprintf(&b, "📂 *Categoria:* %s\n", cat)
	}
	if amount, ok := sess.Field(FieldAmount); ok {
		fmt.Fprintf(&b, "💰 *Importo:* €%s\n", amount)
	}
	b.WriteString("\n📝 Inserisci una breve descrizione:")
	return View{Text: b.String(), Keyboard: [][]Button{cancelRow()}}, nil
}

// ValidateText implements TextStep.
func (d *Description) ValidateText(raw string) (string, *ValidationError) {
	text := strings.TrimSpace(raw)
	if text == "" || !hasLetter.MatchString(text) {
		return "", failf("❌ La descrizione deve contenere almeno una lettera. Riprova:")
	}
	if d.MaxLen > 0 && utf8.RuneCountInString(text) > d.MaxLen {
		return "", failf(fmt.Sprintf("❌ Descrizione troppo lunga (massimo %d caratteri). Riprova:", d.MaxLen))
	}
	if !descriptionCharset.MatchString(text) {
		return "", failf("❌ La descrizione contiene caratteri non ammessi. Riprova:")
	}
	return text, nil
}

// PresentError implements Step.
func (d *Description) PresentError(_ *session.Session, verr *ValidationError) View {
	return View{Text: verr.Msg, Keyboard: [][]Button{cancelRow()}}
}

// Confirm implements Step.
func (d *Description) Confirm(_ *session.Session, value string) string {
	return fmt.Sprintf("📝 *Descrizione:* %s", value)
}
