package steps

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

const amountError = "❌ Formato non valido. Inserisci un importo numerico valido (es. 25,50):"

// Amount asks for the transaction amount in euro as free text. Both `.`
// and `,` are accepted as decimal separator.
type Amount struct {
	// Ceiling rejects implausibly large amounts.
	Ceiling float64
}

// NewAmount builds the amount step with the configured ceiling.
func NewAmount(ceiling float64) *Amount {
	return &Amount{Ceiling: ceiling}
}

func (a *Amount) Name() string       { return StepAmount }
func (a *Amount) AcceptsText() bool  { return true }
func (a *Amount) AcceptsEvent() bool { return false }

// Present implements Step.
func (a *Amount) Present(_ context.Context, sess *session.Session, _ payload.Payload) (View, error) {
	var b strings.Builder
	if cat, ok := sess.Field(FieldCategory); ok {
		fmt.Fprintf(&b, "📂 *Categoria:* %s\n\n", cat)
	}
	b.WriteString("💰 Inserisci l'importo in Euro (es. 25,50):")
	return View{Text: b.String(), Keyboard: [][]Button{cancelRow()}}, nil
}

// ValidateText implements TextStep. The canonical value always uses `.`
// and two decimals, so "25,50" and "25.50" validate to the same value.
func (a *Amount) ValidateText(raw string) (string, *ValidationError) {
	norm := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return "", failf(amountError)
	}
	// ParseFloat also accepts "nan" and "inf", which would sail past the
	// range checks below.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", failf(amountError)
	}
	if v <= 0 {
		return "", failf("❌ L'importo deve essere positivo. Riprova (es. 25,50):")
	}
	if a.Ceiling > 0 && v > a.Ceiling {
		return "", failf(fmt.Sprintf("❌ Importo troppo alto (massimo €%.2f). Riprova:", a.Ceiling))
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}

// PresentError implements Step.
func (a *Amount) PresentError(_ *session.Session, verr *ValidationError) View {
	return View{Text: verr.Msg, Keyboard: [][]Button{cancelRow()}}
}

// Confirm implements Step.
func (a *Amount) Confirm(_ *session.Session, value string) string {
	return fmt.Sprintf("💰 *Importo:* €%s", value)
}
