package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

var monthNames = [12]string{
	"Gen", "Feb", "Mar", "Apr", "Mag", "Giu",
	"Lug", "Ago", "Set", "Ott", "Nov", "Dic",
}

// Period asks for the accounting period via a month-then-year inline
// keyboard. The two dimensions need two round trips; the dimension chosen
// first is baked into the button payloads of the re-rendered keyboard, so
// each click event is self-describing.
type Period struct {
	now func() time.Time
}

// NewPeriod builds the period step.
func NewPeriod() *Period {
	return &Period{now: time.Now}
}

func (p *Period) Name() string       { return StepPeriod }
func (p *Period) AcceptsText() bool  { return false }
func (p *Period) AcceptsEvent() bool { return true }

// Present implements Step. partial may carry "m" or "y" from a prior
// click; every rendered button carries the already-chosen dimension along.
func (p *Period) Present(_ context.Context, _ *session.Session, partial payload.Payload) (View, error) {
	chosenMonth, hasMonth := partial.Int("m")
	chosenYear, hasYear := partial.Int("y")

	text := "📅 Seleziona il periodo (mese e anno):"
	switch {
	case hasMonth:
		text = fmt.Sprintf("📅 Mese: *%s* — ora seleziona l'anno:", monthNames[chosenMonth-1])
	case hasYear:
		text = fmt.Sprintf("📅 Anno: *%d* — ora seleziona il mese:", chosenYear)
	}

	var keyboard [][]Button
	for row := 0; row < 4; row++ {
		line := make([]Button, 0, 3)
		for col := 0; col < 3; col++ {
			m := row*3 + col + 1
			data := payload.New(payload.KindPeriod, "m", fmt.Sprintf("%02d", m))
			if hasYear {
				data = data.With("y", itoa(chosenYear))
			}
			label := monthNames[m-1]
			if hasMonth && m == chosenMonth {
				label = "· " + label + " ·"
			}
			line = append(line, Button{Label: label, Data: payload.Encode(data)})
		}
		keyboard = append(keyboard, line)
	}

	base := p.now().Year()
	years := make([]Button, 0, 3)
	for y := base - 1; y <= base+1; y++ {
		data := payload.New(payload.KindPeriod, "y", itoa(y))
		if hasMonth {
			data = data.With("m", fmt.Sprintf("%02d", chosenMonth))
		}
		label := itoa(y)
		if hasYear && y == chosenYear {
			label = "· " + label + " ·"
		}
		years = append(years, Button{Label: label, Data: payload.Encode(data)})
	}
	keyboard = append(keyboard, years, cancelRow())

	return View{Text: text, Keyboard: keyboard}, nil
}

// ValidateEvent implements EventStep. A click carrying both dimensions
// completes the step; a single dimension yields a keyboard update, not a
// completion.
func (p *Period) ValidateEvent(ev payload.Payload) (Result, *ValidationError) {
	if ev.Kind != payload.KindPeriod {
		return Result{}, failf("❌ Selezione non riconosciuta. Usa i pulsanti qui sopra.")
	}

	month, hasMonth := ev.Int("m")
	year, hasYear := ev.Int("y")
	if hasMonth && (month < 1 || month > 12) {
		return Result{}, failf("❌ Mese non valido.")
	}
	if hasYear && (year < 2000 || year > 2100) {
		return Result{}, failf("❌ Anno non valido.")
	}

	switch {
	case hasMonth && hasYear:
		return Result{Value: fmt.Sprintf("%02d-%04d", month, year)}, nil
	case hasMonth:
		return Result{Pending: true, Hint: payload.New(payload.KindPeriod, "m", fmt.Sprintf("%02d", month))}, nil
	case hasYear:
		return Result{Pending: true, Hint: payload.New(payload.KindPeriod, "y", strconv.Itoa(year))}, nil
	}
	return Result{}, failf("❌ Selezione non riconosciuta. Usa i pulsanti qui sopra.")
}

// PresentError implements Step.
func (p *Period) PresentError(_ *session.Session, verr *ValidationError) View {
	return View{Text: verr.Msg + "\n\n📅 Seleziona il periodo (mese e anno):"}
}

// Confirm implements Step.
func (p *Period) Confirm(_ *session.Session, value string) string {
	return fmt.Sprintf("📅 *Periodo:* %s", value)
}
