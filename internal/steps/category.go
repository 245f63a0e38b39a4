package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

// Category presents a paged inline keyboard of transaction categories.
// The selected category's id is the step value; the owning command resolves
// it and stores the branching flags.
type Category struct {
	catalog  catalog.Store
	kind     catalog.Kind
	pageSize int
}

// NewCategory builds the category step over the given catalog kind.
func NewCategory(store catalog.Store, kind catalog.Kind, pageSize int) *Category {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &Category{catalog: store, kind: kind, pageSize: pageSize}
}

func (c *Category) Name() string       { return StepCategory }
func (c *Category) AcceptsText() bool  { return false }
func (c *Category) AcceptsEvent() bool { return true }

// Present implements Step. The page to render travels in the partial
// payload; a zero payload renders page 0.
func (c *Category) Present(ctx context.Context, _ *session.Session, partial payload.Payload) (View, error) {
	page, _ := partial.Int("pg")
	if page < 0 {
		page = 0
	}

	entries, more, err := c.catalog.Page(ctx, c.kind, page, c.pageSize)
	if err != nil {
		return View{}, fmt.Errorf("category page %d: %w", page, err)
	}

	keyboard := make([][]Button, 0, len(entries)+2)
	for _, e := range entries {
		data := payload.New(payload.KindCategory,
			"id", strconv.FormatInt(e.ID, 10),
			"pg", itoa(page),
		)
		keyboard = append(keyboard, []Button{{Label: e.Name, Data: payload.Encode(data)}})
	}
	keyboard = append(keyboard, navRow(page, more), cancelRow())

	return View{
		Text:     "📂 Seleziona la categoria:",
		Keyboard: keyboard,
	}, nil
}

// ValidateEvent implements EventStep.
func (c *Category) ValidateEvent(p payload.Payload) (Result, *ValidationError) {
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
	case payload.KindCategory:
		if _, ok := p.Int64("id"); !ok {
			return Result{}, failf("❌ Categoria non valida.")
		}
		return Result{Value: p.Get("id")}, nil
	}
	return Result{}, failf("❌ Selezione non riconosciuta. Usa i pulsanti qui sopra.")
}

// PresentError implements Step.
func (c *Category) PresentError(_ *session.Session, verr *ValidationError) View {
	return View{Text: verr.Msg + "\n\n📂 Seleziona la categoria:"}
}

// Confirm implements Step.
func (c *Category) Confirm(sess *session.Session, _ string) string {
	if name, ok := sess.Field(FieldCategory); ok {
		return fmt.Sprintf("📂 *Categoria:* %s", name)
	}
	return ""
}

func itoa(n int) string { return strconv.Itoa(n) }
