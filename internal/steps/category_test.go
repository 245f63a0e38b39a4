package steps

import (
	"context"
	"testing"
	"time"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

func incomeCatalog() *fakeCatalog {
	return newFakeCatalog(
		catalog.Entry{ID: 1, Kind: catalog.KindIncomeCategory, Name: "Altro", NeedsDescription: true},
		catalog.Entry{ID: 2, Kind: catalog.KindIncomeCategory, Name: "Eventi", NeedsDescription: true},
		catalog.Entry{ID: 3, Kind: catalog.KindIncomeCategory, Name: "Quota Iscrizione"},
		catalog.Entry{ID: 4, Kind: catalog.KindIncomeCategory, Name: "Quota Mensile"},
		catalog.Entry{ID: 5, Kind: catalog.KindIncomeCategory, Name: "Stipendi", NeedsContact: true},
	)
}

// itemLabels extracts the category button labels (one category per row; the
// trailing rows are nav and cancel controls).
func itemLabels(v View) []string {
	var labels []string
	for _, row := range v.Keyboard {
		if len(row) != 1 {
			continue
		}
		p, err := payload.Decode(row[0].Data)
		if err != nil || p.Kind != payload.KindCategory {
			continue
		}
		labels = append(labels, row[0].Label)
	}
	return labels
}

func TestCategoryPresentFirstPage(t *testing.T) {
	step := NewCategory(incomeCatalog(), catalog.KindIncomeCategory, 2)
	sess := session.New(1, 2, "entrata", StepCategory, time.Hour)

	view, err := step.Present(context.Background(), sess, payload.Payload{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	labels := itemLabels(view)
	if len(labels) != 2 || labels[0] != "Altro" || labels[1] != "Eventi" {
		t.Fatalf("page 0 labels = %v", labels)
	}
}

func TestCategoryPaginationRoundTrip(t *testing.T) {
	step := NewCategory(incomeCatalog(), catalog.KindIncomeCategory, 2)
	sess := session.New(1, 2, "entrata", StepCategory, time.Hour)
	ctx := context.Background()

	page0, err := step.Present(ctx, sess, payload.Payload{})
	if err != nil {
		t.Fatalf("present page 0: %v", err)
	}

	// Click "next" on page 0.
	next := findNav(t, page0, false)
	res, verr := step.ValidateEvent(next)
	if verr != nil || !res.Pending {
		t.Fatalf("next click: res=%+v verr=%v", res, verr)
	}
	page1, err := step.Present(ctx, sess, res.Hint)
	if err != nil {
		t.Fatalf("present page 1: %v", err)
	}
	if labels := itemLabels(page1); len(labels) != 2 || labels[0] != "Quota Iscrizione" {
		t.Fatalf("page 1 labels = %v", labels)
	}

	// Click "previous" on page 1: it must reproduce page 0's item set.
	prev := findNav(t, page1, true)
	res, verr = step.ValidateEvent(prev)
	if verr != nil || !res.Pending {
		t.Fatalf("prev click: res=%+v verr=%v", res, verr)
	}
	back, err := step.Present(ctx, sess, res.Hint)
	if err != nil {
		t.Fatalf("present back: %v", err)
	}

	want := itemLabels(page0)
	got := itemLabels(back)
	if len(got) != len(want) {
		t.Fatalf("round trip item count: %v vs %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round trip item %d: %q vs %q", i, got[i], want[i])
		}
	}
}

// findNav locates the prev/next control in the nav row.
func findNav(t *testing.T, v View, prev bool) payload.Payload {
	t.Helper()
	for _, row := range v.Keyboard {
		if len(row) != 2 {
			continue
		}
		btn := row[1]
		if prev {
			btn = row[0]
		}
		p, err := payload.Decode(btn.Data)
		if err != nil || p.Kind != payload.KindNav {
			continue
		}
		return p
	}
	t.Fatal("nav row not found")
	return payload.Payload{}
}

func TestCategoryNavControlsAlwaysPresent(t *testing.T) {
	step := NewCategory(incomeCatalog(), catalog.KindIncomeCategory, 2)
	sess := session.New(1, 2, "entrata", StepCategory, time.Hour)

	page0, err := step.Present(context.Background(), sess, payload.Payload{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}

	// On the first page the previous control is present but disabled.
	prev := findNav(t, page0, true)
	if prev.Get("noop") != "1" {
		t.Fatalf("page 0 prev = %+v, want disabled no-op", prev)
	}
	res, verr := step.ValidateEvent(prev)
	if verr != nil || !res.Noop {
		t.Fatalf("noop click: res=%+v verr=%v", res, verr)
	}
}

func TestCategoryValidateEvent(t *testing.T) {
	step := NewCategory(incomeCatalog(), catalog.KindIncomeCategory, 2)

	res, verr := step.ValidateEvent(payload.New(payload.KindCategory, "id", "2", "pg", "0"))
	if verr != nil {
		t.Fatalf("validate: %v", verr)
	}
	if res.Value != "2" {
		t.Fatalf("value = %q, want 2", res.Value)
	}

	if _, verr := step.ValidateEvent(payload.New(payload.KindCategory, "id", "abc")); verr == nil {
		t.Fatal("non-numeric id accepted")
	}
	if _, verr := step.ValidateEvent(payload.New(payload.KindPeriod, "m", "03")); verr == nil {
		t.Fatal("foreign payload kind accepted")
	}
}
