package steps

import (
	"context"
	"testing"
	"time"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

func contactCatalog() *fakeCatalog {
	return newFakeCatalog(
		catalog.Entry{ID: 10, Kind: catalog.KindContact, Name: "@anna"},
		catalog.Entry{ID: 11, Kind: catalog.KindContact, Name: "@bruno"},
		catalog.Entry{ID: 12, Kind: catalog.KindContact, Name: "@carla"},
	)
}

func TestContactValidateTextNormalizesAt(t *testing.T) {
	step := NewContact(contactCatalog(), 6)

	for _, raw := range []string{"mario_rossi", "@mario_rossi", " @mario_rossi "} {
		got, verr := step.ValidateText(raw)
		if verr != nil {
			t.Fatalf("ValidateText(%q): %v", raw, verr)
		}
		if got != "@mario_rossi" {
			t.Fatalf("ValidateText(%q) = %q, want @mario_rossi", raw, got)
		}
	}
}

func TestContactValidateTextRejections(t *testing.T) {
	step := NewContact(contactCatalog(), 6)
	for _, raw := range []string{"", "@", "123", "_x", "mario rossi", "m@rio", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"} {
		if _, verr := step.ValidateText(raw); verr == nil {
			t.Fatalf("ValidateText(%q) accepted, want failure", raw)
		}
	}
}

func TestContactNewButtonSwitchesToFreeText(t *testing.T) {
	step := NewContact(contactCatalog(), 6)

	res, verr := step.ValidateEvent(payload.New(payload.KindNew))
	if verr != nil {
		t.Fatalf("validate: %v", verr)
	}
	if !res.AwaitText {
		t.Fatalf("res = %+v, want AwaitText", res)
	}

	view := step.PresentFreeText()
	if view.Text == "" {
		t.Fatal("free-text prompt is empty")
	}
}

func TestContactSelectAndPaginate(t *testing.T) {
	step := NewContact(contactCatalog(), 2)
	sess := session.New(1, 2, "nota_credito", StepContact, time.Hour)

	view, err := step.Present(context.Background(), sess, payload.Payload{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}

	// A contact row click yields the contact id.
	var clicked payload.Payload
	for _, row := range view.Keyboard {
		if len(row) != 1 {
			continue
		}
		p, err := payload.Decode(row[0].Data)
		if err != nil || p.Kind != payload.KindContact {
			continue
		}
		clicked = p
		break
	}
	res, verr := step.ValidateEvent(clicked)
	if verr != nil {
		t.Fatalf("select: %v", verr)
	}
	if res.Value != "10" {
		t.Fatalf("value = %q, want 10", res.Value)
	}

	// Page navigation is pending, not completion.
	res, verr = step.ValidateEvent(payload.New(payload.KindNav, "pg", "1"))
	if verr != nil || !res.Pending {
		t.Fatalf("nav: res=%+v verr=%v", res, verr)
	}
	page1, err := step.Present(context.Background(), sess, res.Hint)
	if err != nil {
		t.Fatalf("present page 1: %v", err)
	}
	var names []string
	for _, row := range page1.Keyboard {
		if len(row) == 1 {
			if p, err := payload.Decode(row[0].Data); err == nil && p.Kind == payload.KindContact {
				names = append(names, row[0].Label)
			}
		}
	}
	if len(names) != 1 || names[0] != "@carla" {
		t.Fatalf("page 1 contacts = %v", names)
	}
}
