// Package steps implements the reusable single-field interaction units of
// the guided flows: each step presents a prompt, validates one user input
// (free text or button event) and renders error/confirmation views.
//
// Steps are pure with respect to their inputs: they never write shared
// state. Persistence and step transitions belong to the owning command.
// State needed between button rounds (pagination offsets, partial period
// selections) is carried entirely inside the button payloads, because no
// continuation exists between the event that rendered a keyboard and the
// event carrying the click.
package steps

import (
	"context"

	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
)

// Step names double as the session step discriminant.
const (
	StepCategory    = "categoria"
	StepAmount      = "importo"
	StepDescription = "descrizione"
	StepPeriod      = "periodo"
	StepContact     = "contatto"
)

// Field names used in session transaction data.
const (
	FieldCategory    = "categoria"
	FieldAmount      = "importo"
	FieldDescription = "descrizione"
	FieldPeriod      = "periodo"
	FieldContact     = "contatto"
)

// Button is one inline keyboard button: a label and an encoded payload.
type Button struct {
	Label string
	Data  string
}

// View is a prompt rendered to the user: text plus an optional inline
// keyboard.
type View struct {
	Text     string
	Keyboard [][]Button
}

// ValidationError carries the human-readable, field-specific message shown
// when an input is rejected. It is a structured result, not a fault: the
// owning command re-renders the step and leaves the session untouched.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func failf(msg string) *ValidationError { return &ValidationError{Msg: msg} }

// Result is the outcome of validating a button event.
type Result struct {
	// Value is the accepted typed value; meaningful only when the other
	// flags are unset.
	Value string
	// Pending signals "not yet complete": the prompt must be re-rendered
	// with Hint's partial state baked into the new button payloads.
	Pending bool
	// Noop marks a disabled control; the event is acknowledged and ignored.
	Noop bool
	// AwaitText switches the step to free-text input for the next message.
	AwaitText bool
	// Hint carries the merged partial state for re-rendering.
	Hint payload.Payload
}

// Step is the behavior descriptor shared by every concrete step.
type Step interface {
	Name() string
	AcceptsText() bool
	AcceptsEvent() bool

	// Present builds the prompt. partial carries state decoded from a
	// prior button round; a zero payload renders the initial prompt.
	Present(ctx context.Context, sess *session.Session, partial payload.Payload) (View, error)

	// PresentError re-issues the prompt shape with the validation message
	// so the user can retry without losing position in the flow.
	PresentError(sess *session.Session, verr *ValidationError) View

	// Confirm renders an optional confirmation line for an accepted value;
	// "" means the step has no confirmation view.
	Confirm(sess *session.Session, value string) string
}

// TextStep validates free-text input.
type TextStep interface {
	Step
	// ValidateText is a pure function; it never consults the session.
	ValidateText(raw string) (string, *ValidationError)
}

// EventStep validates button events.
type EventStep interface {
	Step
	// ValidateEvent parses prior partial selections out of the payload,
	// merges the clicked dimension and decides completeness.
	ValidateEvent(p payload.Payload) (Result, *ValidationError)
}

// cancelRow is appended to every keyboard so a flow can be aborted at any
// step.
func cancelRow() []Button {
	return []Button{{
		Label: "❌ Annulla",
		Data:  payload.Encode(payload.New(payload.KindCancel)),
	}}
}

// navRow renders previous/next pagination controls. Controls are always
// present; a control with nothing behind it is disabled (no-op payload)
// rather than omitted, keeping the button-grid geometry stable across
// pages.
func navRow(page int, more bool) []Button {
	prev := Button{Label: "⬅️", Data: payload.Encode(payload.New(payload.KindNav, "noop", "1"))}
	if page > 0 {
		prev.Data = payload.Encode(payload.New(payload.KindNav, "pg", itoa(page-1)))
	}
	next := Button{Label: "➡️", Data: payload.Encode(payload.New(payload.KindNav, "noop", "1"))}
	if more {
		next.Data = payload.Encode(payload.New(payload.KindNav, "pg", itoa(page+1)))
	}
	return []Button{prev, next}
}
