package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/ledger"
	"github.com/kappu72/enbot-sub001/internal/logger"
	"github.com/kappu72/enbot-sub001/internal/payload"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/sheets"
	"github.com/kappu72/enbot-sub001/internal/steps"
	"github.com/kappu72/enbot-sub001/internal/telegram/format"
)

// Command-data flag names.
const (
	flagNeedsDescription = "needs_description"
	flagNeedsContact     = "needs_contact"
	flagAwaitContactText = "await_contact_text"
)

// TransactionOptions configures one concrete transaction flow.
type TransactionOptions struct {
	// Entry is the command text starting the flow, e.g. "/entrata".
	Entry string
	// Kind is the transaction kind written to the ledger and stored as the
	// session's command type.
	Kind string
	// Description is shown in the command menu.
	Description string
	// CategoryKind selects which catalog categories the flow offers.
	CategoryKind catalog.Kind
	// AlwaysContact forces the contact step regardless of category flags
	// (credit notes always name a recipient).
	AlwaysContact bool
}

// Deps groups the collaborators injected into transaction flows.
type Deps struct {
	Sessions  session.Store
	Catalog   catalog.Store
	Ledger    ledger.Ledger
	Mirror    sheets.Mirror // nil disables mirroring
	Transport Transport

	SessionTTL     time.Duration
	AmountCeiling  float64
	PageSize       int
	DescriptionMax int
}

// Transaction is the guided data-entry flow shared by incomes, expenses
// and credit notes. The step order is category → amount → [description] →
// period → [contact] → finalize, with the bracketed steps decided by the
// branching flags of the chosen category.
type Transaction struct {
	opts TransactionOptions
	deps Deps

	category    *steps.Category
	amount      *steps.Amount
	description *steps.Description
	period      *steps.Period
	contact     *steps.Contact
}

// NewTransaction builds a transaction flow command.
func NewTransaction(opts TransactionOptions, deps Deps) *Transaction {
	return &Transaction{
		opts:        opts,
		deps:        deps,
		category:    steps.NewCategory(deps.Catalog, opts.CategoryKind, deps.PageSize),
		amount:      steps.NewAmount(deps.AmountCeiling),
		description: steps.NewDescription(deps.DescriptionMax),
		period:      steps.NewPeriod(),
		contact:     steps.NewContact(deps.Catalog, deps.PageSize),
	}
}

func (t *Transaction) Name() string        { return t.opts.Entry }
func (t *Transaction) Kind() string        { return t.opts.Kind }
func (t *Transaction) Description() string { return t.opts.Description }
func (t *Transaction) Admin() bool         { return false }

// CanHandleText implements Command.
func (t *Transaction) CanHandleText(sess *session.Session) bool {
	switch sess.Step {
	case steps.StepAmount, steps.StepDescription:
		return true
	case steps.StepContact:
		return sess.Flag(flagAwaitContactText) == "1"
	}
	return false
}

// CanHandleEvent implements Command.
func (t *Transaction) CanHandleEvent(sess *session.Session) bool {
	switch sess.Step {
	case steps.StepCategory, steps.StepPeriod, steps.StepContact:
		return true
	}
	return false
}

// Start implements Command: it supersedes any in-progress flow for the
// pair and presents the category step.
func (t *Transaction) Start(ctx context.Context, ev Event) error {
	t.discardExisting(ctx, ev)

	sess := session.New(ev.UserID, ev.ChatID, t.opts.Kind, steps.StepCategory, t.deps.SessionTTL)

	view, err := t.category.Present(ctx, sess, payload.Payload{})
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, "category present", err)
	}
	msgID, err := t.deps.Transport.Send(ctx, ev.ChatID, view)
	if err != nil {
		return t.logSendError(ev, "start prompt", err)
	}
	sess.TrackMessage(msgID)

	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.reportFailure(ctx, ev.ChatID, "session save", err)
	}
	return nil
}

// Execute implements Command: it routes the event to the handler for the
// session's current step. Each step has its own successor logic, so this
// is an explicit switch, not a generic lookup.
func (t *Transaction) Execute(ctx context.Context, sess *session.Session, ev Event) error {
	if ev.IsButton {
		p, err := payload.Decode(ev.Payload)
		if err != nil {
			logger.Flow.Warn("malformed callback payload",
				slog.String("event", "flow.payload"),
				slog.String("command", t.opts.Kind),
				slog.String("err", err.Error()),
			)
			return nil
		}
		if p.Kind == payload.KindCancel {
			return t.cancel(ctx, sess, ev)
		}

		switch sess.Step {
		case steps.StepCategory:
			return t.handleCategory(ctx, sess, ev, p)
		case steps.StepPeriod:
			return t.handlePeriod(ctx, sess, ev, p)
		case steps.StepContact:
			return t.handleContactEvent(ctx, sess, ev, p)
		}
		logger.Flow.Warn("button event at text-only step",
			slog.String("event", "flow.route"),
			slog.String("command", t.opts.Kind),
			slog.String("step", sess.Step),
		)
		return nil
	}

	switch sess.Step {
	case steps.StepAmount:
		return t.handleAmount(ctx, sess, ev)
	case steps.StepDescription:
		return t.handleDescription(ctx, sess, ev)
	case steps.StepContact:
		return t.handleContactText(ctx, sess, ev)
	}
	logger.Flow.Debug("text at button-only step ignored",
		slog.String("event", "flow.route"),
		slog.String("command", t.opts.Kind),
		slog.String("step", sess.Step),
	)
	return nil
}

// --- button-driven steps ---

func (t *Transaction) handleCategory(ctx context.Context, sess *session.Session, ev Event, p payload.Payload) error {
	res, verr := t.category.ValidateEvent(p)
	if verr != nil {
		return t.editError(ctx, t.category, sess, ev, verr)
	}
	switch {
	case res.Noop:
		return nil
	case res.Pending:
		return t.editPartial(ctx, t.category, sess, ev, res.Hint)
	}

	id, _ := strconv.ParseInt(res.Value, 10, 64)
	entry, err := t.deps.Catalog.Get(ctx, id)
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, "category lookup", err)
	}

	sess.SetField(steps.FieldCategory, entry.Name)
	if entry.NeedsDescription {
		sess.SetFlag(flagNeedsDescription, "1")
	}
	if entry.NeedsContact {
		sess.SetFlag(flagNeedsContact, "1")
	}
	sess.Step = steps.StepAmount
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}

	t.editConfirmation(ctx, t.category, sess, ev, res.Value)
	return t.presentStep(ctx, t.amount, sess)
}

func (t *Transaction) handlePeriod(ctx context.Context, sess *session.Session, ev Event, p payload.Payload) error {
	res, verr := t.period.ValidateEvent(p)
	if verr != nil {
		return t.editError(ctx, t.period, sess, ev, verr)
	}
	if res.Pending {
		return t.editPartial(ctx, t.period, sess, ev, res.Hint)
	}

	sess.SetField(steps.FieldPeriod, res.Value)
	if t.needsContact(sess) {
		sess.Step = steps.StepContact
		if err := t.deps.Sessions.Save(ctx, sess); err != nil {
			return t.handleSaveError(ctx, sess, ev, err)
		}
		t.editConfirmation(ctx, t.period, sess, ev, res.Value)
		return t.presentStep(ctx, t.contact, sess)
	}

	// Terminal step: the recap will replace this prompt message.
	sess.NoticeMessageID = ev.MessageID
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}
	return t.finalize(ctx, sess, ev)
}

func (t *Transaction) handleContactEvent(ctx context.Context, sess *session.Session, ev Event, p payload.Payload) error {
	res, verr := t.contact.ValidateEvent(p)
	if verr != nil {
		return t.editError(ctx, t.contact, sess, ev, verr)
	}
	switch {
	case res.Noop:
		return nil
	case res.Pending:
		return t.editPartial(ctx, t.contact, sess, ev, res.Hint)
	case res.AwaitText:
		sess.SetFlag(flagAwaitContactText, "1")
		if err := t.deps.Sessions.Save(ctx, sess); err != nil {
			return t.handleSaveError(ctx, sess, ev, err)
		}
		return t.edit(ctx, ev, t.contact.PresentFreeText())
	}

	id, _ := strconv.ParseInt(res.Value, 10, 64)
	entry, err := t.deps.Catalog.Get(ctx, id)
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, "contact lookup", err)
	}

	sess.SetField(steps.FieldContact, entry.Name)
	sess.NoticeMessageID = ev.MessageID
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}
	return t.finalize(ctx, sess, ev)
}

// --- text-driven steps ---

func (t *Transaction) handleAmount(ctx context.Context, sess *session.Session, ev Event) error {
	value, verr := t.amount.ValidateText(ev.Text)
	if verr != nil {
		return t.sendError(ctx, t.amount, sess, verr)
	}

	sess.SetField(steps.FieldAmount, value)
	if sess.Flag(flagNeedsDescription) == "1" {
		sess.Step = steps.StepDescription
		if err := t.deps.Sessions.Save(ctx, sess); err != nil {
			return t.handleSaveError(ctx, sess, ev, err)
		}
		return t.presentStep(ctx, t.description, sess)
	}
	sess.Step = steps.StepPeriod
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}
	return t.presentStep(ctx, t.period, sess)
}

func (t *Transaction) handleDescription(ctx context.Context, sess *session.Session, ev Event) error {
	value, verr := t.description.ValidateText(ev.Text)
	if verr != nil {
		return t.sendError(ctx, t.description, sess, verr)
	}

	sess.SetField(steps.FieldDescription, value)
	sess.Step = steps.StepPeriod
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}
	return t.presentStep(ctx, t.period, sess)
}

func (t *Transaction) handleContactText(ctx context.Context, sess *session.Session, ev Event) error {
	value, verr := t.contact.ValidateText(ev.Text)
	if verr != nil {
		return t.sendError(ctx, t.contact, sess, verr)
	}

	// Remember the new contact so it shows up in future keyboards.
	if _, err := t.deps.Catalog.Add(ctx, catalog.KindContact, value); err != nil {
		return t.reportFailure(ctx, ev.ChatID, "contact add", err)
	}

	sess.SetField(steps.FieldContact, value)
	sess.ClearFlag(flagAwaitContactText)
	if err := t.deps.Sessions.Save(ctx, sess); err != nil {
		return t.handleSaveError(ctx, sess, ev, err)
	}
	return t.finalize(ctx, sess, ev)
}

// --- terminal action ---

// finalize builds the canonical payload, inserts it into the ledger and
// deletes the session. The ledger insert is the completion boundary: once
// it is acknowledged the session is gone, and a failing mirror sync or
// contact notification is reported but never rolls anything back.
func (t *Transaction) finalize(ctx context.Context, sess *session.Session, ev Event) error {
	amountStr, _ := sess.Field(steps.FieldAmount)
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, "amount decode", err)
	}
	category, _ := sess.Field(steps.FieldCategory)
	description, _ := sess.Field(steps.FieldDescription)
	period, _ := sess.Field(steps.FieldPeriod)
	contact, _ := sess.Field(steps.FieldContact)

	tx := &ledger.Transaction{
		Kind:        t.opts.Kind,
		Category:    category,
		Amount:      amount,
		Description: description,
		Period:      period,
		Contact:     contact,
		UserID:      ev.UserID,
		Username:    ev.Username,
	}
	if _, err := t.deps.Ledger.Insert(ctx, tx); err != nil {
		// Session untouched: the user's retry lands on the same step.
		return t.reportFailure(ctx, ev.ChatID, "ledger insert", err)
	}

	logger.Flow.Info("transaction recorded",
		slog.String("event", "flow.complete"),
		slog.String("command", t.opts.Kind),
		slog.Int64("tx_id", tx.ID),
		slog.Int64("user_id", ev.UserID),
	)

	recap := t.recap(tx)
	if sess.NoticeMessageID != 0 {
		if err := t.deps.Transport.Edit(ctx, sess.ChatID, sess.NoticeMessageID, steps.View{Text: recap}); err != nil {
			t.logSendError(ev, "recap edit", err)
		}
	} else if _, err := t.deps.Transport.Send(ctx, sess.ChatID, steps.View{Text: recap}); err != nil {
		t.logSendError(ev, "recap send", err)
	}

	t.removeSession(ctx, sess, session.DeleteOptions{DropMessages: true, KeepNotice: true})

	if t.deps.Mirror != nil {
		if err := t.deps.Mirror.Append(ctx, tx); err != nil {
			logger.Flow.Warn("mirror sync failed",
				slog.String("event", "flow.mirror"),
				slog.Int64("tx_id", tx.ID),
				slog.String("err", err.Error()),
			)
			_, _ = t.deps.Transport.Send(ctx, sess.ChatID, steps.View{
				Text: "⚠️ Transazione salvata, ma la sincronizzazione con il foglio di calcolo non è riuscita.",
			})
		}
	}

	if contact != "" {
		note := fmt.Sprintf("🔔 *Nuova transazione registrata*\n\n%s\n👤 Registrato da: @%s",
			t.summary(tx), format.EscapeV1(displayUsername(ev.Username)))
		if err := t.deps.Transport.Notify(ctx, contact, note); err != nil {
			logger.Flow.Warn("contact notification failed",
				slog.String("event", "flow.notify"),
				slog.String("contact", contact),
				slog.String("err", err.Error()),
			)
			_, _ = t.deps.Transport.Send(ctx, sess.ChatID, steps.View{
				Text: fmt.Sprintf("⚠️ Transazione salvata ma non è stato possibile inviare la notifica a %s.", contact),
			})
		}
	}
	return nil
}

func (t *Transaction) recap(tx *ledger.Transaction) string {
	return "✅ *Transazione registrata con successo!*\n\n" + t.summary(tx)
}

// summary renders the recap lines. Free-form values are escaped so an odd
// markdown character in a description or username cannot break the message.
func (t *Transaction) summary(tx *ledger.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 *Tipo:* %s\n", tx.Kind)
	fmt.Fprintf(&b, "📂 *Categoria:* %s\n", format.EscapeV1(tx.Category))
	fmt.Fprintf(&b, "💰 *Importo:* €%.2f\n", tx.Amount)
	if tx.Description != "" {
		fmt.Fprintf(&b, "📝 *Descrizione:* %s\n", format.EscapeV1(tx.Description))
	}
	fmt.Fprintf(&b, "📅 *Periodo:* %s", tx.Period)
	if tx.Contact != "" {
		fmt.Fprintf(&b, "\n👤 *Contatto:* %s", format.EscapeV1(tx.Contact))
	}
	return b.String()
}

// --- shared plumbing ---

func (t *Transaction) needsContact(sess *session.Session) bool {
	return t.opts.AlwaysContact || sess.Flag(flagNeedsContact) == "1"
}

// presentStep sends the prompt for the session's (already saved) current
// step and records the message id for cleanup.
func (t *Transaction) presentStep(ctx context.Context, step steps.Step, sess *session.Session) error {
	view, err := step.Present(ctx, sess, payload.Payload{})
	if err != nil {
		return t.reportFailure(ctx, sess.ChatID, step.Name()+" present", err)
	}
	msgID, err := t.deps.Transport.Send(ctx, sess.ChatID, view)
	if err != nil {
		return t.logSendError(Event{ChatID: sess.ChatID}, step.Name()+" prompt", err)
	}
	sess.TrackMessage(msgID)
	if err := t.deps.Sessions.Save(ctx, sess); err != nil && !errors.Is(err, session.ErrStale) {
		logger.Flow.Warn("message tracking save failed",
			slog.String("event", "flow.save"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// editPartial re-renders a button step in place with partial state baked
// into the new payloads. The session is deliberately not saved: all
// round-trip state lives in the button payloads.
func (t *Transaction) editPartial(ctx context.Context, step steps.Step, sess *session.Session, ev Event, hint payload.Payload) error {
	view, err := step.Present(ctx, sess, hint)
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, step.Name()+" re-present", err)
	}
	return t.edit(ctx, ev, view)
}

// editError re-issues the prompt shape with the validation message, so
// the user retries without losing position. The session stays unchanged.
func (t *Transaction) editError(ctx context.Context, step steps.Step, sess *session.Session, ev Event, verr *steps.ValidationError) error {
	view, err := step.Present(ctx, sess, payload.Payload{})
	if err != nil {
		return t.reportFailure(ctx, ev.ChatID, step.Name()+" re-present", err)
	}
	view.Text = step.PresentError(sess, verr).Text
	return t.edit(ctx, ev, view)
}

// sendError renders a text step's error view as a new message. The
// session stays unchanged, so the next message retries the same step.
func (t *Transaction) sendError(ctx context.Context, step steps.Step, sess *session.Session, verr *steps.ValidationError) error {
	_, err := t.deps.Transport.Send(ctx, sess.ChatID, step.PresentError(sess, verr))
	if err != nil {
		return t.logSendError(Event{ChatID: sess.ChatID}, step.Name()+" error view", err)
	}
	return nil
}

// editConfirmation replaces a completed button prompt with its
// confirmation line.
func (t *Transaction) editConfirmation(ctx context.Context, step steps.Step, sess *session.Session, ev Event, value string) {
	text := step.Confirm(sess, value)
	if text == "" {
		return
	}
	if err := t.deps.Transport.Edit(ctx, ev.ChatID, ev.MessageID, steps.View{Text: text}); err != nil {
		t.logSendError(ev, step.Name()+" confirmation", err)
	}
}

func (t *Transaction) edit(ctx context.Context, ev Event, view steps.View) error {
	if err := t.deps.Transport.Edit(ctx, ev.ChatID, ev.MessageID, view); err != nil {
		return t.logSendError(ev, "edit", err)
	}
	return nil
}

// cancel aborts the flow on the inline cancel button; the clicked prompt
// becomes the cancellation notice and survives the message cleanup.
func (t *Transaction) cancel(ctx context.Context, sess *session.Session, ev Event) error {
	sess.NoticeMessageID = ev.MessageID
	if err := t.deps.Sessions.Save(ctx, sess); err != nil && !errors.Is(err, session.ErrStale) {
		logger.Flow.Warn("cancel save failed",
			slog.String("event", "flow.cancel"),
			slog.String("err", err.Error()),
		)
	}
	_ = t.edit(ctx, ev, steps.View{Text: msgCancelled})
	t.removeSession(ctx, sess, session.DeleteOptions{DropMessages: true, KeepNotice: true})
	return nil
}

// discardExisting drops a superseded session and cleans its prompts.
func (t *Transaction) discardExisting(ctx context.Context, ev Event) {
	ids, err := t.deps.Sessions.Delete(ctx, ev.UserID, ev.ChatID, session.DeleteOptions{DropMessages: true})
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Flow.Warn("supersede delete failed",
				slog.String("event", "flow.supersede"),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	logger.Flow.Debug("existing session superseded",
		slog.String("event", "flow.supersede"),
		slog.String("command", t.opts.Kind),
		slog.Int64("user_id", ev.UserID),
	)
	for _, id := range ids {
		_ = t.deps.Transport.Delete(ctx, ev.ChatID, id)
	}
}

func (t *Transaction) removeSession(ctx context.Context, sess *session.Session, opts session.DeleteOptions) {
	ids, err := t.deps.Sessions.Delete(ctx, sess.UserID, sess.ChatID, opts)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		logger.Flow.Error("session delete failed",
			slog.String("event", "flow.delete"),
			slog.String("err", err.Error()),
		)
		return
	}
	for _, id := range ids {
		_ = t.deps.Transport.Delete(ctx, sess.ChatID, id)
	}
}

// handleSaveError deals with a failed session save. A stale save means a
// concurrent event won the optimistic race; the surviving session is
// re-presented so the user sees a consistent prompt.
func (t *Transaction) handleSaveError(ctx context.Context, sess *session.Session, ev Event, err error) error {
	if !errors.Is(err, session.ErrStale) {
		return t.reportFailure(ctx, ev.ChatID, "session save", err)
	}
	logger.Flow.Warn("concurrent update lost",
		slog.String("event", "flow.stale"),
		slog.String("command", t.opts.Kind),
		slog.Int64("user_id", sess.UserID),
	)
	current, loadErr := t.deps.Sessions.Load(ctx, sess.UserID, sess.ChatID)
	if loadErr != nil {
		return nil
	}
	step := t.stepByName(current.Step)
	if step == nil {
		return nil
	}
	return t.presentStep(ctx, step, current)
}

func (t *Transaction) stepByName(name string) steps.Step {
	switch name {
	case steps.StepCategory:
		return t.category
	case steps.StepAmount:
		return t.amount
	case steps.StepDescription:
		return t.description
	case steps.StepPeriod:
		return t.period
	case steps.StepContact:
		return t.contact
	}
	return nil
}

// reportFailure surfaces a collaborator fault as a generic user-visible
// error. The session is left as-is so the retry lands on the same step.
func (t *Transaction) reportFailure(ctx context.Context, chatID int64, op string, err error) error {
	logger.Flow.Error("collaborator failure",
		slog.String("event", "flow.error"),
		slog.String("command", t.opts.Kind),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	_, _ = t.deps.Transport.Send(ctx, chatID, steps.View{Text: msgGenericError})
	return nil
}

func (t *Transaction) logSendError(ev Event, op string, err error) error {
	logger.Flow.Warn("outbound send failed",
		slog.String("event", "flow.send"),
		slog.String("command", t.opts.Kind),
		slog.String("op", op),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("err", err.Error()),
	)
	return nil
}

func displayUsername(username string) string {
	if username == "" {
		return "utente"
	}
	return username
}
