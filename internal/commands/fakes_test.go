package commands

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/ledger"
	"github.com/kappu72/enbot-sub001/internal/session"
	"github.com/kappu72/enbot-sub001/internal/steps"
)

type sentMsg struct {
	id   int
	chat int64
	view steps.View
}

type notice struct {
	recipient string
	text      string
}

// fakeTransport records outbound traffic and assigns message ids.
type fakeTransport struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMsg
	edits   map[int]steps.View
	deleted []int
	notices []notice

	notifyErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 100, edits: make(map[int]steps.View)}
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, v steps.View) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.sent = append(f.sent, sentMsg{id: id, chat: chatID, view: v})
	return id, nil
}

func (f *fakeTransport) Edit(_ context.Context, _ int64, messageID int, v steps.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[messageID] = v
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) Notify(_ context.Context, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notices = append(f.notices, notice{recipient: recipient, text: text})
	return nil
}

func (f *fakeTransport) lastSent() sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMsg{}
	}
	return f.sent[len(f.sent)-1]
}

// currentView returns the latest rendering of a message, edits included.
func (f *fakeTransport) currentView(messageID int) steps.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.edits[messageID]; ok {
		return v
	}
	for _, m := range f.sent {
		if m.id == messageID {
			return m.view
		}
	}
	return steps.View{}
}

// fakeLedger records inserted transactions.
type fakeLedger struct {
	mu     sync.Mutex
	nextID int64
	txs    []ledger.Transaction
	err    error
}

func (f *fakeLedger) Insert(_ context.Context, tx *ledger.Transaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	tx.ID = f.nextID
	f.txs = append(f.txs, *tx)
	return tx.ID, nil
}

// failMirror always fails the spreadsheet sync.
type failMirror struct{}

func (failMirror) Append(context.Context, *ledger.Transaction) error {
	return errors.New("webhook status 502 Bad Gateway")
}

// fakeCatalog is an in-memory catalog.Store.
type fakeCatalog struct {
	mu      sync.Mutex
	nextID  int64
	entries []catalog.Entry
}

func newFakeCatalog(entries ...catalog.Entry) *fakeCatalog {
	fc := &fakeCatalog{entries: entries}
	for _, e := range entries {
		if e.ID > fc.nextID {
			fc.nextID = e.ID
		}
	}
	return fc
}

func (f *fakeCatalog) Page(_ context.Context, kind catalog.Kind, page, size int) ([]catalog.Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []catalog.Entry
	for _, e := range f.entries {
		if e.Kind == kind {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start := page * size
	if start >= len(all) {
		return nil, false, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], end < len(all), nil
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (*catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) Add(_ context.Context, kind catalog.Kind, name string) (*catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Kind == kind && f.entries[i].Name == name {
			e := f.entries[i]
			return &e, nil
		}
	}
	f.nextID++
	e := catalog.Entry{ID: f.nextID, Kind: kind, Name: name}
	f.entries = append(f.entries, e)
	return &e, nil
}

type testEnv struct {
	sessions  *session.MemoryStore
	catalog   *fakeCatalog
	ledger    *fakeLedger
	transport *fakeTransport
	deps      Deps
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions: session.NewMemoryStore(),
		catalog: newFakeCatalog(
			catalog.Entry{ID: 1, Kind: catalog.KindIncomeCategory, Name: "Altro", NeedsDescription: true},
			catalog.Entry{ID: 2, Kind: catalog.KindIncomeCategory, Name: "Eventi", NeedsDescription: true},
			catalog.Entry{ID: 3, Kind: catalog.KindIncomeCategory, Name: "Quota Iscrizione"},
			catalog.Entry{ID: 4, Kind: catalog.KindIncomeCategory, Name: "Quota Mensile"},
			catalog.Entry{ID: 5, Kind: catalog.KindExpenseCategory, Name: "Stipendi", NeedsContact: true},
			catalog.Entry{ID: 6, Kind: catalog.KindExpenseCategory, Name: "Utenze"},
			catalog.Entry{ID: 10, Kind: catalog.KindContact, Name: "@anna"},
			catalog.Entry{ID: 11, Kind: catalog.KindContact, Name: "@bruno"},
		),
		ledger:    &fakeLedger{},
		transport: newFakeTransport(),
	}
	env.deps = Deps{
		Sessions:       env.sessions,
		Catalog:        env.catalog,
		Ledger:         env.ledger,
		Transport:      env.transport,
		SessionTTL:     30 * time.Minute,
		AmountCeiling:  100000,
		PageSize:       6,
		DescriptionMax: 120,
	}
	return env
}
