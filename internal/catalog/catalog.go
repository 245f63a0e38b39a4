// Package catalog provides paged lookup of named entities (transaction
// categories and known contacts) filtered by a type tag.
package catalog

import (
	"context"
	"errors"
)

// Kind tags an entity with its catalog type.
type Kind string

const (
	// KindIncomeCategory tags categories offered by the income flow.
	KindIncomeCategory Kind = "income_category"
	// KindExpenseCategory tags categories offered by the expense flow.
	KindExpenseCategory Kind = "expense_category"
	// KindContact tags known notification contacts.
	KindContact Kind = "contact"
)

// ErrNotFound indicates a missing entity.
var ErrNotFound = errors.New("catalog: not found")

// Entry is one named entity. Category entries carry the branching flags
// consulted by the guided flows.
type Entry struct {
	ID   int64  `db:"id"`
	Kind Kind   `db:"kind"`
	Name string `db:"name"`
	// NeedsDescription marks categories requiring the free-text
	// description step.
	NeedsDescription bool `db:"needs_description"`
	// NeedsContact marks categories requiring the contact-selection step.
	NeedsContact bool `db:"needs_contact"`
}

// Store is the narrow lookup contract consumed by steps and commands.
type Store interface {
	// Page returns one page of entities of a kind, ordered by name, plus
	// whether more pages follow.
	Page(ctx context.Context, kind Kind, page, size int) ([]Entry, bool, error)

	// Get returns an entity by id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Entry, error)

	// Add inserts a new named entity of a kind and returns it. Adding a
	// name that already exists returns the existing entry.
	Add(ctx context.Context, kind Kind, name string) (*Entry, error)
}
