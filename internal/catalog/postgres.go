package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore reads and writes the entities table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Page implements Store. It fetches one extra row to detect whether more
// pages follow.
func (p *PostgresStore) Page(ctx context.Context, kind Kind, page, size int) ([]Entry, bool, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 6
	}

	var entries []Entry
	err := p.db.SelectContext(ctx, &entries, `
		SELECT id, kind, name, needs_description, needs_contact
		  FROM entities
		 WHERE kind = $1
		 ORDER BY name
		 LIMIT $2 OFFSET $3`,
		kind, size+1, page*size,
	)
	if err != nil {
		return nil, false, fmt.Errorf("catalog: page: %w", err)
	}

	more := len(entries) > size
	if more {
		entries = entries[:size]
	}
	return entries, more, nil
}

// Get implements Store.
func (p *PostgresStore) Get(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := p.db.GetContext(ctx, &e, `
		SELECT id, kind, name, needs_description, needs_contact
		  FROM entities
		 WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get: %w", err)
	}
	return &e, nil
}

// Add implements Store. The (kind, name) pair is unique; inserting a
// duplicate returns the existing row.
func (p *PostgresStore) Add(ctx context.Context, kind Kind, name string) (*Entry, error) {
	var e Entry
	err := p.db.GetContext(ctx, &e, `
		INSERT INTO entities (kind, name)
		VALUES ($1, $2)
		ON CONFLICT (kind, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, kind, name, needs_description, needs_contact`,
		kind, name,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: add: %w", err)
	}
	return &e, nil
}
