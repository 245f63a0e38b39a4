package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresLedger writes the transactions table.
type PostgresLedger struct {
	db *sqlx.DB
}

// NewPostgresLedger wraps an open database handle.
func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Insert implements Ledger.
func (p *PostgresLedger) Insert(ctx context.Context, tx *Transaction) (int64, error) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	err := p.db.GetContext(ctx, &tx.ID, `
		INSERT INTO transactions
			(kind, category, amount, description, period, contact, user_id, username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		tx.Kind, tx.Category, tx.Amount, tx.Description, tx.Period,
		tx.Contact, tx.UserID, tx.Username, tx.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert: %w", err)
	}
	return tx.ID, nil
}
