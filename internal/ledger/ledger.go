// Package ledger persists finalized transaction records.
package ledger

import (
	"context"
	"time"
)

// Transaction kinds, keyed by the owning command.
const (
	KindIncome     = "entrata"
	KindExpense    = "uscita"
	KindCreditNote = "nota_credito"
)

// Transaction is the canonical payload built from a completed flow.
type Transaction struct {
	ID          int64     `db:"id"`
	Kind        string    `db:"kind"`
	Category    string    `db:"category"`
	Amount      float64   `db:"amount"`
	Description string    `db:"description"`
	Period      string    `db:"period"` // MM-YYYY
	Contact     string    `db:"contact"`
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	CreatedAt   time.Time `db:"created_at"`
}

// Ledger inserts finalized transactions. The insert acknowledgement is the
// flow's completion boundary: once it returns, the record is committed
// regardless of what later best-effort steps do.
type Ledger interface {
	Insert(ctx context.Context, tx *Transaction) (int64, error)
}
