package commands

import (
	"github.com/kappu72/enbot-sub001/internal/catalog"
	"github.com/kappu72/enbot-sub001/internal/ledger"
)

// NewIncome builds the /entrata flow.
func NewIncome(deps Deps) *Transaction {
	return NewTransaction(TransactionOptions{
		Entry:        "/entrata",
		Kind:         ledger.KindIncome,
		Description:  "Registra un'entrata",
		CategoryKind: catalog.KindIncomeCategory,
	}, deps)
}

// NewExpense builds the /uscita flow.
func NewExpense(deps Deps) *Transaction {
	return NewTransaction(TransactionOptions{
		Entry:        "/uscita",
		Kind:         ledger.KindExpense,
		Description:  "Registra un'uscita",
		CategoryKind: catalog.KindExpenseCategory,
	}, deps)
}

// NewCreditNote builds the /notacredito flow. Credit notes pick from the
// income categories and always name a recipient contact.
func NewCreditNote(deps Deps) *Transaction {
	return NewTransaction(TransactionOptions{
		Entry:         "/notacredito",
		Kind:          ledger.KindCreditNote,
		Description:   "Registra una nota di credito",
		CategoryKind:  catalog.KindIncomeCategory,
		AlwaysContact: true,
	}, deps)
}
