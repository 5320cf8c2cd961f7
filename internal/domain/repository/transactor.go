package repository

import "context"

// Stores are the repositories bound to one database transaction
type Stores struct {
	Purchases PurchaseRepository
	Ledger    LedgerRepository
}

// Transactor runs fn in a single transaction.
// Returning an error from fn rolls back every write made through the given stores.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(stores Stores) error) error
}
