package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// LedgerStore owns all mutable shared state: account balances, the
// entitlement set, and the append-only transaction log. No other component
// may mutate them directly.
type LedgerStore interface {
	// CreateAccount registers a new wallet with balance zero.
	CreateAccount(ctx context.Context, username string) (*Account, error)

	// GetAccount returns the account with the given id, or ErrNotFound.
	GetAccount(ctx context.Context, id string) (*Account, error)

	// Balance returns the current balance of an account.
	Balance(ctx context.Context, accountID string) (int64, error)

	// ApplyBatch applies one settlement event atomically. It fails with
	// ErrInsufficientBalance if any delta would drive a balance negative,
	// ErrAlreadyOwned if the entitlement already exists, ErrNotFound if a
	// touched account does not exist, and ErrLedgerConflict if the batch
	// lost a race with a concurrent writer. On any failure nothing is
	// applied.
	ApplyBatch(ctx context.Context, batch Batch) error

	// Transactions lists an account's transactions, newest first.
	Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error)

	// HasEntitlement reports whether an account owns an item.
	HasEntitlement(ctx context.Context, accountID, itemID string) (bool, error)
}

// Catalog supplies priced-item lookups. The catalog is an external
// collaborator; the core trusts its fields and validates nothing beyond them.
type Catalog interface {
	GetNote(ctx context.Context, id string) (*Note, error)
	GetBook(ctx context.Context, id string) (*ReferenceBook, error)
}
