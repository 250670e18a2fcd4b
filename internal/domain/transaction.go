package domain

import "time"

// ─── Ledger Entry Types ─────────────────────────────────────────────────────

// Direction represents the accounting side of a wallet transaction.
type Direction string

const (
	DirCredit Direction = "CREDIT"
	DirDebit  Direction = "DEBIT"
)

// Transaction reasons. These mirror the human-readable audit strings shown
// in wallet statements; they are stable and must not be reworded casually.
const (
	ReasonNotePurchase = "Purchased premium note"
	ReasonNoteSale     = "Sold premium note"
	ReasonCommission   = "Platform commission"
	ReasonBookPurchase = "Purchased reference book"
	ReasonBookSale     = "Reference book sale"
	ReasonTopUp        = "Wallet top-up"
	ReasonDemoCredit   = "Demo credit"
)

// Transaction is a single immutable row in the wallet audit log. Rows are
// created only by the settlement engine and are never updated or deleted.
type Transaction struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Direction      Direction `json:"direction"`
	Amount         int64     `json:"amount"`
	Reason         string    `json:"reason"`
	RelatedItem    string    `json:"related_item,omitempty"`
	RelatedAccount string    `json:"related_account,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ─── Settlement Batch ───────────────────────────────────────────────────────

// AccountDelta is a signed balance change for one account.
type AccountDelta struct {
	AccountID string
	Delta     int64
}

// Batch is one economic event's worth of ledger mutations. The store applies
// everything in a batch as a single atomic unit: all balance deltas, all
// transaction rows, the optional entitlement grant, and the optional book
// sale counter bump commit together or not at all.
type Batch struct {
	Deltas       []AccountDelta
	Transactions []Transaction
	Entitlement  *Entitlement
	BookSold     string // book id whose purchase count increments, "" if none
}

// Balanced reports whether the batch's credits equal its debits. Batches that
// mint new money (top-ups, demo credits) have no debit side and are exempt.
func (b Batch) Balanced() bool {
	var credit, debit int64
	for _, t := range b.Transactions {
		switch t.Direction {
		case DirCredit:
			credit += t.Amount
		case DirDebit:
			debit += t.Amount
		}
	}
	if debit == 0 {
		return true
	}
	return credit == debit
}
