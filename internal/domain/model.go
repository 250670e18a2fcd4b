// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Account Types ──────────────────────────────────────────────────────────

// Account is a wallet holder. Balance is kept in the smallest currency unit
// and is mutated only through settlement batches, never directly.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// ─── Item Types ─────────────────────────────────────────────────────────────

// ItemKind discriminates the two priced item variants.
type ItemKind string

const (
	ItemNote ItemKind = "note"
	ItemBook ItemKind = "book"
)

// ItemRef identifies a priced item by kind and id.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

// Note is a seller-authored study note. Only premium notes with a positive
// price can be bought; proceeds are split between the seller and the platform.
type Note struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	OwnerAccount string `json:"owner_account"`
	Price        int64  `json:"price"`
	IsPremium    bool   `json:"is_premium"`
	IsPublic     bool   `json:"is_public"`
}

// ReferenceBook is a platform-listed book. Books have no seller account, so
// the full sale price is platform revenue.
type ReferenceBook struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Subject       string `json:"subject"`
	Price         int64  `json:"price"`
	IsActive      bool   `json:"is_active"`
	PurchaseCount int64  `json:"purchase_count"`
}

// ─── Entitlement ────────────────────────────────────────────────────────────

// Entitlement is durable proof that an account paid for perpetual access to
// an item. At most one entitlement ever exists per (account, item) pair.
type Entitlement struct {
	AccountID string    `json:"account_id"`
	ItemID    string    `json:"item_id"`
	Kind      ItemKind  `json:"kind"`
	GrantedAt time.Time `json:"granted_at"`
}

// ─── Receipt ────────────────────────────────────────────────────────────────

// Receipt summarizes a committed settlement: the transactions it created and
// the new balance of the initiating account.
type Receipt struct {
	Transactions []Transaction `json:"transactions"`
	Balance      int64         `json:"balance"`
}
