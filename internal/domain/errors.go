package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. The API layer maps
// each to an HTTP status with errors.Is.

var (
	// Lookup errors
	ErrNotFound     = errors.New("not found")
	ErrItemInactive = errors.New("item is not active")

	// Purchase authorization errors
	ErrNotPurchasable      = errors.New("item is not purchasable")
	ErrSelfPurchase        = errors.New("cannot buy your own note")
	ErrAlreadyOwned        = errors.New("item already purchased")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// Settlement errors
	ErrInvalidAmount          = errors.New("amount must be a positive integer")
	ErrPlatformAccountMissing = errors.New("platform account missing")
	ErrUnauthorized           = errors.New("operation restricted to the platform operator")

	// Payment bridge errors
	ErrInvalidSignature = errors.New("payment signature mismatch")

	// Store errors
	ErrLedgerConflict = errors.New("ledger batch conflicted with a concurrent mutation")
	ErrStorage        = errors.New("ledger store unavailable")

	// Registration errors
	ErrUsernameTaken = errors.New("username already exists")
)
