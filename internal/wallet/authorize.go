// Package wallet implements purchase authorization and the settlement engine:
// the only code allowed to decide splits and move money between accounts.
package wallet

import (
	"context"
	"fmt"

	"github.com/notemarket/notemarket/internal/domain"
)

// Authorization captures a purchase decision at the moment of check: buyer,
// item, price, and payee. Settlement consumes it immediately so a stale price
// can never be re-read between the check and the money movement.
type Authorization struct {
	Buyer  string
	Item   domain.ItemRef
	Price  int64
	Seller string // owning account for notes, "" for books (platform revenue)
}

// Authorize validates a purchase request against catalog and ledger state.
// Checks run in a fixed order, each with a distinct failure:
//
//  1. item exists and is active
//  2. item requires payment
//  3. buyer is not the item's owner
//  4. buyer does not already own the item
//  5. buyer balance covers the price
func (e *Engine) Authorize(ctx context.Context, buyer string, ref domain.ItemRef) (*Authorization, error) {
	auth := &Authorization{Buyer: buyer, Item: ref}

	switch ref.Kind {
	case domain.ItemNote:
		note, err := e.catalog.GetNote(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !note.IsPremium || note.Price <= 0 {
			return nil, fmt.Errorf("note %s: %w", ref.ID, domain.ErrNotPurchasable)
		}
		if note.OwnerAccount == buyer {
			return nil, domain.ErrSelfPurchase
		}
		auth.Price = note.Price
		auth.Seller = note.OwnerAccount

	case domain.ItemBook:
		book, err := e.catalog.GetBook(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !book.IsActive {
			return nil, fmt.Errorf("book %s: %w", ref.ID, domain.ErrItemInactive)
		}
		if book.Price <= 0 {
			return nil, fmt.Errorf("book %s: %w", ref.ID, domain.ErrNotPurchasable)
		}
		auth.Price = book.Price

	default:
		return nil, fmt.Errorf("item kind %q: %w", ref.Kind, domain.ErrNotFound)
	}

	owned, err := e.store.HasEntitlement(ctx, buyer, ref.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, domain.ErrAlreadyOwned
	}

	balance, err := e.store.Balance(ctx, buyer)
	if err != nil {
		return nil, err
	}
	if balance < auth.Price {
		return nil, domain.ErrInsufficientBalance
	}

	return auth, nil
}
