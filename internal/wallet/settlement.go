package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notemarket/notemarket/internal/domain"
)

// maxRetries bounds the automatic re-run of a settlement that lost a race
// with a concurrent writer. Authorization is re-run from scratch each time
// because balances may have changed.
const maxRetries = 3

// Engine computes commission splits and applies each economic event as one
// atomic ledger batch. It is the sole creator of wallet transactions.
type Engine struct {
	store      domain.LedgerStore
	catalog    domain.Catalog
	platformID string
}

// NewEngine creates a settlement engine. platformID is the well-known
// commission-sink account injected from configuration.
func NewEngine(store domain.LedgerStore, catalog domain.Catalog, platformID string) *Engine {
	return &Engine{store: store, catalog: catalog, platformID: platformID}
}

// PlatformID returns the configured commission-sink account id.
func (e *Engine) PlatformID() string { return e.platformID }

// Split divides an amount into the counterparty share and the platform
// commission. Integer floor division guarantees the shares sum exactly to
// amount; the remainder lands on the platform side.
func Split(amount int64) (counterparty, platform int64) {
	counterparty = amount * 9 / 10
	platform = amount - counterparty
	return
}

// ─── Purchases ──────────────────────────────────────────────────────────────

// Purchase authorizes and settles a purchase, retrying a bounded number of
// times when the batch loses a ledger race.
func (e *Engine) Purchase(ctx context.Context, buyer string, ref domain.ItemRef) (*domain.Receipt, error) {
	var receipt *domain.Receipt
	err := e.withRetry(func() error {
		auth, err := e.Authorize(ctx, buyer, ref)
		if err != nil {
			return err
		}
		receipt, err = e.SettlePurchase(ctx, auth)
		return err
	})
	return receipt, err
}

// SettlePurchase applies a previously authorized purchase as one atomic
// batch: the buyer debit, the counterparty credit(s), the entitlement grant,
// and (for books) the sale counter bump.
func (e *Engine) SettlePurchase(ctx context.Context, auth *Authorization) (*domain.Receipt, error) {
	if auth.Price < 1 {
		return nil, domain.ErrInvalidAmount
	}
	if err := e.requirePlatform(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	batch := domain.Batch{
		Entitlement: &domain.Entitlement{
			AccountID: auth.Buyer,
			ItemID:    auth.Item.ID,
			Kind:      auth.Item.Kind,
			GrantedAt: now,
		},
	}

	switch auth.Item.Kind {
	case domain.ItemNote:
		sellerShare, platformShare := Split(auth.Price)
		batch.Deltas = []domain.AccountDelta{
			{AccountID: auth.Buyer, Delta: -auth.Price},
			{AccountID: auth.Seller, Delta: sellerShare},
			{AccountID: e.platformID, Delta: platformShare},
		}
		batch.Transactions = txRows(now,
			txRow{auth.Buyer, domain.DirDebit, auth.Price, domain.ReasonNotePurchase, auth.Item.ID, auth.Seller},
			txRow{auth.Seller, domain.DirCredit, sellerShare, domain.ReasonNoteSale, auth.Item.ID, auth.Buyer},
			txRow{e.platformID, domain.DirCredit, platformShare, domain.ReasonCommission, auth.Item.ID, auth.Buyer},
		)

	case domain.ItemBook:
		// Books have no seller; the full price is platform revenue.
		batch.Deltas = []domain.AccountDelta{
			{AccountID: auth.Buyer, Delta: -auth.Price},
			{AccountID: e.platformID, Delta: auth.Price},
		}
		batch.Transactions = txRows(now,
			txRow{auth.Buyer, domain.DirDebit, auth.Price, domain.ReasonBookPurchase, auth.Item.ID, ""},
			txRow{e.platformID, domain.DirCredit, auth.Price, domain.ReasonBookSale, auth.Item.ID, ""},
		)
		batch.BookSold = auth.Item.ID

	default:
		return nil, fmt.Errorf("item kind %q: %w", auth.Item.Kind, domain.ErrNotFound)
	}

	return e.commit(ctx, auth.Buyer, batch)
}

// ─── Top-ups ────────────────────────────────────────────────────────────────

// SettleTopUp credits a gross external payment into the ledger. The account
// receives 90% as spendable balance; the remaining 10% is routed to the
// platform as a service fee. This split is deliberate, not rounding loss.
func (e *Engine) SettleTopUp(ctx context.Context, accountID string, gross int64) (*domain.Receipt, error) {
	if gross < 1 {
		return nil, domain.ErrInvalidAmount
	}
	if err := e.requirePlatform(ctx); err != nil {
		return nil, err
	}
	if _, err := e.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	userShare, platformShare := Split(gross)
	now := time.Now().UTC()

	var receipt *domain.Receipt
	err := e.withRetry(func() error {
		batch := domain.Batch{
			Deltas: []domain.AccountDelta{
				{AccountID: accountID, Delta: userShare},
				{AccountID: e.platformID, Delta: platformShare},
			},
			Transactions: txRows(now,
				txRow{accountID, domain.DirCredit, userShare, domain.ReasonTopUp, "", e.platformID},
				txRow{e.platformID, domain.DirCredit, platformShare, domain.ReasonCommission, "", accountID},
			),
		}
		var err error
		receipt, err = e.commit(ctx, accountID, batch)
		return err
	})
	return receipt, err
}

// ─── Demo Credits ───────────────────────────────────────────────────────────

// SettleDemoCredit mints demo money onto the target account. Only the
// platform operator account may call it.
func (e *Engine) SettleDemoCredit(ctx context.Context, operatorID, targetID string, amount int64) (*domain.Receipt, error) {
	if operatorID != e.platformID {
		return nil, domain.ErrUnauthorized
	}
	if amount < 1 {
		return nil, domain.ErrInvalidAmount
	}
	if err := e.requirePlatform(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var receipt *domain.Receipt
	err := e.withRetry(func() error {
		batch := domain.Batch{
			Deltas: []domain.AccountDelta{{AccountID: targetID, Delta: amount}},
			Transactions: txRows(now,
				txRow{targetID, domain.DirCredit, amount, domain.ReasonDemoCredit, "", operatorID},
			),
		}
		var err error
		receipt, err = e.commit(ctx, targetID, batch)
		return err
	})
	return receipt, err
}

// ─── Internals ──────────────────────────────────────────────────────────────

// requirePlatform re-checks the commission sink exists at settlement time.
// A missing platform account halts settlement; nothing falls back elsewhere.
func (e *Engine) requirePlatform(ctx context.Context) error {
	_, err := e.store.GetAccount(ctx, e.platformID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrPlatformAccountMissing
	}
	return err
}

// commit applies the batch and assembles the receipt for initiator.
// A batch that debits anything must credit the same total; money is neither
// created nor destroyed by a purchase.
func (e *Engine) commit(ctx context.Context, initiator string, batch domain.Batch) (*domain.Receipt, error) {
	if !batch.Balanced() {
		return nil, fmt.Errorf("unbalanced settlement batch: %w", domain.ErrInvalidAmount)
	}
	if err := e.store.ApplyBatch(ctx, batch); err != nil {
		return nil, err
	}
	balance, err := e.store.Balance(ctx, initiator)
	if err != nil {
		return nil, err
	}
	return &domain.Receipt{Transactions: batch.Transactions, Balance: balance}, nil
}

// withRetry re-runs fn while it fails with ErrLedgerConflict, up to
// maxRetries attempts. All other errors are terminal.
func (e *Engine) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrLedgerConflict) {
			return err
		}
	}
	return err
}

type txRow struct {
	account   string
	direction domain.Direction
	amount    int64
	reason    string
	item      string
	related   string
}

// txRows materializes transaction rows, dropping zero-amount shares (a
// 90/10 split of a tiny price can leave one side empty; the log records
// amounts >= 1 only and the deltas stay consistent either way).
func txRows(at time.Time, rows ...txRow) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		if r.amount < 1 {
			continue
		}
		out = append(out, domain.Transaction{
			ID:             uuid.NewString(),
			AccountID:      r.account,
			Direction:      r.direction,
			Amount:         r.amount,
			Reason:         r.reason,
			RelatedItem:    r.item,
			RelatedAccount: r.related,
			CreatedAt:      at,
		})
	}
	return out
}
