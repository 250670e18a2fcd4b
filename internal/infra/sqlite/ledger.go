package sqlite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/notemarket/notemarket/internal/domain"
)

// ─── Settlement Batch Application ───────────────────────────────────────────

// ApplyBatch applies one settlement event as a single SQLite transaction.
// The transaction begins with the write lock held (immediate locking is set
// on the DSN), so the balance check and the mutation cannot interleave with
// another batch touching the same accounts.
func (db *DB) ApplyBatch(ctx context.Context, batch domain.Batch) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyErr(err)
	}
	defer tx.Rollback()

	// Deltas are merged per account and applied in account-id order.
	for _, d := range mergeDeltas(batch.Deltas) {
		if d.Delta == 0 {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance + ?1
			WHERE id = ?2 AND balance + ?1 >= 0
		`, d.Delta, d.AccountID)
		if err != nil {
			return classifyErr(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classifyErr(err)
		}
		if n == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM accounts WHERE id = ?
			`, d.AccountID).Scan(&exists); err != nil {
				return classifyErr(err)
			}
			if exists == 0 {
				return fmt.Errorf("account %s: %w", d.AccountID, domain.ErrNotFound)
			}
			return domain.ErrInsufficientBalance
		}
	}

	if e := batch.Entitlement; e != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO entitlements (account_id, item_id, item_kind, granted_at)
			VALUES (?, ?, ?, ?)
		`, e.AccountID, e.ItemID, string(e.Kind), e.GrantedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return classifyErr(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classifyErr(err)
		}
		if n == 0 {
			// Lost a duplicate-purchase race: the entitlement was granted
			// by a concurrent batch, so this entire batch must not apply.
			return domain.ErrAlreadyOwned
		}
	}

	for _, t := range batch.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_transactions
				(id, account_id, direction, amount, reason, related_item, related_account, created_at)
			VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)
		`, t.ID, t.AccountID, string(t.Direction), t.Amount, t.Reason,
			t.RelatedItem, t.RelatedAccount, t.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return classifyErr(err)
		}
	}

	if batch.BookSold != "" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE reference_books SET purchase_count = purchase_count + 1 WHERE id = ?
		`, batch.BookSold); err != nil {
			return classifyErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classifyErr(err)
	}
	return nil
}

// mergeDeltas collapses repeated account ids and returns deltas sorted by
// account id so batches touch accounts in a fixed global order.
func mergeDeltas(deltas []domain.AccountDelta) []domain.AccountDelta {
	merged := make(map[string]int64, len(deltas))
	for _, d := range deltas {
		merged[d.AccountID] += d.Delta
	}
	out := make([]domain.AccountDelta, 0, len(merged))
	for id, delta := range merged {
		out = append(out, domain.AccountDelta{AccountID: id, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// ─── Transaction Log ────────────────────────────────────────────────────────

// Transactions lists an account's wallet transactions, newest first.
func (db *DB) Transactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, account_id, direction, amount, reason,
		       COALESCE(related_item, ''), COALESCE(related_account, ''), created_at
		FROM wallet_transactions
		WHERE account_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var dir, createdStr string
		if err := rows.Scan(&t.ID, &t.AccountID, &dir, &t.Amount, &t.Reason,
			&t.RelatedItem, &t.RelatedAccount, &createdStr); err != nil {
			return nil, classifyErr(err)
		}
		t.Direction = domain.Direction(dir)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		result = append(result, t)
	}
	return result, rows.Err()
}

// ─── Entitlements ───────────────────────────────────────────────────────────

// HasEntitlement reports whether an account owns perpetual access to an item.
func (db *DB) HasEntitlement(ctx context.Context, accountID, itemID string) (bool, error) {
	var count int
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entitlements WHERE account_id = ? AND item_id = ?
	`, accountID, itemID).Scan(&count)
	if err != nil {
		return false, classifyErr(err)
	}
	return count > 0, nil
}
