package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notemarket/notemarket/internal/domain"
)

// ─── Account Operations ─────────────────────────────────────────────────────

// CreateAccount registers a new wallet holder with balance zero.
func (db *DB) CreateAccount(ctx context.Context, username string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required: %w", domain.ErrUsernameTaken)
	}

	id := uuid.NewString()
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, balance) VALUES (?, ?, 0)
	`, id, username)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, domain.ErrUsernameTaken
		}
		return nil, classifyErr(err)
	}
	return db.GetAccount(ctx, id)
}

// EnsureAccount creates the account with a fixed id if it does not exist.
// Used at startup to provision the platform operator account from config.
func (db *DB) EnsureAccount(ctx context.Context, id, username string) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, balance) VALUES (?, ?, 0)
		ON CONFLICT(id) DO NOTHING
	`, id, username)
	if err != nil {
		return classifyErr(err)
	}
	return nil
}

// GetAccount retrieves an account by id.
func (db *DB) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	var createdStr string
	err := db.db.QueryRowContext(ctx, `
		SELECT id, username, balance, created_at FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.Username, &a.Balance, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, classifyErr(err)
	}
	a.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdStr)
	return &a, nil
}

// Balance returns the current balance of an account.
func (db *DB) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := db.db.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE id = ?
	`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, classifyErr(err)
	}
	return balance, nil
}
