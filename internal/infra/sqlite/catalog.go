package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/notemarket/notemarket/internal/domain"
)

// ─── Catalog Operations ─────────────────────────────────────────────────────
// The item catalog is a collaborator of the settlement core: the wallet only
// reads {price, flags, owner} from it. Insert helpers exist so the backend
// can be seeded and exercised standalone.

// InsertNote adds a note to the catalog, assigning an id when empty.
func (db *DB) InsertNote(ctx context.Context, n domain.Note) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, subject, owner_account, price, is_premium, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Subject, n.OwnerAccount, n.Price, boolInt(n.IsPremium), boolInt(n.IsPublic))
	if err != nil {
		return "", classifyErr(err)
	}
	return n.ID, nil
}

// GetNote retrieves a note by id.
func (db *DB) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var n domain.Note
	var premium, public int
	err := db.db.QueryRowContext(ctx, `
		SELECT id, title, subject, owner_account, price, is_premium, is_public
		FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Subject, &n.OwnerAccount, &n.Price, &premium, &public)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, classifyErr(err)
	}
	n.IsPremium = premium == 1
	n.IsPublic = public == 1
	return &n, nil
}

// InsertBook adds a reference book to the catalog, assigning an id when empty.
func (db *DB) InsertBook(ctx context.Context, b domain.ReferenceBook) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO reference_books (id, title, author, subject, price, is_active, purchase_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Title, b.Author, b.Subject, b.Price, boolInt(b.IsActive), b.PurchaseCount)
	if err != nil {
		return "", classifyErr(err)
	}
	return b.ID, nil
}

// GetBook retrieves a reference book by id.
func (db *DB) GetBook(ctx context.Context, id string) (*domain.ReferenceBook, error) {
	var b domain.ReferenceBook
	var active int
	err := db.db.QueryRowContext(ctx, `
		SELECT id, title, author, subject, price, is_active, purchase_count
		FROM reference_books WHERE id = ?
	`, id).Scan(&b.ID, &b.Title, &b.Author, &b.Subject, &b.Price, &active, &b.PurchaseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, classifyErr(err)
	}
	b.IsActive = active == 1
	return &b, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
