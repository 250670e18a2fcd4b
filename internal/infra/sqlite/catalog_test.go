package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/notemarket/notemarket/internal/domain"
)

func TestNoteRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner, _ := db.CreateAccount(ctx, "seller")
	id, err := db.InsertNote(ctx, domain.Note{
		Title:        "Signals and Systems",
		Subject:      "EE",
		OwnerAccount: owner.ID,
		Price:        250,
		IsPremium:    true,
		IsPublic:     true,
	})
	if err != nil {
		t.Fatalf("InsertNote() error: %v", err)
	}

	n, err := db.GetNote(ctx, id)
	if err != nil {
		t.Fatalf("GetNote() error: %v", err)
	}
	if n.Price != 250 || !n.IsPremium || n.OwnerAccount != owner.ID {
		t.Errorf("GetNote() = %+v, fields do not round-trip", n)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetNote(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetNote(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBookRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.InsertBook(ctx, domain.ReferenceBook{
		Title:    "Higher Engineering Mathematics",
		Author:   "Grewal",
		Subject:  "Math",
		Price:    500,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("InsertBook() error: %v", err)
	}

	b, err := db.GetBook(ctx, id)
	if err != nil {
		t.Fatalf("GetBook() error: %v", err)
	}
	if b.Price != 500 || !b.IsActive || b.PurchaseCount != 0 {
		t.Errorf("GetBook() = %+v, fields do not round-trip", b)
	}
}

func TestBookSold_IncrementsPurchaseCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, _ := db.InsertBook(ctx, domain.ReferenceBook{
		Title: "Book", Author: "A", Subject: "S", Price: 100, IsActive: true,
	})
	buyer, _ := db.CreateAccount(ctx, "buyer")
	credit(t, db, buyer.ID, 100)

	err := db.ApplyBatch(ctx, domain.Batch{
		Deltas:   []domain.AccountDelta{{AccountID: buyer.ID, Delta: -100}},
		BookSold: id,
	})
	if err != nil {
		t.Fatal(err)
	}

	b, _ := db.GetBook(ctx, id)
	if b.PurchaseCount != 1 {
		t.Errorf("PurchaseCount = %d, want 1", b.PurchaseCount)
	}
}
