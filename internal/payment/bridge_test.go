package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/notemarket/notemarket/internal/domain"
)

// fakeSettler records top-up calls.
type fakeSettler struct {
	calls   int
	account string
	amount  int64
}

func (f *fakeSettler) SettleTopUp(ctx context.Context, accountID string, gross int64) (*domain.Receipt, error) {
	f.calls++
	f.account = accountID
	f.amount = gross
	return &domain.Receipt{Balance: gross * 9 / 10}, nil
}

func TestVerifyAndSettle_ValidSignature(t *testing.T) {
	settler := &fakeSettler{}
	b := NewBridge(settler, "test-secret")

	sig := b.Sign("order-1", "pay-1")
	receipt, err := b.VerifyAndSettle(context.Background(), "acct-1", "order-1", "pay-1", sig, 100)
	if err != nil {
		t.Fatalf("VerifyAndSettle() error: %v", err)
	}
	if settler.calls != 1 {
		t.Fatalf("settler called %d times, want 1", settler.calls)
	}
	if settler.account != "acct-1" || settler.amount != 100 {
		t.Errorf("settled (%s, %d), want (acct-1, 100)", settler.account, settler.amount)
	}
	if receipt.Balance != 90 {
		t.Errorf("receipt balance = %d, want 90", receipt.Balance)
	}
}

func TestVerifyAndSettle_TamperedSignature(t *testing.T) {
	settler := &fakeSettler{}
	b := NewBridge(settler, "test-secret")

	sig := b.Sign("order-1", "pay-1")
	tampered := sig[:len(sig)-1] + "0"
	if tampered == sig {
		tampered = sig[:len(sig)-1] + "1"
	}

	_, err := b.VerifyAndSettle(context.Background(), "acct-1", "order-1", "pay-1", tampered, 100)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("VerifyAndSettle() error = %v, want ErrInvalidSignature", err)
	}
	if settler.calls != 0 {
		t.Errorf("settler called %d times on invalid signature, want 0", settler.calls)
	}
}

func TestVerifyAndSettle_WrongPayload(t *testing.T) {
	settler := &fakeSettler{}
	b := NewBridge(settler, "test-secret")

	// Signature for a different order must not verify.
	sig := b.Sign("order-2", "pay-1")
	_, err := b.VerifyAndSettle(context.Background(), "acct-1", "order-1", "pay-1", sig, 100)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("VerifyAndSettle() error = %v, want ErrInvalidSignature", err)
	}
	if settler.calls != 0 {
		t.Errorf("settler called %d times, want 0", settler.calls)
	}
}

func TestSign_SecretMatters(t *testing.T) {
	a := NewBridge(nil, "secret-a")
	b := NewBridge(nil, "secret-b")
	if a.Sign("o", "p") == b.Sign("o", "p") {
		t.Error("different secrets produced the same signature")
	}
}
