// Package payment reconciles external payment-gateway confirmations into
// ledger credits. The gateway signs each confirmation with a shared secret;
// the bridge recomputes the signature before any money moves.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/notemarket/notemarket/internal/domain"
)

// Settler is the single settlement primitive the bridge delegates to.
type Settler interface {
	SettleTopUp(ctx context.Context, accountID string, gross int64) (*domain.Receipt, error)
}

// Bridge verifies gateway confirmations and settles them as top-ups.
type Bridge struct {
	settler Settler
	secret  []byte
}

// NewBridge creates a payment bridge with the gateway's shared secret.
func NewBridge(settler Settler, secret string) *Bridge {
	return &Bridge{settler: settler, secret: []byte(secret)}
}

// Sign computes the expected hex signature for an order/payment pair.
// Exposed so tests and operator tooling can produce valid confirmations.
func (b *Bridge) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, b.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAndSettle checks the supplied signature in constant time and, on
// match, credits claimedAmount to the account as a top-up. A mismatch
// produces no mutation.
//
// The amount is caller-supplied and not re-fetched from the gateway by order
// id; callers must treat the gateway callback as the trust boundary.
func (b *Bridge) VerifyAndSettle(ctx context.Context, accountID, orderID, paymentID, signature string, claimedAmount int64) (*domain.Receipt, error) {
	expected := b.Sign(orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domain.ErrInvalidSignature
	}
	return b.settler.SettleTopUp(ctx, accountID, claimedAmount)
}
