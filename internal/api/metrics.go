package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/notemarket/notemarket/internal/domain"
)

// ─── Prometheus Metrics ─────────────────────────────────────────────────────

var (
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notemarket_settlements_total",
		Help: "Committed settlements by kind.",
	}, []string{"kind"})

	settlementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notemarket_settlement_failures_total",
		Help: "Rejected or failed settlements by kind and reason.",
	}, []string{"kind", "reason"})
)

// observeSettlementFailure records a failed settlement under a stable
// low-cardinality reason label.
func observeSettlementFailure(kind string, err error) {
	settlementFailures.WithLabelValues(kind, failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrItemInactive):
		return "item_inactive"
	case errors.Is(err, domain.ErrNotPurchasable):
		return "not_purchasable"
	case errors.Is(err, domain.ErrSelfPurchase):
		return "self_purchase"
	case errors.Is(err, domain.ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrPlatformAccountMissing):
		return "platform_missing"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrLedgerConflict):
		return "ledger_conflict"
	default:
		return "storage"
	}
}
