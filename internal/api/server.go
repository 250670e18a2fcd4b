// Package api provides the HTTP server for the notemarket backend.
// It exposes the wallet, purchase, and payment-verification endpoints.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notemarket/notemarket/internal/domain"
	"github.com/notemarket/notemarket/internal/payment"
	"github.com/notemarket/notemarket/internal/wallet"
)

// Server is the notemarket HTTP API server.
type Server struct {
	store          domain.LedgerStore
	engine         *wallet.Engine
	bridge         *payment.Bridge
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(store domain.LedgerStore, engine *wallet.Engine, bridge *payment.Bridge) *Server {
	return &Server{store: store, engine: engine, bridge: bridge}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Post("/api/accounts", s.handleRegister)

	r.Route("/api/wallet", func(r chi.Router) {
		r.Get("/", s.handleBalance)
		r.Get("/transactions", s.handleTransactions)
		r.Post("/topup", s.handleTopUp)
		r.Post("/verify-payment", s.handleVerifyPayment)
		r.Post("/demo-credit", s.handleDemoCredit)
	})

	r.Post("/api/notes/{id}/buy", s.handleBuyNote)
	r.Get("/api/notes/{id}/access", s.handleNoteAccess)
	r.Post("/api/books/{id}/buy", s.handleBuyBook)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// accountID extracts the authenticated account from the request. Identity is
// supplied by an external provider and trusted unconditionally.
func accountID(r *http.Request) string {
	return r.Header.Get("X-Account-ID")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps a domain error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrItemInactive),
		errors.Is(err, domain.ErrNotPurchasable),
		errors.Is(err, domain.ErrSelfPurchase),
		errors.Is(err, domain.ErrAlreadyOwned),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrLedgerConflict):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
