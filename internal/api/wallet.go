package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/notemarket/notemarket/internal/domain"
)

// ─── Wallet & Purchase Handlers ─────────────────────────────────────────────
//
// POST /api/accounts                 — register a wallet account
// GET  /api/wallet                   — current balance
// GET  /api/wallet/transactions      — audit log, newest first
// POST /api/wallet/topup             — credit a top-up (90/10 split)
// POST /api/wallet/verify-payment    — gateway confirmation → top-up
// POST /api/wallet/demo-credit       — operator-only demo money
// POST /api/notes/{id}/buy           — buy a premium note
// GET  /api/notes/{id}/access        — premium access check
// POST /api/books/{id}/buy           — buy a reference book

// handleRegister creates a wallet account with balance zero.
// POST /api/accounts
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}

	account, err := s.store.CreateAccount(r.Context(), req.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// handleBalance returns the caller's wallet balance.
// GET /api/wallet
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	balance, err := s.store.Balance(r.Context(), acct)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// handleTransactions returns the caller's transactions, newest first.
// GET /api/wallet/transactions?limit=N
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	txs, err := s.store.Transactions(r.Context(), acct, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleTopUp settles a wallet top-up with the 90/10 split.
// POST /api/wallet/topup
func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := s.engine.SettleTopUp(r.Context(), acct, req.Amount)
	if err != nil {
		observeSettlementFailure("topup", err)
		writeDomainError(w, err)
		return
	}
	settlementsTotal.WithLabelValues("topup").Inc()
	writeJSON(w, http.StatusOK, receipt)
}

// handleVerifyPayment verifies a gateway confirmation and settles it.
// POST /api/wallet/verify-payment
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "order_id, payment_id and signature required")
		return
	}

	receipt, err := s.bridge.VerifyAndSettle(r.Context(), acct, req.OrderID, req.PaymentID, req.Signature, req.Amount)
	if err != nil {
		observeSettlementFailure("verify_payment", err)
		writeDomainError(w, err)
		return
	}
	settlementsTotal.WithLabelValues("verify_payment").Inc()
	writeJSON(w, http.StatusOK, receipt)
}

// handleDemoCredit mints demo money; the caller must be the platform operator.
// POST /api/wallet/demo-credit
func (s *Server) handleDemoCredit(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	var req struct {
		AccountID string `json:"account_id"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := req.AccountID
	if target == "" {
		target = acct
	}

	receipt, err := s.engine.SettleDemoCredit(r.Context(), acct, target, req.Amount)
	if err != nil {
		observeSettlementFailure("demo_credit", err)
		writeDomainError(w, err)
		return
	}
	settlementsTotal.WithLabelValues("demo_credit").Inc()
	writeJSON(w, http.StatusOK, receipt)
}

// handleBuyNote purchases a premium note for the caller.
// POST /api/notes/{id}/buy
func (s *Server) handleBuyNote(w http.ResponseWriter, r *http.Request) {
	s.handleBuy(w, r, domain.ItemRef{Kind: domain.ItemNote, ID: chi.URLParam(r, "id")})
}

// handleBuyBook purchases a reference book for the caller.
// POST /api/books/{id}/buy
func (s *Server) handleBuyBook(w http.ResponseWriter, r *http.Request) {
	s.handleBuy(w, r, domain.ItemRef{Kind: domain.ItemBook, ID: chi.URLParam(r, "id")})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request, ref domain.ItemRef) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	receipt, err := s.engine.Purchase(r.Context(), acct, ref)
	if err != nil {
		observeSettlementFailure("purchase_"+string(ref.Kind), err)
		writeDomainError(w, err)
		return
	}
	settlementsTotal.WithLabelValues("purchase_" + string(ref.Kind)).Inc()
	writeJSON(w, http.StatusOK, receipt)
}

// handleNoteAccess reports whether the caller owns a premium note.
// GET /api/notes/{id}/access
func (s *Server) handleNoteAccess(w http.ResponseWriter, r *http.Request) {
	acct := accountID(r)
	if acct == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	owned, err := s.store.HasEntitlement(r.Context(), acct, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_access": owned})
}
