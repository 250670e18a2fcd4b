package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/notemarket/notemarket/internal/domain"
	"github.com/notemarket/notemarket/internal/infra/sqlite"
	"github.com/notemarket/notemarket/internal/payment"
	"github.com/notemarket/notemarket/internal/wallet"
)

const (
	testPlatform = "platform"
	testSecret   = "webhook-secret"
)

func setupServer(t *testing.T) (*Server, *sqlite.DB, *payment.Bridge) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureAccount(context.Background(), testPlatform, "platform"); err != nil {
		t.Fatal(err)
	}

	engine := wallet.NewEngine(db, db, testPlatform)
	bridge := payment.NewBridge(engine, testSecret)
	return NewServer(db, engine, bridge), db, bridge
}

func doJSON(t *testing.T, h http.Handler, method, path, account string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if account != "" {
		req.Header.Set("X-Account-ID", account)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"username": username})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var a domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	return a.ID
}

// ─── Accounts & Balance ─────────────────────────────────────────────────────

func TestRegisterAndBalance(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()

	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodGet, "/api/wallet", id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balance: status %d", w.Code)
	}
	var resp map[string]int64
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["balance"] != 0 {
		t.Errorf("fresh balance = %d, want 0", resp["balance"])
	}
}

func TestBalance_MissingIdentity(t *testing.T) {
	s, _, _ := setupServer(t)
	w := doJSON(t, s.Handler(), http.MethodGet, "/api/wallet", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	register(t, h, "alice")

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ─── Top-up ─────────────────────────────────────────────────────────────────

func TestTopUp_SplitsNinetyTen(t *testing.T) {
	s, db, _ := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodPost, "/api/wallet/topup", id, map[string]int64{"amount": 100})
	if w.Code != http.StatusOK {
		t.Fatalf("topup: status %d: %s", w.Code, w.Body.String())
	}
	var receipt domain.Receipt
	json.Unmarshal(w.Body.Bytes(), &receipt)
	if receipt.Balance != 90 {
		t.Errorf("balance after topup = %d, want 90", receipt.Balance)
	}

	if bal, _ := db.Balance(context.Background(), testPlatform); bal != 10 {
		t.Errorf("platform balance = %d, want 10", bal)
	}
}

func TestTopUp_InvalidAmount(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodPost, "/api/wallet/topup", id, map[string]int64{"amount": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ─── Payment Verification ───────────────────────────────────────────────────

func TestVerifyPayment_Valid(t *testing.T) {
	s, _, bridge := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodPost, "/api/wallet/verify-payment", id, map[string]interface{}{
		"order_id":   "order-1",
		"payment_id": "pay-1",
		"signature":  bridge.Sign("order-1", "pay-1"),
		"amount":     200,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", w.Code, w.Body.String())
	}
	var receipt domain.Receipt
	json.Unmarshal(w.Body.Bytes(), &receipt)
	if receipt.Balance != 180 {
		t.Errorf("balance = %d, want 180", receipt.Balance)
	}
}

func TestVerifyPayment_Tampered(t *testing.T) {
	s, db, _ := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodPost, "/api/wallet/verify-payment", id, map[string]interface{}{
		"order_id":   "order-1",
		"payment_id": "pay-1",
		"signature":  "deadbeef",
		"amount":     200,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	// Zero mutation: no balance change, no transactions.
	if bal, _ := db.Balance(context.Background(), id); bal != 0 {
		t.Errorf("balance = %d, want 0", bal)
	}
	txs, _ := db.Transactions(context.Background(), id, 10)
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want 0", len(txs))
	}
}

// ─── Demo Credit ────────────────────────────────────────────────────────────

func TestDemoCredit_OperatorOnly(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	alice := register(t, h, "alice")
	bob := register(t, h, "bob")

	w := doJSON(t, h, http.MethodPost, "/api/wallet/demo-credit", alice, map[string]interface{}{
		"account_id": bob,
		"amount":     100,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/wallet/demo-credit", testPlatform, map[string]interface{}{
		"account_id": bob,
		"amount":     100,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("operator demo credit: status %d: %s", w.Code, w.Body.String())
	}
}

// ─── Purchases ──────────────────────────────────────────────────────────────

func TestBuyNote_EndToEnd(t *testing.T) {
	s, db, _ := setupServer(t)
	h := s.Handler()
	ctx := context.Background()

	seller := register(t, h, "seller")
	buyer := register(t, h, "buyer")

	noteID, err := db.InsertNote(ctx, domain.Note{
		Title: "Calc II", Subject: "Math", OwnerAccount: seller,
		Price: 100, IsPremium: true, IsPublic: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	doJSON(t, h, http.MethodPost, "/api/wallet/demo-credit", testPlatform,
		map[string]interface{}{"account_id": buyer, "amount": 500})

	w := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/notes/%s/buy", noteID), buyer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("buy: status %d: %s", w.Code, w.Body.String())
	}
	var receipt domain.Receipt
	json.Unmarshal(w.Body.Bytes(), &receipt)
	if receipt.Balance != 400 {
		t.Errorf("balance = %d, want 400", receipt.Balance)
	}

	// Access check flips to true.
	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%s/access", noteID), buyer, nil)
	var access map[string]bool
	json.Unmarshal(w.Body.Bytes(), &access)
	if !access["has_access"] {
		t.Error("buyer should have access after purchase")
	}

	// Second buy is rejected.
	w = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/notes/%s/buy", noteID), buyer, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("repeat buy status = %d, want 400", w.Code)
	}
}

func TestBuyNote_InsufficientBalance(t *testing.T) {
	s, db, _ := setupServer(t)
	h := s.Handler()

	seller := register(t, h, "seller")
	buyer := register(t, h, "buyer")
	noteID, _ := db.InsertNote(context.Background(), domain.Note{
		Title: "N", Subject: "S", OwnerAccount: seller,
		Price: 100, IsPremium: true,
	})

	w := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/notes/%s/buy", noteID), buyer, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", w.Code)
	}
}

func TestBuyNote_NotFound(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	buyer := register(t, h, "buyer")

	w := doJSON(t, h, http.MethodPost, "/api/notes/missing/buy", buyer, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBuyBook_EndToEnd(t *testing.T) {
	s, db, _ := setupServer(t)
	h := s.Handler()

	buyer := register(t, h, "buyer")
	bookID, _ := db.InsertBook(context.Background(), domain.ReferenceBook{
		Title: "B", Author: "A", Subject: "S", Price: 300, IsActive: true,
	})

	doJSON(t, h, http.MethodPost, "/api/wallet/demo-credit", testPlatform,
		map[string]interface{}{"account_id": buyer, "amount": 1000})

	w := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/books/%s/buy", bookID), buyer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("buy book: status %d: %s", w.Code, w.Body.String())
	}

	if bal, _ := db.Balance(context.Background(), testPlatform); bal != 300 {
		t.Errorf("platform balance = %d, want 300 (full book price)", bal)
	}
}

// ─── Transaction Log ────────────────────────────────────────────────────────

func TestTransactions_Endpoint(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	doJSON(t, h, http.MethodPost, "/api/wallet/topup", id, map[string]int64{"amount": 100})
	doJSON(t, h, http.MethodPost, "/api/wallet/topup", id, map[string]int64{"amount": 50})

	w := doJSON(t, h, http.MethodGet, "/api/wallet/transactions?limit=10", id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("transactions: status %d", w.Code)
	}
	var txs []domain.Transaction
	json.Unmarshal(w.Body.Bytes(), &txs)
	if len(txs) != 2 {
		t.Fatalf("len(txs) = %d, want 2", len(txs))
	}
	// Newest first: the 50 top-up credited 45.
	if txs[0].Amount != 45 {
		t.Errorf("txs[0].Amount = %d, want 45", txs[0].Amount)
	}
}

func TestTransactions_InvalidLimit(t *testing.T) {
	s, _, _ := setupServer(t)
	h := s.Handler()
	id := register(t, h, "alice")

	w := doJSON(t, h, http.MethodGet, "/api/wallet/transactions?limit=abc", id, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := setupServer(t)
	w := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}
