package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/notemarket/notemarket/internal/api"
	"github.com/notemarket/notemarket/internal/infra/sqlite"
	"github.com/notemarket/notemarket/internal/payment"
	"github.com/notemarket/notemarket/internal/wallet"
)

// Run starts the backend and blocks until the server stops.
func Run(ctx context.Context, cfg Config) error {
	db, err := sqlite.Open(cfg.Ledger.Dir)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer db.Close()

	// The platform account must exist before any settlement runs.
	if err := db.EnsureAccount(ctx, cfg.Platform.AccountID, cfg.Platform.Username); err != nil {
		return fmt.Errorf("provision platform account: %w", err)
	}

	engine := wallet.NewEngine(db, db, cfg.Platform.AccountID)
	bridge := payment.NewBridge(engine, cfg.Payment.WebhookSecret)

	server := api.NewServer(db, engine, bridge)
	if cfg.API.EnableMetrics {
		server.EnableMetrics()
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("notemarket listening on %s (platform account %s)", cfg.Addr(), cfg.Platform.AccountID)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
