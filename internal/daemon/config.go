// Package daemon wires configuration, storage, and the HTTP server into a
// running notemarket backend.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration, loaded from TOML.
type Config struct {
	API      APIConfig      `toml:"api"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Platform PlatformConfig `toml:"platform"`
	Payment  PaymentConfig  `toml:"payment"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// LedgerConfig controls ledger persistence.
type LedgerConfig struct {
	Dir string `toml:"dir"`
}

// PlatformConfig names the commission-sink account. The account id is an
// explicit configuration reference, provisioned at startup — never located
// by scanning for a flagged row.
type PlatformConfig struct {
	AccountID string `toml:"account_id"`
	Username  string `toml:"username"`
}

// PaymentConfig holds the payment-gateway shared secret.
type PaymentConfig struct {
	WebhookSecret string `toml:"webhook_secret"`
}

// DefaultConfig returns safe defaults for local development.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:          "127.0.0.1",
			Port:          8820,
			EnableMetrics: true,
		},
		Ledger: LedgerConfig{
			Dir: defaultDataDir(),
		},
		Platform: PlatformConfig{
			AccountID: "platform",
			Username:  "platform",
		},
		Payment: PaymentConfig{
			WebhookSecret: "",
		},
	}
}

// LoadConfig reads the config file at path over the defaults. A missing file
// is not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(defaultDataDir(), "config.toml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port the API listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notemarket"
	}
	return filepath.Join(home, ".notemarket")
}
