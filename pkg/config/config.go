package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const DefaultFile = "config.env"

type Config struct {
	ServerAddr      string
	TLSCertFile     string
	TLSKeyFile      string
	LogDir          string
	ShutdownTimeout time.Duration
	Accounts        AccountConfig
}

// AccountConfig holds defaults applied when a request leaves the policy open.
type AccountConfig struct {
	CheckingOverdraftLimit    decimal.Decimal
	SavingsMaxWithdrawalRatio decimal.Decimal
}

// Load reads path (if it exists) into the environment without overriding
// variables that are already set, then builds the Config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	timeout, err := time.ParseDuration(getenv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	overdraft, err := decimal.NewFromString(getenv("CHECKING_OVERDRAFT_LIMIT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKING_OVERDRAFT_LIMIT: %w", err)
	}
	if overdraft.IsNegative() {
		return nil, fmt.Errorf("invalid CHECKING_OVERDRAFT_LIMIT: %s is negative", overdraft)
	}

	ratio, err := decimal.NewFromString(getenv("SAVINGS_MAX_WITHDRAWAL_RATIO", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid SAVINGS_MAX_WITHDRAWAL_RATIO: %w", err)
	}
	if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid SAVINGS_MAX_WITHDRAWAL_RATIO: %s is outside [0, 1]", ratio)
	}

	certFile, keyFile := getenv("TLS_CERT_FILE", ""), getenv("TLS_KEY_FILE", "")
	if (certFile == "") != (keyFile == "") {
		return nil, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	return &Config{
		ServerAddr:      getenv("SERVER_ADDR", ":8080"),
		TLSCertFile:     certFile,
		TLSKeyFile:      keyFile,
		LogDir:          getenv("LOG_DIR", "logs"),
		ShutdownTimeout: timeout,
		Accounts: AccountConfig{
			CheckingOverdraftLimit:    overdraft,
			SavingsMaxWithdrawalRatio: ratio,
		},
	}, nil
}

// TLSEnabled reports whether the server should listen with TLS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
