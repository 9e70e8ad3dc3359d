package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nzyazin/bank/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVER_ADDR",
	"LOG_DIR",
	"SHUTDOWN_TIMEOUT",
	"CHECKING_OVERDRAFT_LIMIT",
	"SAVINGS_MAX_WITHDRAWAL_RATIO",
	"TLS_CERT_FILE",
	"TLS_KEY_FILE",
}

// clearEnv unsets config variables for the test and afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	unset := func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}
	unset()
	t.Cleanup(unset)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Accounts.CheckingOverdraftLimit.IsZero())
	assert.True(t, cfg.Accounts.SavingsMaxWithdrawalRatio.IsZero())
	assert.False(t, cfg.TLSEnabled())
}

func TestLoadTLSFiles(t *testing.T) {
	clearEnv(t)
	os.Setenv("TLS_CERT_FILE", "/etc/bank/tls.crt")
	os.Setenv("TLS_KEY_FILE", "/etc/bank/tls.key")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, "/etc/bank/tls.crt", cfg.TLSCertFile)
	assert.Equal(t, "/etc/bank/tls.key", cfg.TLSKeyFile)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.env")
	content := "SERVER_ADDR=:9090\nLOG_DIR=/tmp/bank\nSHUTDOWN_TIMEOUT=5s\n" +
		"CHECKING_OVERDRAFT_LIMIT=50\nSAVINGS_MAX_WITHDRAWAL_RATIO=0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "/tmp/bank", cfg.LogDir)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Accounts.CheckingOverdraftLimit.Equal(decimal.NewFromInt(50)))
	assert.True(t, cfg.Accounts.SavingsMaxWithdrawalRatio.Equal(decimal.RequireFromString("0.5")))
}

func TestLoadEnvironmentWins(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVER_ADDR", ":7070")

	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_ADDR=:9090\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ServerAddr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SHUTDOWN_TIMEOUT":             "soon",
		"CHECKING_OVERDRAFT_LIMIT":     "-10",
		"SAVINGS_MAX_WITHDRAWAL_RATIO": "2",
		"TLS_CERT_FILE":                "/etc/bank/tls.crt",
		"TLS_KEY_FILE":                 "/etc/bank/tls.key",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			os.Setenv(key, value)

			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
