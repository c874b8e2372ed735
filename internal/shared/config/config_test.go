package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example")
	t.Setenv("GUARD_ADDR", "0x53859FAe789c92dceB8c9aF61b13e458C4313fe7")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":1337", cfg.Server.Address)
	assert.Equal(t, uint64(97741), cfg.Blockchain.ChainID)
	assert.Equal(t, "PEPU", cfg.Blockchain.NativeSymbol)
	assert.Equal(t, "https://rpc.example", cfg.Blockchain.EthereumRPCURL)
	assert.Equal(t, "pepe-unchained", cfg.Sources.GeckoNetwork)
	assert.Equal(t, 0.2, cfg.Swap.FeePct)
	assert.Equal(t, 3.0, cfg.Swap.DefaultSlippagePct)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerMinute)
	assert.Empty(t, cfg.Blockchain.WalletRPCURL)
}

func TestLoadConfig_MissingRPCURL(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfig_MissingGuardAddress(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example")
	t.Setenv("GUARD_ADDR", "")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfig_YAMLOverride(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example")
	t.Setenv("GUARD_ADDR", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  address: ":8080"
blockchain:
  guard_address: "0x53859FAe789c92dceB8c9aF61b13e458C4313fe7"
swap:
  default_slippage_pct: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "0x53859FAe789c92dceB8c9aF61b13e458C4313fe7", cfg.Blockchain.GuardAddress)
	assert.Equal(t, 1.0, cfg.Swap.DefaultSlippagePct)
	// untouched sections keep their defaults
	assert.Equal(t, 0.2, cfg.Swap.FeePct)
	assert.Equal(t, uint64(97741), cfg.Blockchain.ChainID)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example")
	t.Setenv("GUARD_ADDR", "0x0000000000000000000000000000000000000042")
	t.Setenv("WALLET_RPC_URL", "https://wallet.example")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0x0000000000000000000000000000000000000042", cfg.Blockchain.GuardAddress)
	assert.Equal(t, "https://wallet.example", cfg.Blockchain.WalletRPCURL)
}
