package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig
	Blockchain BlockchainConfig
	Sources    SourcesConfig
	Swap       SwapConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Address           string        `yaml:"address"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
}

type BlockchainConfig struct {
	EthereumRPCURL     string `yaml:"ethereum_rpc_url"`
	WalletRPCURL       string `yaml:"wallet_rpc_url"`
	ConnectionPoolSize int    `yaml:"connection_pool_size"`
	ChainID            uint64 `yaml:"chain_id"`
	ChainName          string `yaml:"chain_name"`
	NativeSymbol       string `yaml:"native_symbol"`
	GuardAddress       string `yaml:"guard_address"`
	ExplorerWebURL     string `yaml:"explorer_web_url"`
}

type SourcesConfig struct {
	APIBase        string        `yaml:"api_base"`
	GeckoNetwork   string        `yaml:"gecko_network"`
	ExplorerAPIURL string        `yaml:"explorer_api_url"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

type SwapConfig struct {
	// FeePct is the protocol fee added on top of the user-selected
	// slippage tolerance (0.1% to liquidity, 0.1% burned).
	FeePct             float64 `yaml:"fee_pct"`
	DefaultSlippagePct float64 `yaml:"default_slippage_pct"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

func LoadConfig(configPath string) (*Config, error) {
	config := getDefaultConfig()

	if configPath != "" {
		if err := loadFromYAML(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	rpcURL := os.Getenv("ETHEREUM_RPC_URL")
	if rpcURL == "" {
		return nil, fmt.Errorf("ETHEREUM_RPC_URL environment variable is required")
	}
	config.Blockchain.EthereumRPCURL = rpcURL

	// The wallet provider is optional: without one, swap attempts fail
	// with a no-wallet error while the data endpoints keep working.
	if walletURL := os.Getenv("WALLET_RPC_URL"); walletURL != "" {
		config.Blockchain.WalletRPCURL = walletURL
	}
	if guard := os.Getenv("GUARD_ADDR"); guard != "" {
		config.Blockchain.GuardAddress = guard
	}

	if config.Blockchain.GuardAddress == "" {
		return nil, fmt.Errorf("guard contract address is required")
	}

	return config, nil
}

func loadFromYAML(configPath string, config *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           ":1337",
			ShutdownTimeout:   30 * time.Second,
			HealthCheckPeriod: time.Minute,
		},
		Blockchain: BlockchainConfig{
			ConnectionPoolSize: 5,
			ChainID:            97741,
			ChainName:          "Pepe Unchained V2",
			NativeSymbol:       "PEPU",
			ExplorerWebURL:     "https://explorer-pepu-v2-mainnet-0.t.conduit.xyz",
		},
		Sources: SourcesConfig{
			GeckoNetwork:   "pepe-unchained",
			ExplorerAPIURL: "https://explorer-pepu-v2-mainnet-0.t.conduit.xyz",
			FetchTimeout:   10 * time.Second,
		},
		Swap: SwapConfig{
			FeePct:             0.2,
			DefaultSlippagePct: 3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600, // 10 requests per second (Infura-friendly)
		},
	}
}
