package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LoggerConfig controls the zap logger built at startup
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Network holds the RPC endpoint for one EVM chain
type Network struct {
	ChainID  int64   `mapstructure:"chain_id"`
	RPCUrl   string  `mapstructure:"rpc_url"`
	GasLimit *uint64 `mapstructure:"gas_limit"`
	GasPrice *int64  `mapstructure:"gas_price"`
}

// Config holds the application configuration
type Config struct {
	AcrossAPIURL    string
	CoinGeckoAPIURL string
	RequestTimeout  time.Duration

	PrivateKey string
	Networks   map[string]Network

	DefaultFromChainID int64
	DefaultToChainID   int64
	IncludeTestnets    bool

	Logger LoggerConfig
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".banny-bridge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("across_api_url", "https://app.across.to/api")
	viper.SetDefault("coingecko_api_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("request_timeout", "15s")
	viper.SetDefault("default_from_chain_id", 8453) // Base
	viper.SetDefault("default_to_chain_id", 42161)  // Arbitrum
	viper.SetDefault("include_testnets", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.encoding", "console")

	// Read from environment variables
	viper.SetEnvPrefix("BANNY_BRIDGE")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	networks := make(map[string]Network)
	if err := viper.UnmarshalKey("networks", &networks); err != nil {
		return nil, fmt.Errorf("invalid networks configuration: %w", err)
	}

	cfg := &Config{
		AcrossAPIURL:       viper.GetString("across_api_url"),
		CoinGeckoAPIURL:    viper.GetString("coingecko_api_url"),
		RequestTimeout:     viper.GetDuration("request_timeout"),
		PrivateKey:         viper.GetString("private_key"),
		Networks:           networks,
		DefaultFromChainID: viper.GetInt64("default_from_chain_id"),
		DefaultToChainID:   viper.GetInt64("default_to_chain_id"),
		IncludeTestnets:    viper.GetBool("include_testnets"),
		Logger: LoggerConfig{
			Level:    viper.GetString("log.level"),
			Encoding: viper.GetString("log.encoding"),
		},
	}

	globalConfig = cfg
	return cfg, nil
}

// RPCUrl returns the configured RPC endpoint for a chain id, if any
func (c *Config) RPCUrl(chainID int64) (string, bool) {
	for _, n := range c.Networks {
		if n.ChainID == chainID && n.RPCUrl != "" {
			return n.RPCUrl, true
		}
	}
	return "", false
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
