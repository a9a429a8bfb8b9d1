package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChainConfig holds blockchain RPC configuration.
type ChainConfig struct {
	RPCURL                   string `yaml:"rpcURL"`
	ConnectionTimeoutSeconds int    `yaml:"connectionTimeoutSeconds"`
	RPCCallTimeoutSeconds    int    `yaml:"rpcCallTimeoutSeconds"`
}

// TokenIndexConfig holds configuration for the Transfer-log token index.
type TokenIndexConfig struct {
	StartBlock        uint64  `yaml:"startBlock"`
	BlockChunkSize    uint64  `yaml:"blockChunkSize"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// TickerSourceConfig holds configuration for a single REST ticker API.
type TickerSourceConfig struct {
	BaseURL              string `yaml:"baseURL"`
	Symbol               string `yaml:"symbol"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TickersConfig groups the base currency ticker sources, tried in order:
// Kraken first, Binance as fallback.
type TickersConfig struct {
	Kraken  TickerSourceConfig `yaml:"kraken"`
	Binance TickerSourceConfig `yaml:"binance"`
}

// OraclesConfig holds the on-chain oracle contract addresses.
type OraclesConfig struct {
	UniswapFactoryAddress    string `yaml:"uniswapFactoryAddress"`
	KyberNetworkProxyAddress string `yaml:"kyberNetworkProxyAddress"`
}

// CachesConfig holds the cache capacity and TTL parameters.
type CachesConfig struct {
	MaxEntries           int `yaml:"maxEntries"`
	BasePriceTTLMinutes  int `yaml:"basePriceTTLMinutes"`
	TokenPriceTTLMinutes int `yaml:"tokenPriceTTLMinutes"`
}

// TokensConfig holds token presentation configuration.
type TokensConfig struct {
	LogoBaseURL string `yaml:"logoBaseURL"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Chain      ChainConfig      `yaml:"chain"`
	TokenIndex TokenIndexConfig `yaml:"tokenIndex"`
	Tickers    TickersConfig    `yaml:"tickers"`
	Oracles    OraclesConfig    `yaml:"oracles"`
	Caches     CachesConfig     `yaml:"caches"`
	Tokens     TokensConfig     `yaml:"tokens"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Chain.ConnectionTimeoutSeconds <= 0 {
		c.Chain.ConnectionTimeoutSeconds = 10
	}
	if c.Chain.RPCCallTimeoutSeconds <= 0 {
		c.Chain.RPCCallTimeoutSeconds = 30
	}
	if c.TokenIndex.BlockChunkSize == 0 {
		c.TokenIndex.BlockChunkSize = 10_000
	}
	if c.TokenIndex.RequestsPerSecond <= 0 {
		c.TokenIndex.RequestsPerSecond = 4
	}
	if c.Tickers.Kraken.BaseURL == "" {
		c.Tickers.Kraken.BaseURL = "https://api.kraken.com"
	}
	if c.Tickers.Kraken.Symbol == "" {
		c.Tickers.Kraken.Symbol = "ETHUSD"
	}
	if c.Tickers.Kraken.RequestTimeoutMillis <= 0 {
		c.Tickers.Kraken.RequestTimeoutMillis = 5000
	}
	if c.Tickers.Binance.BaseURL == "" {
		c.Tickers.Binance.BaseURL = "https://api.binance.com"
	}
	if c.Tickers.Binance.Symbol == "" {
		c.Tickers.Binance.Symbol = "ETHUSDT"
	}
	if c.Tickers.Binance.RequestTimeoutMillis <= 0 {
		c.Tickers.Binance.RequestTimeoutMillis = 5000
	}
	if c.Caches.MaxEntries <= 0 {
		c.Caches.MaxEntries = 2048
	}
	if c.Caches.BasePriceTTLMinutes <= 0 {
		c.Caches.BasePriceTTLMinutes = 30
	}
	if c.Caches.TokenPriceTTLMinutes <= 0 {
		c.Caches.TokenPriceTTLMinutes = 30
	}
	if c.Tokens.LogoBaseURL == "" {
		c.Tokens.LogoBaseURL = "https://gnosis-safe-token-logos.s3.amazonaws.com"
	}
}
