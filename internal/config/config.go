// Package config defines all configuration for the quoting engine.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via POLY_* environment variables, matching
// the headless and request-parameter flavors named in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Paper    bool           `mapstructure:"paper"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	API      APIConfig      `mapstructure:"api"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// WalletConfig holds the Ethereum wallet used for signing orders.
// PrivateKey signs L1 (EIP-712) auth and derives L2 API keys.
// FunderAddress is the on-chain address that funds orders (may differ from signer if using a proxy).
type WalletConfig struct {
	PrivateKey    string `mapstructure:"private_key"`
	SignatureType int    `mapstructure:"signature_type"`
	FunderAddress string `mapstructure:"funder_address"`
	ChainID       int    `mapstructure:"chain_id"`
}

// APIConfig holds venue API endpoints and optional pre-derived L2 credentials.
// If ApiKey/Secret/Passphrase are empty, the engine derives them via L1 auth
// on startup (the derive_creds action, spec.md §6).
type APIConfig struct {
	CLOBBaseURL    string `mapstructure:"clob_base_url"`
	GammaBaseURL   string `mapstructure:"gamma_base_url"`
	RewardsBaseURL string `mapstructure:"rewards_base_url"`
	WSUserURL      string `mapstructure:"ws_user_url"`
	ApiKey         string `mapstructure:"api_key"`
	Secret         string `mapstructure:"secret"`
	Passphrase     string `mapstructure:"passphrase"`
}

// StrategyConfig holds the quoter's tunables (spec.md §3/§4.4).
//
//   - OrderSize: target order size in tokens before risk clamping.
//   - BaseSpreadBps: the base spread before sponsor/volatility adjustments.
//   - CycleInterval: how often the driver runs a quoting cycle.
//   - MaxMarkets: how many scored candidates to keep quoting.
//   - ExternalOracle: enable the advisory spot-price lookup (§4.8).
//   - AggressiveShortTerm: reserved hook for a future mid-override behavior,
//     currently a no-op per spec.md §9's open-question deferral.
type StrategyConfig struct {
	OrderSize           float64       `mapstructure:"order_size"`
	BaseSpreadBps       int           `mapstructure:"base_spread_bps"`
	CycleInterval       time.Duration `mapstructure:"cycle_interval"`
	MaxMarkets          int           `mapstructure:"max_markets"`
	ExternalOracle      bool          `mapstructure:"external_oracle"`
	AggressiveShortTerm bool          `mapstructure:"aggressive_short_term"`
}

// RiskConfig sets capital-derived limits enforced by the risk governor
// (spec.md §4.6). The operator sets TotalCapital and MaxPosition; OrderSize
// and MaxPosition are clamped against TotalCapital every cycle.
type RiskConfig struct {
	TotalCapital float64 `mapstructure:"total_capital"`
	MaxPosition  float64 `mapstructure:"max_position"`
}

// Capital-relative constants from spec.md §4.6 / §8.
const (
	OrderSizeCapPct        = 0.08
	MaxPositionCapPct      = 0.48
	CircuitBreakerLossPct  = 0.03
	PositionAutoRepairMult = 1.5
	InventorySkewThreshold = 0.6
)

// ScannerConfig controls candidate discovery, enrichment, and selection
// (spec.md §4.2/§4.3).
type ScannerConfig struct {
	MinVolume24h   float64  `mapstructure:"min_volume_24h"`
	MinSponsorPool float64  `mapstructure:"min_sponsor_pool"`
	MinLiquidity   float64  `mapstructure:"min_liquidity_depth"`
	ExcludeSlugs   []string `mapstructure:"exclude_slugs"`
}

// OracleConfig controls the optional advisory external spot-price oracle
// (spec.md §4.8).
type OracleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

// StoreConfig points at the relational store (spec.md §6: "store credentials").
type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls the control-API + health HTTP server (spec.md §6).
type ServerConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: POLY_PRIVATE_KEY, POLY_API_KEY,
// POLY_API_SECRET, POLY_PASSPHRASE, POLY_STORE_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("POLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("POLY_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}
	if key := os.Getenv("POLY_API_KEY"); key != "" {
		cfg.API.ApiKey = key
	}
	if secret := os.Getenv("POLY_API_SECRET"); secret != "" {
		cfg.API.Secret = secret
	}
	if pass := os.Getenv("POLY_PASSPHRASE"); pass != "" {
		cfg.API.Passphrase = pass
	}
	if dsn := os.Getenv("POLY_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if pv := os.Getenv("POLY_PAPER"); pv == "true" || pv == "1" {
		cfg.Paper = true
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet.private_key is required (set POLY_PRIVATE_KEY)")
	}
	if c.Wallet.ChainID == 0 {
		return fmt.Errorf("wallet.chain_id is required (137 for mainnet)")
	}
	switch c.Wallet.SignatureType {
	case 0, 1, 2:
	default:
		return fmt.Errorf("wallet.signature_type must be one of: 0 (EOA), 1 (POLY_PROXY), 2 (GNOSIS_SAFE)")
	}
	if c.Wallet.SignatureType != 0 && c.Wallet.FunderAddress == "" {
		return fmt.Errorf("wallet.funder_address is required when wallet.signature_type is 1 or 2")
	}
	if c.API.CLOBBaseURL == "" {
		return fmt.Errorf("api.clob_base_url is required")
	}
	if c.API.GammaBaseURL == "" {
		return fmt.Errorf("api.gamma_base_url is required")
	}
	if c.Strategy.OrderSize <= 0 {
		return fmt.Errorf("strategy.order_size must be > 0")
	}
	if c.Strategy.CycleInterval <= 0 {
		return fmt.Errorf("strategy.cycle_interval must be > 0")
	}
	if c.Strategy.MaxMarkets <= 0 {
		return fmt.Errorf("strategy.max_markets must be > 0")
	}
	if c.Risk.TotalCapital <= 0 {
		return fmt.Errorf("risk.total_capital must be > 0")
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	return nil
}

// ClampedOrderSize returns the order size clamped to 8% of total capital
// (spec.md §4.6, §8 invariant 3), minimum 1.
func (c *Config) ClampedOrderSize() float64 {
	capAmt := float64(int(c.Risk.TotalCapital * OrderSizeCapPct))
	if capAmt < 1 {
		capAmt = 1
	}
	if c.Strategy.OrderSize > capAmt {
		return capAmt
	}
	return c.Strategy.OrderSize
}

// ClampedMaxPosition returns max_position clamped to 48% of total capital
// (spec.md §4.6, §8 invariant 3).
func (c *Config) ClampedMaxPosition() float64 {
	capAmt := float64(int(c.Risk.TotalCapital * MaxPositionCapPct))
	if c.Risk.MaxPosition <= 0 || c.Risk.MaxPosition > capAmt {
		return capAmt
	}
	return c.Risk.MaxPosition
}
