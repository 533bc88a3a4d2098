package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for traderpro.
type Config struct {
	Broker     string      `yaml:"broker"` // "alpaca" or "simulator"
	Server     Server      `yaml:"server"`
	Alpaca     Alpaca      `yaml:"alpaca"`
	Logging    Logging     `yaml:"logging"`
	Dashboard  Dashboard   `yaml:"dashboard"`
	Portfolios []Portfolio `yaml:"portfolios"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Alpaca holds the endpoints for the Alpaca broker API. Credentials are not
// stored here; each portfolio names the environment variables that hold
// its own keys.
type Alpaca struct {
	BaseURL string `yaml:"base_url"`
	DataURL string `yaml:"data_url"`
	Feed    string `yaml:"feed"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dashboard controls presentation-side caching.
type Dashboard struct {
	AssetCacheTTL  time.Duration `yaml:"asset_cache_ttl"`
	FallbackAssets []string      `yaml:"fallback_assets"`
}

// Portfolio names one brokerage account and the environment variables that
// carry its access key, secret key and admin password.
type Portfolio struct {
	Name        string `yaml:"name"`
	KeyEnv      string `yaml:"key_env"`
	SecretEnv   string `yaml:"secret_env"`
	PasswordEnv string `yaml:"password_env"`
}

// Credentials are the resolved API keys of a portfolio.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Credentials reads the portfolio's API keys from the environment.
func (p Portfolio) Credentials() (Credentials, error) {
	c := Credentials{
		APIKey:    os.Getenv(p.KeyEnv),
		APISecret: os.Getenv(p.SecretEnv),
	}
	if c.APIKey == "" || c.APISecret == "" {
		return Credentials{}, fmt.Errorf("portfolio %q: %s and %s must be set", p.Name, p.KeyEnv, p.SecretEnv)
	}
	return c, nil
}

// Password returns the admin password and whether its variable is set.
func (p Portfolio) Password() (string, bool) {
	return os.LookupEnv(p.PasswordEnv)
}

// Portfolio looks up a portfolio by name.
func (c *Config) Portfolio(name string) (Portfolio, bool) {
	for _, p := range c.Portfolios {
		if p.Name == name {
			return p, true
		}
	}
	return Portfolio{}, false
}

// PortfolioNames returns the configured portfolio names in file order.
func (c *Config) PortfolioNames() []string {
	names := make([]string, 0, len(c.Portfolios))
	for _, p := range c.Portfolios {
		names = append(names, p.Name)
	}
	return names
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADERPRO_BROKER"); v != "" {
		cfg.Broker = v
	}

	if v := os.Getenv("TRADERPRO_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.Alpaca.Feed = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// defaultPortfolios mirrors the three paper accounts the dashboard was
// first built around.
var defaultPortfolios = []Portfolio{
	{Name: "Guardian", KeyEnv: "API_KEY_GUARDIAN", SecretEnv: "SECRET_KEY_GUARDIAN", PasswordEnv: "PASS_GUARDIAN"},
	{Name: "Horizon", KeyEnv: "API_KEY_HORIZON", SecretEnv: "SECRET_KEY_HORIZON", PasswordEnv: "PASS_HORIZON"},
	{Name: "Market Plus", KeyEnv: "API_KEY_MARKET_PLUS", SecretEnv: "SECRET_KEY_MARKET_PLUS", PasswordEnv: "PASS_MARKET_PLUS"},
}

func applyDefaults(cfg *Config) {
	if cfg.Broker == "" {
		cfg.Broker = "alpaca"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9090
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Alpaca.Feed == "" {
		cfg.Alpaca.Feed = "iex"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Dashboard.AssetCacheTTL == 0 {
		cfg.Dashboard.AssetCacheTTL = 5 * time.Minute
	}
	if cfg.Dashboard.FallbackAssets == nil {
		cfg.Dashboard.FallbackAssets = []string{"AAPL", "TSLA", "MSFT"}
	}
	if len(cfg.Portfolios) == 0 {
		cfg.Portfolios = append([]Portfolio(nil), defaultPortfolios...)
	}
}

func (c *Config) validate() error {
	switch c.Broker {
	case "alpaca", "simulator":
	default:
		return fmt.Errorf("unknown broker %q (want alpaca or simulator)", c.Broker)
	}

	seen := make(map[string]bool, len(c.Portfolios))
	for i, p := range c.Portfolios {
		if p.Name == "" {
			return fmt.Errorf("portfolios[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("portfolio %q defined twice", p.Name)
		}
		seen[p.Name] = true
		if p.PasswordEnv == "" {
			return fmt.Errorf("portfolio %q: password_env is required", p.Name)
		}
		if c.Broker == "alpaca" && (p.KeyEnv == "" || p.SecretEnv == "") {
			return fmt.Errorf("portfolio %q: key_env and secret_env are required", p.Name)
		}
	}
	return nil
}
