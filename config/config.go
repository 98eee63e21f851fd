// Package config loads run settings from a yaml file, command-line flags and
// the environment.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/rebalancer/internal/domain"
)

const (
	PlatformBinance  = "binance"
	PlatformSimulate = "simulate"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	DefaultQuote             = "USDC"
	DefaultMaxPairs          = 25
	DefaultRankingLimit      = 100
	DefaultOrderDelay        = time.Second
	DefaultRequestsPerSecond = 10
	DefaultRetryAttempts     = 3
	DefaultCoinMarketCapURL  = "https://pro-api.coinmarketcap.com"

	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceAPISecret = "BINANCE_API_SECRET"
	EnvCoinMarketCapKey = "CMC_KEY"
)

var (
	DefaultStables         = []string{"USDC", "USDT", "BUSD", "DAI", "TUSD", "FDUSD"}
	DefaultNoiseAbsolute   = decimal.NewFromInt(1)
	DefaultNoisePercent    = decimal.NewFromInt(1)
	DefaultDustThreshold   = decimal.RequireFromString("0.5")
	DefaultSimulateBalance = decimal.NewFromInt(200)
)

// Config settings of one rebalancing run.
type Config struct {
	Platform string
	Quote    string
	Stables  []string
	MaxPairs int
	// RankingLimit how many top market-cap symbols are requested.
	RankingLimit  int
	NoiseAbsolute decimal.Decimal
	// NoisePercent relative noise threshold in percent of the per-pair target.
	NoisePercent  decimal.Decimal
	DustThreshold decimal.Decimal
	OrderDelay    time.Duration
	// TradingEnabled orders are only sent to the exchange when set.
	TradingEnabled  bool
	SimulateBalance decimal.Decimal
	// CapitalOverride fixed deployable capital instead of the account value.
	CapitalOverride   decimal.NullDecimal
	RequestsPerSecond float64
	RetryAttempts     int
	CoinMarketCapURL  string
	Log               LogConfig
}

// LogConfig logger settings.
type LogConfig struct {
	Level  string
	Format string
	// File optional path of a rotated log file, written in addition to stderr.
	File string
}

// NoiseFraction returns NoisePercent as a fraction.
func (c Config) NoiseFraction() decimal.Decimal {
	return c.NoisePercent.Div(decimal.NewFromInt(100))
}

// ConfigTmp raw yaml representation of Config.
type ConfigTmp struct {
	Platform             string        `yaml:"platform"`
	Quote                string        `yaml:"quote,omitempty"`
	Stables              []string      `yaml:"stables,omitempty"`
	MaxPairsStr          string        `yaml:"max_pairs,omitempty"`
	RankingLimitStr      string        `yaml:"ranking_limit,omitempty"`
	NoiseAbsoluteStr     string        `yaml:"noise_abs,omitempty"`
	NoisePercentStr      string        `yaml:"noise_pct,omitempty"`
	DustThresholdStr     string        `yaml:"dust,omitempty"`
	OrderDelay           time.Duration `yaml:"order_delay,omitempty"`
	TradingEnabled       bool          `yaml:"trading_enabled"`
	SimulateBalanceStr   string        `yaml:"simulate_balance,omitempty"`
	CapitalOverrideStr   string        `yaml:"capital_override,omitempty"`
	RequestsPerSecondStr string        `yaml:"requests_per_second,omitempty"`
	RetryAttemptsStr     string        `yaml:"retry_attempts,omitempty"`
	CoinMarketCapURL     string        `yaml:"cmc_url,omitempty"`
	LogLevel             string        `yaml:"log_level,omitempty"`
	LogFormat            string        `yaml:"log_format,omitempty"`
	LogFile              string        `yaml:"log_file,omitempty"`
}

// Flags command-line options. Options that were not passed on the command
// line never override the yaml file.
type Flags struct {
	ConfigPath string
	Setup      bool
	Trade      bool
	Platform   string
	Quote      string
	MaxPairs   int
	set        map[string]bool
}

// ParseFlags parses command-line arguments, without the program name.
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("rebalancer", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "path to yaml config")
	fs.BoolVar(&f.Setup, "setup", false, "run the interactive config wizard")
	fs.BoolVar(&f.Trade, "trade", false, "send orders to the exchange (default is simulation)")
	fs.StringVar(&f.Platform, "platform", PlatformSimulate, "platform: binance or simulate")
	fs.StringVar(&f.Quote, "quote", DefaultQuote, "quote currency, example: USDC")
	fs.IntVar(&f.MaxPairs, "max-pairs", DefaultMaxPairs, "maximum number of pairs in the target universe")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// IsSet reports whether the named flag was passed explicitly.
func (f Flags) IsSet(name string) bool {
	return f.set[name]
}

// Get parses args and loads the resulting configuration.
func Get(args []string) (Config, Flags, error) {
	f, err := ParseFlags(args)
	if err != nil {
		return Config{}, Flags{}, err
	}
	cfg, err := Load(f)
	return cfg, f, err
}

// Load builds the configuration from the yaml file named by the flags, if
// any, with explicitly passed flags taking precedence.
func Load(f Flags) (Config, error) {
	var raw ConfigTmp
	if f.ConfigPath != "" {
		data, err := os.ReadFile(f.ConfigPath)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, errors.Wrap(err, "failed to parse yaml config")
		}
	}

	if f.IsSet("platform") || (raw.Platform == "" && f.Platform != "") {
		raw.Platform = f.Platform
	}
	if f.IsSet("quote") || (raw.Quote == "" && f.Quote != "") {
		raw.Quote = f.Quote
	}
	if f.IsSet("max-pairs") || (raw.MaxPairsStr == "" && f.MaxPairs != 0) {
		raw.MaxPairsStr = strconv.Itoa(f.MaxPairs)
	}
	if f.IsSet("trade") {
		raw.TradingEnabled = f.Trade
	}

	cfg, err := raw.toConfig()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Config{
		Platform:         strings.ToLower(strings.TrimSpace(c.Platform)),
		Quote:            strings.ToUpper(strings.TrimSpace(c.Quote)),
		Stables:          DefaultStables,
		OrderDelay:       c.OrderDelay,
		TradingEnabled:   c.TradingEnabled,
		CoinMarketCapURL: c.CoinMarketCapURL,
		Log: LogConfig{
			Level:  c.LogLevel,
			Format: c.LogFormat,
			File:   c.LogFile,
		},
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformSimulate
	}
	if cfg.Quote == "" {
		cfg.Quote = DefaultQuote
	}
	if len(c.Stables) > 0 {
		cfg.Stables = make([]string, 0, len(c.Stables))
		for _, s := range c.Stables {
			cfg.Stables = append(cfg.Stables, strings.ToUpper(strings.TrimSpace(s)))
		}
	}
	if cfg.OrderDelay == 0 {
		cfg.OrderDelay = DefaultOrderDelay
	}
	if cfg.CoinMarketCapURL == "" {
		cfg.CoinMarketCapURL = DefaultCoinMarketCapURL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatConsole
	}

	var err error
	if cfg.MaxPairs, err = parseInt(c.MaxPairsStr, "max_pairs", DefaultMaxPairs); err != nil {
		return Config{}, err
	}
	if cfg.RankingLimit, err = parseInt(c.RankingLimitStr, "ranking_limit", DefaultRankingLimit); err != nil {
		return Config{}, err
	}
	if cfg.RetryAttempts, err = parseInt(c.RetryAttemptsStr, "retry_attempts", DefaultRetryAttempts); err != nil {
		return Config{}, err
	}
	if cfg.NoiseAbsolute, err = parseDecimal(c.NoiseAbsoluteStr, "noise_abs", DefaultNoiseAbsolute); err != nil {
		return Config{}, err
	}
	if cfg.NoisePercent, err = parseDecimal(c.NoisePercentStr, "noise_pct", DefaultNoisePercent); err != nil {
		return Config{}, err
	}
	if cfg.DustThreshold, err = parseDecimal(c.DustThresholdStr, "dust", DefaultDustThreshold); err != nil {
		return Config{}, err
	}
	if cfg.SimulateBalance, err = parseDecimal(c.SimulateBalanceStr, "simulate_balance", DefaultSimulateBalance); err != nil {
		return Config{}, err
	}

	if c.CapitalOverrideStr != "" {
		capital, err := decimal.NewFromString(c.CapitalOverrideStr)
		if err != nil {
			return Config{}, errors.Wrapf(domain.ErrInvalidConfig, "incorrect 'capital_override' param in yaml config (must be a decimal): %v", err)
		}
		cfg.CapitalOverride = decimal.NewNullDecimal(capital)
	}

	cfg.RequestsPerSecond = DefaultRequestsPerSecond
	if c.RequestsPerSecondStr != "" {
		rps, err := strconv.ParseFloat(c.RequestsPerSecondStr, 64)
		if err != nil {
			return Config{}, errors.Wrapf(domain.ErrInvalidConfig, "incorrect 'requests_per_second' param in yaml config (must be a number): %v", err)
		}
		cfg.RequestsPerSecond = rps
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Platform != PlatformBinance && c.Platform != PlatformSimulate:
		return errors.Wrapf(domain.ErrInvalidConfig, "unsupported platform %q", c.Platform)
	case c.Quote == "":
		return errors.Wrap(domain.ErrInvalidConfig, "quote currency is empty")
	case c.MaxPairs <= 0:
		return errors.Wrapf(domain.ErrInvalidConfig, "max_pairs must be positive, got %d", c.MaxPairs)
	case c.RankingLimit <= 0:
		return errors.Wrapf(domain.ErrInvalidConfig, "ranking_limit must be positive, got %d", c.RankingLimit)
	case c.RetryAttempts < 0:
		return errors.Wrapf(domain.ErrInvalidConfig, "retry_attempts must not be negative, got %d", c.RetryAttempts)
	case !c.NoiseAbsolute.IsPositive():
		return errors.Wrap(domain.ErrInvalidConfig, "noise_abs must be positive")
	case c.NoisePercent.IsNegative() || c.NoisePercent.GreaterThan(decimal.NewFromInt(100)):
		return errors.Wrap(domain.ErrInvalidConfig, "noise_pct must be between 0 and 100")
	case c.DustThreshold.IsNegative():
		return errors.Wrap(domain.ErrInvalidConfig, "dust must not be negative")
	case c.OrderDelay < 0:
		return errors.Wrap(domain.ErrInvalidConfig, "order_delay must not be negative")
	case c.SimulateBalance.IsNegative():
		return errors.Wrap(domain.ErrInvalidConfig, "simulate_balance must not be negative")
	case c.CapitalOverride.Valid && !c.CapitalOverride.Decimal.IsPositive():
		return errors.Wrap(domain.ErrInvalidConfig, "capital_override must be positive")
	case c.RequestsPerSecond <= 0:
		return errors.Wrap(domain.ErrInvalidConfig, "requests_per_second must be positive")
	case c.Log.Format != LogFormatConsole && c.Log.Format != LogFormatJSON:
		return errors.Wrapf(domain.ErrInvalidConfig, "unsupported log_format %q", c.Log.Format)
	}
	for _, s := range c.Stables {
		if s == "" {
			return errors.Wrap(domain.ErrInvalidConfig, "empty symbol in stables")
		}
	}
	return nil
}

// Credentials API keys read from the environment.
type Credentials struct {
	BinanceAPIKey    string
	BinanceAPISecret string
	CoinMarketCapKey string
}

// CredentialsFromEnv reads the keys the platform needs. The ranking key is
// always required; exchange keys only for live platforms.
func CredentialsFromEnv(platform string) (Credentials, error) {
	creds := Credentials{
		BinanceAPIKey:    os.Getenv(EnvBinanceAPIKey),
		BinanceAPISecret: os.Getenv(EnvBinanceAPISecret),
		CoinMarketCapKey: os.Getenv(EnvCoinMarketCapKey),
	}

	if creds.CoinMarketCapKey == "" {
		return Credentials{}, errors.Wrapf(domain.ErrMissingCredentials, "%s environment variable must be set", EnvCoinMarketCapKey)
	}
	if platform == PlatformBinance && (creds.BinanceAPIKey == "" || creds.BinanceAPISecret == "") {
		return Credentials{}, errors.Wrapf(domain.ErrMissingCredentials, "%s and %s environment variables must be set",
			EnvBinanceAPIKey, EnvBinanceAPISecret)
	}
	return creds, nil
}

func parseInt(s, name string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(domain.ErrInvalidConfig, "incorrect '%s' param in yaml config (must be an integer): %v", name, err)
	}
	return v, nil
}

func parseDecimal(s, name string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(domain.ErrInvalidConfig, "incorrect '%s' param in yaml config (must be a decimal): %v", name, err)
	}
	return v, nil
}
