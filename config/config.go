package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is everything the trader CLI needs to run a paper session.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// AccountConfig seeds the paper account.
type AccountConfig struct {
	ID                 string          `json:"id,omitempty" yaml:"id,omitempty"`
	QuoteAsset         string          `json:"quote_asset" yaml:"quote_asset"`
	QuoteAssets        []string        `json:"quote_assets,omitempty" yaml:"quote_assets,omitempty"`
	InitialBalance     decimal.Decimal `json:"initial_balance" yaml:"initial_balance"`
	AutoCloseOnTrigger bool            `json:"auto_close_on_trigger" yaml:"auto_close_on_trigger"`
	Enabled            *bool           `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled defaults to true when enabled is not set.
func (a AccountConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// SimulationConfig is a scripted session: prices are replayed one step per
// interval and orders are submitted after the step they name.
type SimulationConfig struct {
	Interval   string      `json:"interval,omitempty" yaml:"interval,omitempty"` // e.g. "1s"
	PriceSteps []PriceStep `json:"price_steps,omitempty" yaml:"price_steps,omitempty"`
	Orders     []OrderStep `json:"orders,omitempty" yaml:"orders,omitempty"`

	// ATRPeriod enables a per-symbol ATR fed from the price steps. Zero
	// disables it.
	ATRPeriod int `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
}

// ParseInterval returns the replay interval, zero when unset.
func (s SimulationConfig) ParseInterval() (time.Duration, error) {
	if s.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Interval)
}

// PriceStep is one market snapshot. Delay overrides the interval before it.
type PriceStep struct {
	Prices map[string]decimal.Decimal `json:"prices" yaml:"prices"`
	Delay  string                     `json:"delay,omitempty" yaml:"delay,omitempty"` // e.g., "1h", "30m", "1s"
}

// ParseDuration converts the delay string to time.Duration
func (ps PriceStep) ParseDuration() (time.Duration, error) {
	if ps.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(ps.Delay)
}

// OrderStep is a MARKET order submitted once AfterStep price steps have
// been applied. A zero price fills at the last price of the symbol.
type OrderStep struct {
	AfterStep  int              `json:"after_step" yaml:"after_step"`
	Side       string           `json:"side" yaml:"side"`
	Symbol     string           `json:"symbol" yaml:"symbol"`
	Quantity   decimal.Decimal  `json:"quantity" yaml:"quantity"`
	Price      decimal.Decimal  `json:"price,omitzero" yaml:"price,omitempty"`
	StopLoss   *decimal.Decimal `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit *decimal.Decimal `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	Strategy   string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// ATRStopMultiplier turns the stop of a BUY fill into an ATR_BASED stop.
	ATRStopMultiplier *decimal.Decimal `json:"atr_stop_multiplier,omitempty" yaml:"atr_stop_multiplier,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		*cfg = Config{}
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.QuoteAsset == "" {
		return fmt.Errorf("account.quote_asset is required")
	}
	if !c.Account.InitialBalance.IsPositive() {
		return fmt.Errorf("account.initial_balance must be positive")
	}

	if _, err := c.Simulation.ParseInterval(); err != nil {
		return fmt.Errorf("simulation.interval: %w", err)
	}
	for i, step := range c.Simulation.PriceSteps {
		if len(step.Prices) == 0 {
			return fmt.Errorf("simulation.price_steps[%d]: no prices", i)
		}
		for symbol, price := range step.Prices {
			if !price.IsPositive() {
				return fmt.Errorf("simulation.price_steps[%d]: price for %s must be positive", i, symbol)
			}
		}
		if _, err := step.ParseDuration(); err != nil {
			return fmt.Errorf("simulation.price_steps[%d].delay: %w", i, err)
		}
	}
	if c.Simulation.ATRPeriod < 0 {
		return fmt.Errorf("simulation.atr_period must not be negative")
	}
	for i, o := range c.Simulation.Orders {
		if err := o.validate(len(c.Simulation.PriceSteps)); err != nil {
			return fmt.Errorf("simulation.orders[%d]: %w", i, err)
		}
		if o.ATRStopMultiplier != nil && c.Simulation.ATRPeriod == 0 {
			return fmt.Errorf("simulation.orders[%d]: atr_stop_multiplier needs simulation.atr_period", i)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

func (o OrderStep) validate(steps int) error {
	side := strings.ToUpper(o.Side)
	if side != "BUY" && side != "SELL" {
		return fmt.Errorf("side must be BUY or SELL, got %q", o.Side)
	}
	if o.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if o.AfterStep < 0 || o.AfterStep > steps {
		return fmt.Errorf("after_step %d outside 0..%d", o.AfterStep, steps)
	}
	if o.ATRStopMultiplier != nil {
		if side != "BUY" {
			return fmt.Errorf("atr_stop_multiplier only applies to BUY orders")
		}
		if !o.ATRStopMultiplier.IsPositive() {
			return fmt.Errorf("atr_stop_multiplier must be positive")
		}
	}
	if o.Price.IsZero() && o.AfterStep == 0 {
		return fmt.Errorf("an order before the first price step needs a price")
	}
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// Default returns a short BTC session that opens, marks and closes one
// position.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:             "paper-001",
			QuoteAsset:     "USDT",
			InitialBalance: dec("10000"),
		},
		Simulation: SimulationConfig{
			Interval: "1s",
			PriceSteps: []PriceStep{
				{Prices: map[string]decimal.Decimal{"BTCUSDT": dec("50000")}},
				{Prices: map[string]decimal.Decimal{"BTCUSDT": dec("50500")}},
				{Prices: map[string]decimal.Decimal{"BTCUSDT": dec("51200")}},
				{Prices: map[string]decimal.Decimal{"BTCUSDT": dec("50800")}},
			},
			Orders: []OrderStep{
				{
					AfterStep:  1,
					Side:       "BUY",
					Symbol:     "BTCUSDT",
					Quantity:   dec("0.1"),
					StopLoss:   decPtr("49000"),
					TakeProfit: decPtr("52000"),
					Strategy:   "manual",
				},
				{
					AfterStep: 4,
					Side:      "SELL",
					Symbol:    "BTCUSDT",
					Quantity:  dec("0.1"),
					Strategy:  "manual",
				},
			},
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Log: LogConfig{Level: "info"},
	}
}
