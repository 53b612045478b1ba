package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocktrader/trigger"
)

// Config is the complete configuration for a trading run.
type Config struct {
	Trading  TradingConfig `json:"trading" yaml:"trading"`
	Timeouts TimeoutConfig `json:"timeouts" yaml:"timeouts"`
	Feed     FeedConfig    `json:"feed" yaml:"feed"`
	Journal  JournalConfig `json:"journal" yaml:"journal"`
	Metrics  MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TradingConfig holds the symbol and trigger parameters.
type TradingConfig struct {
	Symbol          string  `json:"symbol" yaml:"symbol"`
	ReferencePrice  float64 `json:"reference_price,omitempty" yaml:"reference_price,omitempty"`
	BuyTrigger      float64 `json:"buy_trigger" yaml:"buy_trigger"`
	SellTrigger     float64 `json:"sell_trigger" yaml:"sell_trigger"`
	StopLossTrigger float64 `json:"stop_loss_trigger" yaml:"stop_loss_trigger"`
	MaxPositions    int     `json:"max_positions" yaml:"max_positions"`
	PositionSize    int     `json:"position_size" yaml:"position_size"`
}

// Triggers converts the trading parameters to a trigger.Config.
func (tc TradingConfig) Triggers() trigger.Config {
	return trigger.Config{
		BuyTrigger:      tc.BuyTrigger,
		SellTrigger:     tc.SellTrigger,
		StopLossTrigger: tc.StopLossTrigger,
		MaxPositions:    tc.MaxPositions,
		PositionSize:    tc.PositionSize,
	}
}

// TimeoutConfig holds the run's deadlines as duration strings
// (e.g. "60s", "500ms").
type TimeoutConfig struct {
	FillWait     string `json:"fill_wait" yaml:"fill_wait"`
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`
	PriceWait    string `json:"price_wait" yaml:"price_wait"`
	CyclePause   string `json:"cycle_pause" yaml:"cycle_pause"`
}

// Timeouts are the parsed deadlines.
type Timeouts struct {
	FillWait     time.Duration
	PollInterval time.Duration
	PriceWait    time.Duration
	CyclePause   time.Duration
}

// Parse converts the duration strings, applying defaults for empty
// fields.
func (tc TimeoutConfig) Parse() (Timeouts, error) {
	out := Timeouts{
		FillWait:     60 * time.Second,
		PollInterval: time.Second,
		PriceWait:    30 * time.Second,
		CyclePause:   time.Second,
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"fill_wait", tc.FillWait, &out.FillWait},
		{"poll_interval", tc.PollInterval, &out.PollInterval},
		{"price_wait", tc.PriceWait, &out.PriceWait},
		{"cycle_pause", tc.CyclePause, &out.CyclePause},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return Timeouts{}, fmt.Errorf("timeouts.%s: %w", d.name, err)
		}
		if v <= 0 {
			return Timeouts{}, fmt.Errorf("timeouts.%s must be positive", d.name)
		}
		*d.dst = v
	}
	return out, nil
}

// FeedConfig scripts the paper session's price feed.
type FeedConfig struct {
	InitialPrice float64     `json:"initial_price" yaml:"initial_price"`
	Steps        []PriceStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// PriceStep is one scripted tick.
type PriceStep struct {
	Price float64 `json:"price" yaml:"price"`
	Delay string  `json:"delay,omitempty" yaml:"delay,omitempty"` // e.g. "1s", "500ms"
}

// ParseDuration converts the delay string to a time.Duration.
func (ps PriceStep) ParseDuration() (time.Duration, error) {
	if ps.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(ps.Delay)
}

// JournalConfig selects and parameterizes the journal backend.
type JournalConfig struct {
	Type           string `json:"type" yaml:"type"` // "csv" or "sqlite"
	ExecutionsFile string `json:"executions_file,omitempty" yaml:"executions_file,omitempty"`
	StatsFile      string `json:"stats_file,omitempty" yaml:"stats_file,omitempty"`
	DBPath         string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// MetricsConfig configures the metrics/status HTTP listener. An empty
// address disables it.
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing the format by
// extension.
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

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.ReferencePrice < 0 {
		return fmt.Errorf("trading.reference_price must not be negative")
	}
	if err := c.Trading.Triggers().Validate(); err != nil {
		return fmt.Errorf("trading: %w", err)
	}
	if _, err := c.Timeouts.Parse(); err != nil {
		return err
	}
	if c.Feed.InitialPrice <= 0 {
		return fmt.Errorf("feed.initial_price must be positive")
	}
	for i, step := range c.Feed.Steps {
		if step.Price <= 0 {
			return fmt.Errorf("feed.steps[%d].price must be positive", i)
		}
		if _, err := step.ParseDuration(); err != nil {
			return fmt.Errorf("feed.steps[%d].delay: %w", i, err)
		}
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.ExecutionsFile == "" || c.Journal.StatsFile == "") {
		return fmt.Errorf("journal executions_file and stats_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns a configuration with the classic trigger defaults:
// buy on a 1% drop, sell on a 1% gain, force-sell at a 2% loss.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbol:          "AAPL",
			BuyTrigger:      -0.01,
			SellTrigger:     0.01,
			StopLossTrigger: -0.02,
			MaxPositions:    3,
			PositionSize:    30,
		},
		Timeouts: TimeoutConfig{
			FillWait:     "60s",
			PollInterval: "1s",
			PriceWait:    "30s",
			CyclePause:   "1s",
		},
		Feed: FeedConfig{
			InitialPrice: 100,
			Steps: []PriceStep{
				{Price: 98.9, Delay: "2s"},
				{Price: 99.5, Delay: "2s"},
				{Price: 100.1, Delay: "2s"},
			},
		},
		Journal: JournalConfig{
			Type:           "csv",
			ExecutionsFile: "./executions.csv",
			StatsFile:      "./stats.csv",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}
