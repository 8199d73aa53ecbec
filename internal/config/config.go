package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/1cbyc/tradesim/internal/backtest"
	"github.com/1cbyc/tradesim/internal/execution"
	"github.com/1cbyc/tradesim/internal/marketdata"
	"github.com/1cbyc/tradesim/internal/strategy"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	SourceCSV       = "csv"
	SourceSimulated = "simulated"

	StrategyMovingAverage = "ma_crossover"
	StrategyBuyAndHold    = "buy_and_hold"
)

// Config is the file form of a backtest run. Money and rates are kept as
// strings so they reach decimal.Decimal without a float round trip.
type Config struct {
	Backtest   BacktestConfig   `yaml:"backtest"`
	Strategies []StrategyConfig `yaml:"strategies"`
	Data       DataConfig       `yaml:"data"`
	Log        LogConfig        `yaml:"log"`
}

type BacktestConfig struct {
	Symbols           []string `yaml:"symbols"`
	Start             string   `yaml:"start"`
	End               string   `yaml:"end"`
	InitialCapital    string   `yaml:"initial_capital"`
	Slippage          string   `yaml:"slippage"`
	CommissionRate    string   `yaml:"commission_rate"`
	RiskFreeRate      *float64 `yaml:"risk_free_rate"`
	PeriodsPerYear    int      `yaml:"periods_per_year"`
	PositionFraction  string   `yaml:"position_fraction"`
	QuantityPrecision *int32   `yaml:"quantity_precision"`
}

type StrategyConfig struct {
	Name        string `yaml:"name"`
	ShortPeriod int    `yaml:"short_period"`
	LongPeriod  int    `yaml:"long_period"`
}

type DataConfig struct {
	Source     string            `yaml:"source"` // csv | simulated
	Dir        string            `yaml:"dir"`
	Seed       int64             `yaml:"seed"`
	Interval   string            `yaml:"interval"`
	BasePrice  string            `yaml:"base_price"`
	Volatility string            `yaml:"volatility"`
	Prices     map[string]string `yaml:"prices"` // per-symbol base price
}

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Load reads the YAML file at path and a .env file if one exists.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADESIM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRADESIM_INITIAL_CAPITAL"); v != "" {
		cfg.Backtest.InitialCapital = v
	}
}

func setDefaults(cfg *Config) {
	defaults := backtest.DefaultConfig()
	if cfg.Backtest.InitialCapital == "" {
		cfg.Backtest.InitialCapital = defaults.InitialCapital.String()
	}
	if cfg.Backtest.Slippage == "" {
		cfg.Backtest.Slippage = execution.DefaultSlippage.String()
	}
	if cfg.Backtest.CommissionRate == "" {
		cfg.Backtest.CommissionRate = execution.DefaultCommissionRate.String()
	}
	if cfg.Backtest.RiskFreeRate == nil {
		rate := defaults.RiskFreeRate
		cfg.Backtest.RiskFreeRate = &rate
	}
	if cfg.Backtest.PositionFraction == "" {
		cfg.Backtest.PositionFraction = defaults.PositionFraction.String()
	}
	if cfg.Backtest.QuantityPrecision == nil {
		precision := defaults.QuantityPrecision
		cfg.Backtest.QuantityPrecision = &precision
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = []StrategyConfig{{Name: StrategyMovingAverage}}
	}
	for i := range cfg.Strategies {
		s := &cfg.Strategies[i]
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		if s.Name == StrategyMovingAverage {
			if s.ShortPeriod <= 0 {
				s.ShortPeriod = 10
			}
			if s.LongPeriod <= 0 {
				s.LongPeriod = 30
			}
		}
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.Interval == "" {
		cfg.Data.Interval = "24h"
	}
	if cfg.Data.BasePrice == "" {
		cfg.Data.BasePrice = "100"
	}
	if cfg.Data.Volatility == "" {
		cfg.Data.Volatility = "0.02"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Run converts the file form into a run configuration. Range and
// consistency checks are left to backtest.New.
func (c *Config) Run() (backtest.Config, error) {
	b := c.Backtest
	run := backtest.DefaultConfig()
	run.Symbols = b.Symbols
	run.PeriodsPerYear = b.PeriodsPerYear
	if b.RiskFreeRate != nil {
		run.RiskFreeRate = *b.RiskFreeRate
	}
	if b.QuantityPrecision != nil {
		run.QuantityPrecision = *b.QuantityPrecision
	}

	var err error
	if run.Start, err = parseDate("start", b.Start); err != nil {
		return backtest.Config{}, err
	}
	if run.End, err = parseDate("end", b.End); err != nil {
		return backtest.Config{}, err
	}
	fields := []struct {
		name  string
		value string
		into  *decimal.Decimal
	}{
		{"initial_capital", b.InitialCapital, &run.InitialCapital},
		{"slippage", b.Slippage, &run.Execution.Slippage},
		{"commission_rate", b.CommissionRate, &run.Execution.CommissionRate},
		{"position_fraction", b.PositionFraction, &run.PositionFraction},
	}
	for _, f := range fields {
		if *f.into, err = decimal.NewFromString(strings.TrimSpace(f.value)); err != nil {
			return backtest.Config{}, fmt.Errorf("backtest.%s: %w", f.name, err)
		}
	}
	return run, nil
}

// BuildStrategies instantiates the configured strategies in order.
func (c *Config) BuildStrategies() ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		switch s.Name {
		case StrategyMovingAverage:
			ma, err := strategy.NewMovingAverageStrategy(s.ShortPeriod, s.LongPeriod)
			if err != nil {
				return nil, err
			}
			out = append(out, ma)
		case StrategyBuyAndHold:
			out = append(out, strategy.NewBuyAndHoldStrategy())
		default:
			return nil, fmt.Errorf("unknown strategy %q", s.Name)
		}
	}
	return out, nil
}

// Provider builds the configured market data source.
func (c *Config) Provider(logger *zap.Logger) (marketdata.Provider, error) {
	switch strings.ToLower(c.Data.Source) {
	case SourceCSV:
		return marketdata.NewCSVProvider(c.Data.Dir), nil
	case SourceSimulated:
		interval, err := time.ParseDuration(c.Data.Interval)
		if err != nil {
			return nil, fmt.Errorf("data.interval: %w", err)
		}
		volatility, err := decimal.NewFromString(c.Data.Volatility)
		if err != nil {
			return nil, fmt.Errorf("data.volatility: %w", err)
		}
		provider := marketdata.NewSimulatedProvider(c.Data.Seed, interval, logger)
		for _, symbol := range c.Backtest.Symbols {
			raw := c.Data.BasePrice
			if v, ok := c.Data.Prices[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
				raw = v
			}
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("data base price for %s: %w", symbol, err)
			}
			provider.AddSymbol(symbol, price, volatility)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", c.Data.Source)
	}
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("backtest.%s: cannot parse %q as a date", field, value)
}
