package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1cbyc/tradesim/internal/marketdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backtest:
  symbols: [btc, ETH]
  start: 2024-01-01
  end: 2024-06-30T00:00:00Z
  initial_capital: "50000"
  commission_rate: "0.002"
  periods_per_year: 365
  quantity_precision: 0
strategies:
  - name: MA_Crossover
    short_period: 5
  - name: buy_and_hold
data:
  source: simulated
  seed: 42
  interval: 1h
  prices:
    BTC: "40000"
log:
  level: debug
`

func TestParse_DefaultsAndValues(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.0005", cfg.Backtest.Slippage)
	assert.Equal(t, "0.1", cfg.Backtest.PositionFraction)
	require.NotNil(t, cfg.Backtest.RiskFreeRate)
	assert.Equal(t, 0.02, *cfg.Backtest.RiskFreeRate)
	require.Len(t, cfg.Strategies, 2)
	assert.Equal(t, StrategyConfig{Name: StrategyMovingAverage, ShortPeriod: 5, LongPeriod: 30}, cfg.Strategies[0])

	run, err := cfg.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"btc", "ETH"}, run.Symbols)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), run.Start)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), run.End)
	assert.True(t, run.InitialCapital.Equal(decimal.NewFromInt(50000)))
	assert.True(t, run.Execution.CommissionRate.Equal(decimal.NewFromFloat(0.002)))
	assert.True(t, run.Execution.Slippage.Equal(decimal.NewFromFloat(0.0005)))
	assert.Equal(t, 365, run.PeriodsPerYear)
	assert.Equal(t, int32(0), run.QuantityPrecision)

	strategies, err := cfg.BuildStrategies()
	require.NoError(t, err)
	require.Len(t, strategies, 2)
	assert.Equal(t, "ma_crossover_5_30", strategies[0].Name())
	assert.Equal(t, "buy_and_hold", strategies[1].Name())

	provider, err := cfg.Provider(nil)
	require.NoError(t, err)
	assert.IsType(t, &marketdata.SimulatedProvider{}, provider)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("TRADESIM_LOG_LEVEL", "warn")
	t.Setenv("TRADESIM_INITIAL_CAPITAL", "250000")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "250000", cfg.Backtest.InitialCapital)
}

func TestParse_EmptyFileGetsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, cfg.Data.Source)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []StrategyConfig{{Name: StrategyMovingAverage, ShortPeriod: 10, LongPeriod: 30}}, cfg.Strategies)

	provider, err := cfg.Provider(nil)
	require.NoError(t, err)
	assert.IsType(t, &marketdata.CSVProvider{}, provider)
}

func TestConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		check  func(*Config) error
	}{
		{"Bad Date", func(c *Config) { c.Backtest.Start = "01/02/2024" }, func(c *Config) error { _, err := c.Run(); return err }},
		{"Bad Capital", func(c *Config) { c.Backtest.InitialCapital = "lots" }, func(c *Config) error { _, err := c.Run(); return err }},
		{"Unknown Strategy", func(c *Config) { c.Strategies = []StrategyConfig{{Name: "rsi"}} }, func(c *Config) error { _, err := c.BuildStrategies(); return err }},
		{"Bad MA Periods", func(c *Config) { c.Strategies = []StrategyConfig{{Name: StrategyMovingAverage, ShortPeriod: 30, LongPeriod: 10}} }, func(c *Config) error { _, err := c.BuildStrategies(); return err }},
		{"Unknown Source", func(c *Config) { c.Data.Source = "kafka" }, func(c *Config) error { _, err := c.Provider(nil); return err }},
		{"Bad Interval", func(c *Config) { c.Data.Interval = "daily" }, func(c *Config) error { _, err := c.Provider(nil); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(sampleYAML))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, tt.check(cfg))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradesim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.Backtest.PeriodsPerYear)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("backtest: ["), 0o600))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "tradesim.yaml"))
	require.NoError(t, err)

	run, err := cfg.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, run.Symbols)

	strategies, err := cfg.BuildStrategies()
	require.NoError(t, err)
	assert.Len(t, strategies, 2)
}
