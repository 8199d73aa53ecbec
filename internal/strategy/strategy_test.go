package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createTestBar(t *testing.T, symbol string, day int, price float64) *events.MarketEvent {
	t.Helper()
	p := decimal.NewFromFloat(price)
	bar, err := events.NewMarketEvent(start.AddDate(0, 0, day), symbol, p, p, p, p, decimal.NewFromInt(1000))
	require.NoError(t, err)
	return bar
}

func TestNewMovingAverageStrategy(t *testing.T) {
	s, err := NewMovingAverageStrategy(3, 5)

	require.NoError(t, err)
	assert.Equal(t, "ma_crossover_3_5", s.Name())
	assert.Equal(t, 3, s.shortPeriod)
	assert.Equal(t, 5, s.longPeriod)

	_, err = NewMovingAverageStrategy(5, 5)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMovingAverageStrategy(0, 5)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMovingAverageStrategy_Crossovers(t *testing.T) {
	s, err := NewMovingAverageStrategy(2, 4)
	require.NoError(t, err)

	prices := []float64{10, 10, 10, 9, 8, 12, 14, 15, 9, 6, 5}
	var got []string
	for i, price := range prices {
		signals, err := s.GenerateSignals(context.Background(), createTestBar(t, "AAPL", i, price))
		require.NoError(t, err)
		for _, sig := range signals {
			assert.Equal(t, "AAPL", sig.Symbol)
			got = append(got, sig.Action)
		}
	}

	assert.Equal(t, []string{"BUY", "SELL"}, got)
}

func TestMovingAverageStrategy_InsufficientHistory(t *testing.T) {
	s, err := NewMovingAverageStrategy(3, 10)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		signals, err := s.GenerateSignals(context.Background(), createTestBar(t, "AAPL", i, float64(100+i)))
		require.NoError(t, err)
		assert.Empty(t, signals)
	}
}

func TestMovingAverageStrategy_Reset(t *testing.T) {
	s, err := NewMovingAverageStrategy(2, 3)
	require.NoError(t, err)

	run := func() []Signal {
		var out []Signal
		for i, price := range []float64{10, 9, 8, 12, 14, 7, 6} {
			signals, err := s.GenerateSignals(context.Background(), createTestBar(t, "X", i, price))
			require.NoError(t, err)
			out = append(out, signals...)
		}
		return out
	}

	first := run()
	s.Reset()
	second := run()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestMovingAverageStrategy_CalculateConfidence(t *testing.T) {
	s, err := NewMovingAverageStrategy(2, 4)
	require.NoError(t, err)

	tests := []struct {
		name     string
		shortMA  float64
		longMA   float64
		expected float64
	}{
		{"Small Spread", 101, 100, 0.2},
		{"Capped", 150, 100, 1},
		{"Below", 99, 100, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.calculateConfidence(decimal.NewFromFloat(tt.shortMA), decimal.NewFromFloat(tt.longMA))
			assert.True(t, got.Equal(decimal.NewFromFloat(tt.expected)), "got %s", got)
		})
	}
}

func TestMovingAverageStrategy_NilEvent(t *testing.T) {
	s, err := NewMovingAverageStrategy(2, 4)
	require.NoError(t, err)

	_, err = s.GenerateSignals(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilEvent)
}

func TestBuyAndHoldStrategy(t *testing.T) {
	s := NewBuyAndHoldStrategy()

	first, err := s.GenerateSignals(context.Background(), createTestBar(t, "btc", 0, 100))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "BUY", first[0].Action)

	again, err := s.GenerateSignals(context.Background(), createTestBar(t, "btc", 1, 110))
	require.NoError(t, err)
	assert.Empty(t, again)

	s.Reset()
	afterReset, err := s.GenerateSignals(context.Background(), createTestBar(t, "btc", 2, 120))
	require.NoError(t, err)
	assert.Len(t, afterReset, 1)
}

func TestSignal_ToEvent(t *testing.T) {
	bar := createTestBar(t, "ETH", 0, 2000)

	tests := []struct {
		name         string
		signal       Signal
		wantSymbol   string
		wantType     events.SignalType
		wantStrength float64
	}{
		{"Defaults Symbol And Strength", Signal{Action: "buy"}, "ETH", events.SignalBuy, 1},
		{"Keeps Strength", Sell("eth", decimal.NewFromFloat(0.25)), "ETH", events.SignalSell, 0.25},
		{"Clamps Out Of Range", Signal{Symbol: "BTC", Action: "HOLD", Strength: decimal.NewNullDecimal(decimal.NewFromFloat(1.5))}, "BTC", events.SignalHold, 1},
		{"Negative Strength", Signal{Action: "SELL", Strength: decimal.NewNullDecimal(decimal.NewFromFloat(-0.1))}, "ETH", events.SignalSell, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.signal.ToEvent(bar, "test")

			require.NoError(t, err)
			assert.Equal(t, tt.wantSymbol, e.Symbol())
			assert.Equal(t, tt.wantType, e.SignalType())
			assert.True(t, e.Strength().Equal(decimal.NewFromFloat(tt.wantStrength)))
			assert.Equal(t, bar.Timestamp(), e.Timestamp())
			assert.Equal(t, "test", e.Strategy())
		})
	}

	_, err := Signal{Action: "SHORT"}.ToEvent(bar, "test")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
