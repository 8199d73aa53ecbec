package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SymbolParams drives the random walk for one symbol. Volatility is the
// per-bar standard deviation of the relative price change.
type SymbolParams struct {
	BasePrice  decimal.Decimal
	Volatility decimal.Decimal
	Trend      decimal.Decimal
}

// SimulatedProvider generates synthetic bars from a seeded random walk.
// The same seed, symbol and range always give the same bars.
type SimulatedProvider struct {
	seed     int64
	interval time.Duration
	symbols  map[string]SymbolParams
	logger   *zap.Logger
}

func NewSimulatedProvider(seed int64, interval time.Duration, logger *zap.Logger) *SimulatedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SimulatedProvider{
		seed:     seed,
		interval: interval,
		symbols:  make(map[string]SymbolParams),
		logger:   logger,
	}
}

func (p *SimulatedProvider) AddSymbol(symbol string, basePrice, volatility decimal.Decimal) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	p.symbols[symbol] = SymbolParams{BasePrice: basePrice, Volatility: volatility, Trend: decimal.Zero}
	p.logger.Info("Symbol added to simulator", zap.String("symbol", symbol), zap.String("base_price", basePrice.String()))
}

func (p *SimulatedProvider) SetTrend(symbol string, trend decimal.Decimal) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if params, ok := p.symbols[symbol]; ok {
		params.Trend = trend
		p.symbols[symbol] = params
		p.logger.Info("Trend updated", zap.String("symbol", symbol), zap.String("trend", trend.String()))
	}
}

func (p *SimulatedProvider) Stream(ctx context.Context, symbol string, start, end time.Time) (Stream, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	params, ok := p.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if !params.BasePrice.IsPositive() {
		return nil, fmt.Errorf("simulated %s: base price must be positive", symbol)
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	return &walkStream{
		rng:      rand.New(rand.NewSource(p.seed ^ int64(h.Sum64()))),
		symbol:   symbol,
		params:   params,
		price:    params.BasePrice,
		volume:   100000,
		next:     start,
		end:      end,
		interval: p.interval,
	}, nil
}

type walkStream struct {
	rng      *rand.Rand
	symbol   string
	params   SymbolParams
	price    decimal.Decimal
	volume   int64
	next     time.Time
	end      time.Time
	interval time.Duration
	done     bool
}

var (
	maxMove = decimal.NewFromFloat(0.1)
	maxWick = decimal.NewFromFloat(0.5)
)

func (s *walkStream) Next(ctx context.Context) (*events.MarketEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done || s.next.After(s.end) {
		s.done = true
		return nil, io.EOF
	}
	ts := s.next
	s.next = s.next.Add(s.interval)

	open := s.price
	change := s.params.Volatility.Mul(decimal.NewFromFloat(s.rng.NormFloat64())).Add(s.params.Trend)
	if change.Abs().GreaterThan(maxMove) {
		change = maxMove.Mul(decimal.NewFromInt(int64(change.Sign())))
	}
	closePrice := open.Mul(decimal.NewFromInt(1).Add(change)).Round(8)

	wick := decimal.Min(s.params.Volatility.Mul(decimal.NewFromFloat(s.rng.Float64()/2)), maxWick)
	high := decimal.Max(open, closePrice).Mul(decimal.NewFromInt(1).Add(wick)).Round(8)
	low := decimal.Min(open, closePrice).Mul(decimal.NewFromInt(1).Sub(wick)).Round(8)

	s.volume += s.rng.Int63n(100000) - 50000
	if s.volume < 10000 {
		s.volume = 10000
	}
	s.price = closePrice

	return events.NewMarketEvent(ts, s.symbol, open, high, low, closePrice, decimal.NewFromInt(s.volume))
}

func (s *walkStream) Close() error {
	s.done = true
	return nil
}
