package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/1cbyc/tradesim/internal/execution"
	"github.com/1cbyc/tradesim/internal/marketdata"
	"github.com/1cbyc/tradesim/internal/performance"
	"github.com/1cbyc/tradesim/internal/portfolio"
	"github.com/1cbyc/tradesim/internal/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type State string

const (
	StateConfigured State = "CONFIGURED"
	StateLoading    State = "LOADING"
	StateRunning    State = "RUNNING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
	StateCancelled  State = "CANCELLED"
)

// Engine runs one strategy set over one configuration. Each Run builds its
// own portfolio, execution handler and performance calculator, so runs on
// separate engines share nothing. An Engine itself is not safe for
// concurrent use.
type Engine struct {
	config     Config
	symbols    []string
	provider   marketdata.Provider
	strategies []strategy.Strategy
	logger     *zap.Logger
	state      State
}

func New(config Config, provider marketdata.Provider, strategies []strategy.Strategy, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		return nil, newError(ErrConfiguration, "validate", errors.New("market data provider is required"))
	}
	if err := config.validate(len(strategies)); err != nil {
		return nil, newError(ErrConfiguration, "validate", err)
	}
	for i, s := range strategies {
		if s == nil {
			return nil, newError(ErrConfiguration, "validate", fmt.Errorf("strategy %d is nil", i))
		}
	}
	return &Engine{
		config:     config,
		symbols:    config.normalizedSymbols(),
		provider:   provider,
		strategies: strategies,
		logger:     logger,
		state:      StateConfigured,
	}, nil
}

func (e *Engine) State() State {
	return e.state
}

// run holds the state of a single pass over the data.
type run struct {
	engine     *Engine
	manager    *portfolio.Manager
	handler    *execution.Handler
	calculator *performance.Calculator
	sizer      *Sizer
	prices     map[string]decimal.Decimal
	skipped    map[SkipReason]int
	incomplete int
	bars       int
}

// Run replays the configured market data through the strategies and
// returns the result. Invalid rows and rejected trades are skipped and
// counted; configuration, data source, strategy and execution failures end
// the run with a *Error and no result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result, err := e.run(ctx)
	if err != nil {
		var runErr *Error
		if !errors.As(err, &runErr) {
			err = newError(ErrBacktesting, "run", err)
		}
		if errors.Is(err, ErrCancelled) {
			e.state = StateCancelled
		} else {
			e.state = StateFailed
		}
		e.logger.Error("Backtest failed", zap.String("state", string(e.state)), zap.Error(err))
		return nil, err
	}
	e.state = StateCompleted
	return result, nil
}

func (e *Engine) run(ctx context.Context) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newError(ErrBacktesting, "run", fmt.Errorf("panic: %v", r))
		}
	}()

	e.state = StateLoading
	for _, s := range e.strategies {
		if r, ok := s.(strategy.Resetter); ok {
			r.Reset()
		}
	}

	streams, err := e.load(ctx)
	defer func() {
		for _, s := range streams {
			s.Close()
		}
	}()
	if err != nil {
		return nil, err
	}

	merged, err := newMerger(ctx, e.symbols, streams, e.logger)
	if err != nil {
		return nil, e.streamError(err)
	}

	handler, err := execution.NewHandler(e.config.Execution)
	if err != nil {
		return nil, newError(ErrConfiguration, "execution", err)
	}
	r := &run{
		engine:     e,
		manager:    portfolio.NewManager(e.config.InitialCapital, e.logger),
		handler:    handler,
		calculator: performance.NewCalculator(),
		sizer:      NewSizer(e.config.PositionFraction, e.config.Execution, e.config.QuantityPrecision),
		prices:     make(map[string]decimal.Decimal),
		skipped:    make(map[SkipReason]int),
	}
	r.calculator.AddValue(e.config.Start, e.config.InitialCapital.InexactFloat64())

	e.state = StateRunning
	e.logger.Info("Backtest started",
		zap.Strings("symbols", e.symbols),
		zap.Int("strategies", len(e.strategies)),
		zap.String("initial_capital", e.config.InitialCapital.String()),
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, newError(ErrCancelled, "run", err)
		}
		bar, err := merged.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, e.streamError(err)
		}
		if err := r.step(ctx, bar); err != nil {
			return nil, err
		}
	}

	return r.result(merged.Skipped()), nil
}

func (e *Engine) load(ctx context.Context) ([]marketdata.Stream, error) {
	streams := make([]marketdata.Stream, 0, len(e.symbols))
	for _, symbol := range e.symbols {
		stream, err := e.provider.Stream(ctx, symbol, e.config.Start, e.config.End)
		if err != nil {
			return streams, &Error{Kind: ErrData, Op: "load", Symbol: symbol, Start: e.config.Start, End: e.config.End, Err: err}
		}
		streams = append(streams, stream)
	}
	return streams, nil
}

func (e *Engine) streamError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrCancelled, "stream", err)
	}
	return &Error{Kind: ErrData, Op: "stream", Start: e.config.Start, End: e.config.End, Err: err}
}

// step processes one bar: strategies, orders, fills, then a valuation.
func (r *run) step(ctx context.Context, bar *events.MarketEvent) error {
	r.bars++
	r.prices[bar.Symbol()] = bar.Close()

	for _, s := range r.engine.strategies {
		signals, err := s.GenerateSignals(ctx, bar)
		if err != nil {
			return &Error{Kind: ErrStrategy, Op: "generate signals", Symbol: bar.Symbol(), Err: fmt.Errorf("%s: %w", s.Name(), err)}
		}
		for _, signal := range signals {
			event, err := signal.ToEvent(bar, s.Name())
			if err != nil {
				return &Error{Kind: ErrStrategy, Op: "signal", Symbol: bar.Symbol(), Err: fmt.Errorf("%s: %w", s.Name(), err)}
			}
			if err := r.trade(event); err != nil {
				return err
			}
		}
	}

	valuation := r.manager.MarkToMarket(r.prices)
	if !valuation.Complete() {
		r.incomplete++
	}
	r.calculator.AddValue(bar.Timestamp(), valuation.Total.InexactFloat64())
	return nil
}

func (r *run) trade(signal *events.SignalEvent) error {
	direction, actionable := signal.SignalType().Direction()
	if !actionable {
		return nil
	}
	symbol := signal.Symbol()
	logger := r.engine.logger.With(
		zap.String("symbol", symbol),
		zap.String("side", string(direction)),
		zap.String("strategy", signal.Strategy()),
	)

	price, ok := r.prices[symbol]
	if !ok {
		r.skip(logger, SkipNoPrice)
		return nil
	}
	quantity, reason := r.sizer.Size(direction, signal.Strength(), price, r.manager.Cash(), r.manager.HeldQuantity(symbol))
	if reason != "" {
		r.skip(logger, reason)
		return nil
	}

	order, err := events.NewOrderEvent(signal.Timestamp(), symbol, events.OrderTypeMarket, quantity, direction)
	if err != nil {
		return &Error{Kind: ErrExecution, Op: "order", Symbol: symbol, Err: err}
	}
	fill, err := r.handler.Execute(order, price)
	if err != nil {
		return &Error{Kind: ErrExecution, Op: "execute", Symbol: symbol, Err: err}
	}
	if err := r.manager.Apply(fill); err != nil {
		var rejection *portfolio.RejectionError
		if errors.As(err, &rejection) && !rejection.Fatal() {
			r.skip(logger, SkipReason(rejection.Reason))
			return nil
		}
		return &Error{Kind: ErrExecution, Op: "apply fill", Symbol: symbol, Err: err}
	}
	return nil
}

func (r *run) skip(logger *zap.Logger, reason SkipReason) {
	r.skipped[reason]++
	logger.Info("Trade skipped", zap.String("reason", string(reason)))
}

func (r *run) result(skippedRows int) *Result {
	e := r.engine
	report := r.calculator.Report(e.config.RiskFreeRate, e.config.PeriodsPerYear)

	var maxDrawdown *float64
	if report.Drawdown != nil {
		v := report.Drawdown.MaxDrawdown
		maxDrawdown = &v
	}
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	trades := r.manager.Trades()
	final := r.manager.MarkToMarket(r.prices)

	result := &Result{
		State:                StateCompleted,
		Strategies:           names,
		TotalReturn:          report.TotalReturn,
		SharpeRatio:          report.SharpeRatio,
		MaxDrawdown:          maxDrawdown,
		Drawdown:             report.Drawdown,
		TradeCount:           len(trades),
		PortfolioValues:      r.calculator.Values(),
		ValueHistory:         r.calculator.Points(),
		TradeHistory:         trades,
		BarsProcessed:        r.bars,
		SkippedRows:          skippedRows,
		SkippedTrades:        r.skipped,
		IncompleteValuations: r.incomplete,
		InitialCapital:       e.config.InitialCapital,
		FinalCash:            r.manager.Cash(),
		FinalValue:           final.Total,
		TotalCommission:      r.manager.TotalCommission(),
		RealizedPnL:          r.manager.RealizedPnL(),
		Positions:            r.manager.Positions(),
	}

	e.logger.Info("Backtest completed",
		zap.Int("bars", r.bars),
		zap.Int("trades", result.TradeCount),
		zap.Int("skipped_rows", skippedRows),
		zap.Int("skipped_trades", result.SkippedTradeCount()),
		zap.String("final_value", final.Total.String()),
	)
	return result
}
