package marketdata

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrMalformedRow  = errors.New("malformed row")
)

// Provider hands out one bar stream per symbol covering [start, end],
// in ascending timestamp order.
type Provider interface {
	Stream(ctx context.Context, symbol string, start, end time.Time) (Stream, error)
}

// Stream is a finite, pull-based sequence of bars that can be consumed
// once. Next returns io.EOF when exhausted and keeps returning it. An
// error wrapping events.ErrValidation rejects a single row; the stream can
// still be advanced past it.
type Stream interface {
	Next(ctx context.Context) (*events.MarketEvent, error)
	Close() error
}

// Bar is a raw OHLCV row before validation.
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

func (b Bar) Event(symbol string) (*events.MarketEvent, error) {
	return events.NewMarketEvent(b.Timestamp, symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// sliceStream replays pre-built rows.
type sliceStream struct {
	symbol string
	bars   []Bar
	pos    int
	done   bool
}

func (s *sliceStream) Next(ctx context.Context) (*events.MarketEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done || s.pos >= len(s.bars) {
		s.done = true
		return nil, io.EOF
	}
	bar := s.bars[s.pos]
	s.pos++
	return bar.Event(s.symbol)
}

func (s *sliceStream) Close() error {
	s.done = true
	return nil
}
