package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/1cbyc/tradesim/internal/marketdata"
	"go.uber.org/zap"
)

type head struct {
	symbol string
	stream marketdata.Stream
	bar    *events.MarketEvent
	last   time.Time
}

// merger interleaves per-symbol streams into one sequence with
// non-decreasing timestamps. Equal timestamps come out in symbol order.
// Invalid rows are counted and skipped.
type merger struct {
	heads   []*head
	skipped int
	logger  *zap.Logger
}

func newMerger(ctx context.Context, symbols []string, streams []marketdata.Stream, logger *zap.Logger) (*merger, error) {
	m := &merger{logger: logger}
	for i, stream := range streams {
		h := &head{symbol: symbols[i], stream: stream}
		if err := m.advance(ctx, h); err != nil {
			return nil, err
		}
		m.heads = append(m.heads, h)
	}
	return m, nil
}

func (m *merger) advance(ctx context.Context, h *head) error {
	for {
		bar, err := h.stream.Next(ctx)
		switch {
		case err == io.EOF:
			h.bar = nil
			return nil
		case errors.Is(err, events.ErrValidation):
			m.skipped++
			m.logger.Warn("Skipping invalid market data row", zap.String("symbol", h.symbol), zap.Error(err))
			continue
		case err != nil:
			return err
		}
		if bar.Timestamp().Before(h.last) {
			return fmt.Errorf("%s bar at %s precedes previous bar at %s", h.symbol,
				bar.Timestamp().Format(time.RFC3339), h.last.Format(time.RFC3339))
		}
		h.last = bar.Timestamp()
		h.bar = bar
		return nil
	}
}

// Next returns the earliest pending bar, or io.EOF once every stream is
// exhausted.
func (m *merger) Next(ctx context.Context) (*events.MarketEvent, error) {
	var next *head
	for _, h := range m.heads {
		if h.bar == nil {
			continue
		}
		if next == nil || h.bar.Timestamp().Before(next.bar.Timestamp()) {
			next = h
		}
	}
	if next == nil {
		return nil, io.EOF
	}
	bar := next.bar
	if err := m.advance(ctx, next); err != nil {
		return nil, err
	}
	return bar, nil
}

func (m *merger) Skipped() int {
	return m.skipped
}
