package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SliceProvider serves bars held in memory.
type SliceProvider struct {
	bars map[string][]Bar
}

func NewSliceProvider() *SliceProvider {
	return &SliceProvider{bars: make(map[string][]Bar)}
}

// Add appends bars for symbol. Bars are served in the order given.
func (p *SliceProvider) Add(symbol string, bars ...Bar) *SliceProvider {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	p.bars[symbol] = append(p.bars[symbol], bars...)
	return p
}

func (p *SliceProvider) Stream(ctx context.Context, symbol string, start, end time.Time) (Stream, error) {
	all, ok := p.bars[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	var selected []Bar
	for _, bar := range all {
		if inRange(bar.Timestamp, start, end) {
			selected = append(selected, bar)
		}
	}
	return &sliceStream{symbol: symbol, bars: selected}, nil
}
