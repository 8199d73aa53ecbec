package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

// CSVProvider reads <dir>/<SYMBOL>.csv files with the header
// timestamp,open,high,low,close,volume.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Stream(ctx context.Context, symbol string, start, end time.Time) (Stream, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownSymbol, symbol, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	stream, err := newCSVStream(f, symbol, start, end)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stream, nil
}

type csvStream struct {
	closer  io.Closer
	reader  *csv.Reader
	symbol  string
	start   time.Time
	end     time.Time
	columns map[string]int
	done    bool
}

func newCSVStream(rc io.ReadCloser, symbol string, start, end time.Time) (*csvStream, error) {
	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range csvColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: header missing %q", ErrMalformedRow, name)
		}
	}

	return &csvStream{
		closer:  rc,
		reader:  reader,
		symbol:  symbol,
		start:   start,
		end:     end,
		columns: columns,
	}, nil
}

func (s *csvStream) Next(ctx context.Context) (*events.MarketEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.done {
			return nil, io.EOF
		}
		record, err := s.reader.Read()
		if err == io.EOF {
			s.Close()
			return nil, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, rowError("row", "line %d: %v", parseErr.Line, parseErr.Err)
			}
			return nil, err
		}

		bar, err := s.parse(record)
		if err != nil {
			return nil, err
		}
		if bar.Timestamp.After(s.end) {
			s.Close()
			return nil, io.EOF
		}
		if !inRange(bar.Timestamp, s.start, s.end) {
			continue
		}
		return bar.Event(s.symbol)
	}
}

func (s *csvStream) parse(record []string) (Bar, error) {
	field := func(name string) string {
		i := s.columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTime(field("timestamp"))
	if err != nil {
		return Bar{}, rowError("timestamp", "%v", err)
	}
	bar := Bar{Timestamp: ts}
	targets := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
		{"volume", &bar.Volume},
	}
	for _, t := range targets {
		v, err := decimal.NewFromString(field(t.name))
		if err != nil {
			return Bar{}, rowError(t.name, "%v", err)
		}
		*t.dst = v
	}
	return bar, nil
}

func (s *csvStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.closer.Close()
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// rowError reports a row that could not be turned into a bar. It matches
// both ErrMalformedRow and events.ErrValidation so callers skip it like any
// other invalid bar.
func rowError(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", ErrMalformedRow, &events.ValidationError{
		Event:  events.EventTypeMarket,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	})
}
