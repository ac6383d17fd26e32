package feed

import (
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"quantbt/internal/errors"
	"quantbt/internal/models"
)

// barRow is the CSV layout for daily/intraday bars. Timestamps accept
// RFC 3339 or plain dates.
type barRow struct {
	Timestamp string  `csv:"timestamp"`
	Symbol    string  `csv:"symbol"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// LoadBars reads bar events from a CSV file. A non-empty symbol
// overrides any symbol column; otherwise the column is required. The
// file must already be in ascending time order.
func LoadBars(path, symbol string) ([]models.MarketEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError("csv", symbol, "opening bar file", err)
	}
	defer f.Close()

	var rows []barRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewDataError("csv", symbol, "parsing bar file", err)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrDataNotFound, "no bars in %s", path)
	}

	events := make([]models.MarketEvent, 0, len(rows))
	var prev time.Time
	for i, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, errors.NewDataError("csv", symbol, "parsing timestamp", err)
		}
		if i > 0 && ts.Before(prev) {
			return nil, errors.Wrapf(errors.ErrOutOfOrderEvents, "row %d at %s", i+1, row.Timestamp)
		}
		prev = ts

		sym := symbol
		if sym == "" {
			sym = row.Symbol
		}
		events = append(events, models.Bar{
			Symbol:    sym,
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return events, nil
}
