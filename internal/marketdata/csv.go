// Package marketdata loads historical daily bars from CSV files.
//
// The expected layout matches common broker exports: a header row of
// date,open,high,low,close,volume with dates in YYYY-MM-DD. Rows are sorted
// by date after parsing so exports with reversed ordering still load.
package marketdata

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"backtest-systemv1/internal/model"
)

type csvRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

const dateLayout = "2006-01-02"

// LoadCSV reads one symbol's daily bars from path. The returned series is
// sorted ascending by date and validated.
func LoadCSV(path, symbol string) ([]model.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, model.Errorf(model.ErrInsufficientData, "%s: no rows", path)
	}

	bars := make([]model.PriceBar, 0, len(rows))
	for i, r := range rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, model.Errorf(model.ErrInvalidParameters, "%s row %d: bad date %q", path, i+1, r.Date)
		}
		if r.High < r.Low || r.Close <= 0 {
			return nil, model.Errorf(model.ErrInvalidParameters, "%s row %d: inconsistent OHLC", path, i+1)
		}
		bars = append(bars, model.PriceBar{
			Symbol: symbol,
			Date:   date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// WriteCSV saves bars to path in the same layout LoadCSV reads.
func WriteCSV(path string, bars []model.PriceBar) error {
	rows := make([]csvRow, len(bars))
	for i, b := range bars {
		rows[i] = csvRow{
			Date:   b.Date.Format(dateLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
