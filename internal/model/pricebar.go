// Package model defines the shared data types for the backtesting core:
// price bars, strategy definitions, positions, trades, and equity curves.
//
// All types are plain data. Lifecycle rules: PriceBar slices are supplied by
// a data collaborator and never mutated; Position and Trade values are
// created and closed exclusively inside the backtest simulator loop.
package model

import (
	"encoding/json"
	"time"
)

// PriceBar represents a single OHLCV bar for one symbol.
// Sequences are ordered ascending by Date with no duplicate dates.
type PriceBar struct {
	Symbol string    `json:"symbol" csv:"symbol"`
	Date   time.Time `json:"date" csv:"-"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume float64   `json:"volume" csv:"volume"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *PriceBar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// Closes extracts the close prices of a bar sequence into a new slice.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

// Volumes extracts the volumes of a bar sequence into a new slice.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Volume
	}
	return out
}

// HighsLows extracts highs, lows, and closes in one pass.
func HighsLows(bars []PriceBar) (highs, lows, closes []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	closes = make([]float64, len(bars))
	for i := range bars {
		highs[i] = bars[i].High
		lows[i] = bars[i].Low
		closes[i] = bars[i].Close
	}
	return highs, lows, closes
}

// ValidateBars checks ordering invariants on a bar sequence:
// ascending dates, no duplicates. Returns ErrInvalidParameters on violation.
func ValidateBars(bars []PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return Errorf(ErrInvalidParameters,
				"bars out of order at index %d: %s !> %s",
				i, bars[i].Date.Format(time.RFC3339), bars[i-1].Date.Format(time.RFC3339))
		}
	}
	return nil
}
