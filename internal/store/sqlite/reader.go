package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backtest-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access for backtests and scans. Its Bars method
// satisfies the scanner's BarSource interface.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// Bars reads a symbol's full bar history ordered by date ascending.
func (r *Reader) Bars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	return r.BarsSince(ctx, symbol, 0)
}

// BarsSince reads a symbol's bars with ts > afterTS, ordered ascending.
func (r *Reader) BarsSince(ctx context.Context, symbol string, afterTS int64) ([]model.PriceBar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var b model.PriceBar
		var tsUnix int64
		if err := rows.Scan(&b.Symbol, &tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.Date = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestStrategy loads the highest stored version of a strategy. Returns
// (nil, nil) when the id is unknown.
func (r *Reader) LatestStrategy(id string) (*model.StrategyDefinition, error) {
	var data string
	err := r.db.QueryRow(`
		SELECT definition FROM strategies
		WHERE id = ?
		ORDER BY version DESC
		LIMIT 1
	`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read strategy: %w", err)
	}

	var def model.StrategyDefinition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("unmarshal strategy: %w", err)
	}
	return &def, nil
}

// Results loads all stored backtest results for a strategy id, newest first.
func (r *Reader) Results(id string) ([]model.BacktestResult, error) {
	rows, err := r.db.Query(`
		SELECT result FROM backtest_results
		WHERE strategy_id = ?
		ORDER BY ran_at DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite query results: %w", err)
	}
	defer rows.Close()

	var out []model.BacktestResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite scan result: %w", err)
		}
		var res model.BacktestResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Symbols lists the distinct symbols with stored bars.
func (r *Reader) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
