package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backtest-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const importBatchSize = 500

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/backtest.db"
}

// Writer owns the single write connection. Bars are imported in batched
// transactions; strategies and backtest results are written row-at-a-time.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  REAL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS strategies (
			id         TEXT    NOT NULL,
			version    INTEGER NOT NULL,
			type       TEXT    NOT NULL,
			definition TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (id, version)
		);

		CREATE TABLE IF NOT EXISTS backtest_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy_id      TEXT    NOT NULL,
			strategy_version INTEGER NOT NULL,
			symbol           TEXT    NOT NULL,
			ran_at           INTEGER NOT NULL,
			result           TEXT    NOT NULL
		);
	`)
	return err
}

// ImportBars upserts a bar series in batched transactions. Re-importing an
// overlapping range is safe: (symbol, ts) conflicts are replaced.
func (w *Writer) ImportBars(bars []model.PriceBar) error {
	for start := 0; start < len(bars); start += importBatchSize {
		end := start + importBatchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := w.insertBatch(bars[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) insertBatch(bars []model.PriceBar) error {
	started := time.Now()
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(b.Symbol, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[sqlite] committed %d bars in %v", len(bars), time.Since(started))
	return nil
}

// SaveStrategy stores one version of a strategy definition as JSON. Each
// optimizer acceptance writes a new (id, version) row, keeping the lineage.
func (w *Writer) SaveStrategy(def *model.StrategyDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}

	_, err = w.db.Exec(`
		INSERT OR REPLACE INTO strategies (id, version, type, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, def.ID, def.Version, string(def.Type), string(data), def.CreatedAt.Unix(), def.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert strategy: %w", err)
	}
	return nil
}

// SaveResult stores a backtest result as JSON keyed by the strategy that
// produced it.
func (w *Writer) SaveResult(def *model.StrategyDefinition, symbol string, res *model.BacktestResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO backtest_results (strategy_id, strategy_version, symbol, ran_at, result)
		VALUES (?, ?, ?, ?, ?)
	`, def.ID, def.Version, symbol, time.Now().UTC().Unix(), string(data))
	if err != nil {
		return fmt.Errorf("sqlite insert result: %w", err)
	}
	return nil
}

// LastBarDate returns the newest stored bar timestamp for a symbol, or the
// zero time when the symbol has no bars. Used to resume incremental fetches.
func (w *Writer) LastBarDate(symbol string) (time.Time, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(`SELECT MAX(ts) FROM bars WHERE symbol = ?`, symbol).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
