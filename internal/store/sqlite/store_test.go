package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"backtest-systemv1/internal/model"
)

func openPair(t *testing.T) (*Writer, *Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return w, r
}

func sampleBars(symbol string, n int) []model.PriceBar {
	out := make([]model.PriceBar, n)
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := 100 + float64(i)
		out[i] = model.PriceBar{
			Symbol: symbol,
			Date:   day.AddDate(0, 0, i),
			Open:   c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return out
}

func TestImportAndReadBars(t *testing.T) {
	w, r := openPair(t)

	in := sampleBars("ACME", 10)
	if err := w.ImportBars(in); err != nil {
		t.Fatalf("ImportBars: %v", err)
	}

	out, err := r.Bars(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("read %d bars, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Date.Equal(in[i].Date) || out[i].Close != in[i].Close {
			t.Errorf("bar %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestImportBars_ReimportIsIdempotent(t *testing.T) {
	w, r := openPair(t)

	in := sampleBars("ACME", 10)
	if err := w.ImportBars(in); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := w.ImportBars(in[5:]); err != nil {
		t.Fatalf("overlapping import: %v", err)
	}

	out, err := r.Bars(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(out) != 10 {
		t.Errorf("after overlapping re-import: %d bars, want 10", len(out))
	}
}

func TestLastBarDate(t *testing.T) {
	w, _ := openPair(t)

	last, err := w.LastBarDate("ACME")
	if err != nil {
		t.Fatalf("LastBarDate empty: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("empty table last date = %v, want zero time", last)
	}

	in := sampleBars("ACME", 5)
	if err := w.ImportBars(in); err != nil {
		t.Fatalf("ImportBars: %v", err)
	}
	last, err = w.LastBarDate("ACME")
	if err != nil {
		t.Fatalf("LastBarDate: %v", err)
	}
	if !last.Equal(in[4].Date) {
		t.Errorf("last date = %v, want %v", last, in[4].Date)
	}
}

func TestStrategyVersionLineage(t *testing.T) {
	w, r := openPair(t)

	v1 := &model.StrategyDefinition{
		ID:        "strat-1",
		Type:      model.StrategyMomentum,
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	v2 := *v1
	v2.Version = 2
	v2.Conditions.RSIUpper = 75

	if err := w.SaveStrategy(v1); err != nil {
		t.Fatalf("save v1: %v", err)
	}
	if err := w.SaveStrategy(&v2); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	got, err := r.LatestStrategy("strat-1")
	if err != nil {
		t.Fatalf("LatestStrategy: %v", err)
	}
	if got == nil || got.Version != 2 {
		t.Fatalf("latest version = %+v, want version 2", got)
	}
	if got.Conditions.RSIUpper != 75 {
		t.Errorf("latest RSIUpper = %v, want 75", got.Conditions.RSIUpper)
	}

	missing, err := r.LatestStrategy("unknown")
	if err != nil {
		t.Fatalf("LatestStrategy unknown: %v", err)
	}
	if missing != nil {
		t.Errorf("unknown id returned %+v, want nil", missing)
	}
}

func TestSaveAndReadResults(t *testing.T) {
	w, r := openPair(t)

	def := &model.StrategyDefinition{ID: "strat-1", Type: model.StrategySwing, Version: 1}
	res := &model.BacktestResult{
		Symbol:  "ACME",
		Metrics: model.Metrics{TotalTrades: 3, TotalReturnPct: 10, FinalCapital: 110000},
	}
	if err := w.SaveResult(def, "ACME", res); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	results, err := r.Results("strat-1")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Metrics.TotalTrades != 3 {
		t.Errorf("round-tripped trades = %d, want 3", results[0].Metrics.TotalTrades)
	}
}

func TestSymbols(t *testing.T) {
	w, r := openPair(t)
	if err := w.ImportBars(sampleBars("BBB", 3)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := w.ImportBars(sampleBars("AAA", 3)); err != nil {
		t.Fatalf("import: %v", err)
	}

	syms, err := r.Symbols()
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(syms) != 2 || syms[0] != "AAA" || syms[1] != "BBB" {
		t.Errorf("symbols = %v, want [AAA BBB]", syms)
	}
}
