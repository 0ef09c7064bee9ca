// cmd/optimize runs one local-search iteration over a stored strategy and
// writes the improved version back when a neighbor beats the baseline.
//
// Usage:
//
//	go run ./cmd/optimize --symbol=ACME --id=<strategy-id>
//	go run ./cmd/optimize --csv=data/ACME.csv --symbol=ACME --strategy=strat.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/backtest"
	"backtest-systemv1/internal/marketdata"
	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/optimizer"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
	"backtest-systemv1/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	csvPath := flag.String("csv", "", "Load bars from a CSV export instead of SQLite")
	symbol := flag.String("symbol", "", "Symbol to optimize against (required)")
	strategyID := flag.String("id", "", "Stored strategy id to optimize")
	strategyFile := flag.String("strategy", "", "YAML strategy definition (alternative to --id)")
	window := flag.Int("window", 0, "Trailing bars for the quick backtest (0=default)")
	flag.Parse()

	cfg := config.Load()
	if *symbol == "" {
		log.Fatal("[optimize] --symbol is required")
	}
	if *strategyID == "" && *strategyFile == "" {
		log.Fatal("[optimize] one of --id or --strategy is required")
	}

	var bars []model.PriceBar
	var err error
	if *csvPath != "" {
		bars, err = marketdata.LoadCSV(*csvPath, *symbol)
	} else {
		var reader *sqlitestore.Reader
		reader, err = sqlitestore.NewReader(cfg.SQLitePath)
		if err == nil {
			defer reader.Close()
			bars, err = reader.Bars(context.Background(), *symbol)
		}
	}
	if err != nil {
		log.Fatalf("[optimize] load bars: %v", err)
	}

	base, err := loadBase(cfg, *strategyID, *strategyFile)
	if err != nil {
		log.Fatalf("[optimize] strategy: %v", err)
	}

	opt := optimizer.New(backtest.NewSimulator(backtest.Config{InitialCapital: cfg.InitialCapital}), *window)
	improved, accepted, err := opt.Improve(bars, base)
	if err != nil {
		log.Fatalf("[optimize] improve: %v", err)
	}

	if !accepted {
		fmt.Printf("strategy %s v%d: baseline unbeaten, no new version\n", base.ID, base.Version)
		return
	}

	fmt.Printf("strategy %s: v%d -> v%d\n", improved.ID, base.Version, improved.Version)
	fmt.Printf("  rsi bounds:  (%.1f, %.1f) -> (%.1f, %.1f)\n",
		base.Conditions.RSILower, base.Conditions.RSIUpper,
		improved.Conditions.RSILower, improved.Conditions.RSIUpper)
	fmt.Printf("  sma:         %d/%d -> %d/%d\n",
		base.Conditions.SMAShort, base.Conditions.SMALong,
		improved.Conditions.SMAShort, improved.Conditions.SMALong)

	if *strategyID != "" {
		store, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[optimize] sqlite open: %v", err)
		}
		defer store.Close()
		if err := store.SaveStrategy(improved); err != nil {
			log.Fatalf("[optimize] save: %v", err)
		}
		log.Printf("[optimize] stored %s v%d", improved.ID, improved.Version)
	} else {
		data, err := strategy.MarshalYAML(improved)
		if err != nil {
			log.Fatalf("[optimize] marshal: %v", err)
		}
		os.Stdout.Write(data)
	}
}

func loadBase(cfg *config.Config, id, file string) (*model.StrategyDefinition, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return strategy.UnmarshalYAML(data)
	}

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	def, err := reader.LatestStrategy(id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("strategy %s not found", id)
	}
	return def, nil
}
