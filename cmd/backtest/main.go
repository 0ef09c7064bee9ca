// cmd/backtest runs one strategy over stored or exported daily bars and
// prints the trade-by-trade report with summary metrics.
//
// Usage:
//
//	go run ./cmd/backtest --csv=data/ACME.csv --symbol=ACME --type=momentum
//	go run ./cmd/backtest --symbol=ACME --strategy=strat.yaml --save
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/backtest"
	"backtest-systemv1/internal/marketdata"
	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/predictor"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
	"backtest-systemv1/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	csvPath := flag.String("csv", "", "Load bars from a CSV export instead of SQLite")
	symbol := flag.String("symbol", "", "Symbol to backtest (required)")
	typeName := flag.String("type", "momentum", "Strategy type: momentum|reversal|breakout|swing|scalping")
	strategyFile := flag.String("strategy", "", "YAML strategy definition (overrides --type)")
	save := flag.Bool("save", false, "Persist the result and strategy to SQLite")
	flag.Parse()

	cfg := config.Load()
	if *symbol == "" {
		log.Fatal("[backtest] --symbol is required")
	}

	bars, err := loadBars(cfg, *csvPath, *symbol)
	if err != nil {
		log.Fatalf("[backtest] load bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("[backtest] no bars stored for %s", *symbol)
	}
	log.Printf("[backtest] %s: %d bars (%s .. %s)", *symbol, len(bars),
		bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02"))

	def, err := loadStrategy(*strategyFile, *typeName)
	if err != nil {
		log.Fatalf("[backtest] strategy: %v", err)
	}

	sim := backtest.NewSimulator(backtest.Config{InitialCapital: cfg.InitialCapital})
	started := time.Now()
	res, err := sim.Run(bars, def)
	if err != nil {
		log.Fatalf("[backtest] run: %v", err)
	}
	log.Printf("[backtest] completed in %v: %d trades", time.Since(started), len(res.Trades))

	printTrades(res)
	printMetrics(res)

	if sig, err := predictor.NewEnsemble().Predict(bars); err == nil {
		fmt.Printf("next-bar outlook: %s (%.2f)\n", sig.Label, sig.Confidence)
	}

	if *save {
		store, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[backtest] sqlite open: %v", err)
		}
		defer store.Close()
		if err := store.SaveStrategy(def); err != nil {
			log.Fatalf("[backtest] save strategy: %v", err)
		}
		if err := store.SaveResult(def, *symbol, res); err != nil {
			log.Fatalf("[backtest] save result: %v", err)
		}
		log.Printf("[backtest] saved result for strategy %s v%d", def.ID, def.Version)
	}
}

func loadBars(cfg *config.Config, csvPath, symbol string) ([]model.PriceBar, error) {
	if csvPath != "" {
		return marketdata.LoadCSV(csvPath, symbol)
	}
	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.Bars(context.Background(), symbol)
}

func loadStrategy(file, typeName string) (*model.StrategyDefinition, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return strategy.UnmarshalYAML(data)
	}
	return strategy.New(model.StrategyType(typeName))
}

func printTrades(res *model.BacktestResult) {
	if len(res.Trades) == 0 {
		fmt.Println("no trades")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entry", "Exit", "Qty", "Entry Px", "Exit Px", "PnL", "PnL %", "Reason"})
	for _, tr := range res.Trades {
		table.Append([]string{
			tr.EntryDate.Format("2006-01-02"),
			tr.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%.0f", tr.Quantity),
			fmt.Sprintf("%.2f", tr.EntryPrice),
			fmt.Sprintf("%.2f", tr.ExitPrice),
			fmt.Sprintf("%.2f", tr.PnL),
			fmt.Sprintf("%.2f%%", tr.PnLPercent),
			string(tr.Reason),
		})
	}
	table.Render()
}

func printMetrics(res *model.BacktestResult) {
	m := res.Metrics
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total trades", fmt.Sprintf("%d", m.TotalTrades)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.1f%%", m.WinRate*100)})
	table.Append([]string{"Total return", fmt.Sprintf("%.2f%%", m.TotalReturnPct)})
	table.Append([]string{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdownPct)})
	table.Append([]string{"Sharpe ratio", fmt.Sprintf("%.2f", m.SharpeRatio)})
	table.Append([]string{"Profit factor", fmt.Sprintf("%.2f", m.ProfitFactor)})
	table.Append([]string{"Final capital", fmt.Sprintf("%.2f", m.FinalCapital)})
	table.Render()
}
