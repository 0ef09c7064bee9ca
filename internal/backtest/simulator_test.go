package backtest

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/strategy"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func bars(closes []float64, volume float64) []model.PriceBar {
	out := make([]model.PriceBar, len(closes))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.PriceBar{
			Symbol: "TEST",
			Date:   day.AddDate(0, 0, i),
			Open:   c, High: c * 1.005, Low: c * 0.995, Close: c,
			Volume: volume,
		}
	}
	return out
}

func linearCloses(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

// rampMomentum builds a momentum definition that a strictly rising series
// satisfies: RSI pins at 100 on all-gain input, so the upper bound must sit
// above it, and take-profit is wide enough to never fire.
func rampMomentum(t *testing.T) *model.StrategyDefinition {
	t.Helper()
	def, err := strategy.New(model.StrategyMomentum)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	def.Conditions.SMAShort = 10
	def.Conditions.SMALong = 30
	def.Conditions.RSILower = 0
	def.Conditions.RSIUpper = 101
	def.Conditions.VolumeMultiplier = 0.5
	def.Risk.TakeProfitPercent = 50
	return def
}

// ────────────────────────────────────────────────────────────
// Scenario A: linear ramp produces exactly one winning trade
// ────────────────────────────────────────────────────────────

func TestRun_LinearRamp_OneWinningTrade(t *testing.T) {
	series := bars(linearCloses(100, 100, 150), 1000)
	def := rampMomentum(t)

	res, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want exactly 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.PnL <= 0 {
		t.Errorf("pnl = %.2f, want strictly positive", tr.PnL)
	}
	if tr.Reason != model.ExitEndOfData {
		t.Errorf("reason = %s, want %s", tr.Reason, model.ExitEndOfData)
	}
	if len(res.Equity) != len(series) {
		t.Errorf("equity points = %d, want one per bar (%d)", len(res.Equity), len(series))
	}
	if res.Metrics.TotalReturnPct <= 0 {
		t.Errorf("total return = %.2f%%, want positive", res.Metrics.TotalReturnPct)
	}
}

// Scenario C: a run with no losing trades reports profit factor exactly 1.
// This locks in current behavior; the semantics are deliberately unchanged.
func TestRun_NoLosingTrades_ProfitFactorOne(t *testing.T) {
	series := bars(linearCloses(100, 100, 150), 1000)
	res, err := NewSimulator(Config{}).Run(series, rampMomentum(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Metrics.LosingTrades != 0 {
		t.Fatalf("losing trades = %d, want 0", res.Metrics.LosingTrades)
	}
	if res.Metrics.ProfitFactor != 1 {
		t.Errorf("profit factor = %v, want exactly 1", res.Metrics.ProfitFactor)
	}
}

// While a position is open, the equity curve records the position marked to
// market, not position plus leftover cash. With half-sized positions the
// curve must drop to roughly half the starting capital at entry.
func TestRun_EquityExcludesResidualCashWhileInvested(t *testing.T) {
	series := bars(linearCloses(100, 100, 150), 1000)
	def := rampMomentum(t)
	def.Risk.MaxPositionSize = 0.5

	res, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want exactly 1", len(res.Trades))
	}
	tr := res.Trades[0]

	entryIdx := -1
	for i := range series {
		if series[i].Date.Equal(tr.EntryDate) {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		t.Fatalf("entry date %s not found in series", tr.EntryDate)
	}

	got := res.Equity[entryIdx].Value
	want := tr.Quantity * series[entryIdx].Close
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("equity at entry = %.2f, want quantity*close = %.2f", got, want)
	}
	if got >= res.InitialCapital*0.75 {
		t.Errorf("equity at entry = %.2f, want well below initial capital %.2f", got, res.InitialCapital)
	}
}

// ────────────────────────────────────────────────────────────
// Exit priority
// ────────────────────────────────────────────────────────────

func TestRun_StopLossBeatsRuleExit(t *testing.T) {
	// Ramp long enough to trigger an entry, then a 20% crash: both the
	// stop-loss and (later) the trend-flip rule would close the position,
	// but the stop must be recorded as the reason.
	closes := linearCloses(40, 100, 130)
	for i := 0; i < 20; i++ {
		closes = append(closes, 104)
	}
	series := bars(closes, 1000)
	def := rampMomentum(t)

	res, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}
	if got := res.Trades[0].Reason; got != model.ExitStopLoss {
		t.Errorf("first exit reason = %s, want %s", got, model.ExitStopLoss)
	}
}

func TestRun_TakeProfit(t *testing.T) {
	series := bars(linearCloses(100, 100, 150), 1000)
	def := rampMomentum(t)
	def.Risk.TakeProfitPercent = 5

	res, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected trades")
	}
	if got := res.Trades[0].Reason; got != model.ExitTakeProfit {
		t.Errorf("first exit reason = %s, want %s", got, model.ExitTakeProfit)
	}
	if res.Trades[0].PnLPercent < 5 {
		t.Errorf("take-profit exit at %.2f%%, want >= 5%%", res.Trades[0].PnLPercent)
	}
}

// ────────────────────────────────────────────────────────────
// Error paths
// ────────────────────────────────────────────────────────────

func TestRun_InsufficientData(t *testing.T) {
	def, _ := strategy.New(model.StrategySwing) // needs 50 bars
	series := bars(linearCloses(40, 100, 110), 1000)

	_, err := NewSimulator(Config{}).Run(series, def)
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestRun_InvalidDefinition(t *testing.T) {
	def, _ := strategy.New(model.StrategyMomentum)
	def.Conditions.SMAShort = 0
	series := bars(linearCloses(60, 100, 110), 1000)

	_, err := NewSimulator(Config{}).Run(series, def)
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("err = %v, want ErrInvalidParameters", err)
	}
}

func TestRun_UnorderedBars(t *testing.T) {
	def, _ := strategy.New(model.StrategyMomentum)
	series := bars(linearCloses(60, 100, 110), 1000)
	series[10].Date = series[9].Date // duplicate date

	_, err := NewSimulator(Config{}).Run(series, def)
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("err = %v, want ErrInvalidParameters", err)
	}
}

func TestRun_NaNClose(t *testing.T) {
	def, _ := strategy.New(model.StrategyMomentum)
	series := bars(linearCloses(60, 100, 110), 1000)
	series[30].Close = math.NaN()

	_, err := NewSimulator(Config{}).Run(series, def)
	if !errors.Is(err, model.ErrComputation) {
		t.Errorf("err = %v, want ErrComputation", err)
	}
}

// ────────────────────────────────────────────────────────────
// Invariants over random series
// ────────────────────────────────────────────────────────────

func randomWalk(rng *rand.Rand, n int) []model.PriceBar {
	out := make([]model.PriceBar, n)
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= 1 + rng.NormFloat64()*0.02
		if price < 1 {
			price = 1
		}
		out[i] = model.PriceBar{
			Symbol: "RAND",
			Date:   day.AddDate(0, 0, i),
			Open:   price, High: price * 1.01, Low: price * 0.99, Close: price,
			Volume: 500 + rng.Float64()*1000,
		}
	}
	return out
}

func TestRun_InvariantsAcrossRandomSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []model.StrategyType{
		model.StrategyMomentum, model.StrategyReversal, model.StrategyBreakout,
		model.StrategyScalping, model.StrategySwing,
	}

	for trial := 0; trial < 20; trial++ {
		series := randomWalk(rng, 200)
		for _, typ := range types {
			def, _ := strategy.New(typ)
			res, err := NewSimulator(Config{}).Run(series, def)
			if err != nil {
				t.Fatalf("trial %d %s: %v", trial, typ, err)
			}

			// Never more than one open position: closed trades must not
			// overlap in time, and each must close at or after its entry
			for i, tr := range res.Trades {
				if tr.ExitDate.Before(tr.EntryDate) {
					t.Errorf("trial %d %s: trade %d exits before entry", trial, typ, i)
				}
				if i > 0 && res.Trades[i].EntryDate.Before(res.Trades[i-1].ExitDate) {
					t.Errorf("trial %d %s: trade %d overlaps previous", trial, typ, i)
				}
			}

			for i, p := range res.Equity {
				if p.Value < 0 {
					t.Errorf("trial %d %s: equity[%d] = %.2f, want >= 0", trial, typ, i, p.Value)
				}
				if p.DrawdownPercent < 0 || p.DrawdownPercent > 100 {
					t.Errorf("trial %d %s: drawdown[%d] = %.2f, want in [0,100]", trial, typ, i, p.DrawdownPercent)
				}
			}
			if res.Metrics.MaxDrawdownPct < 0 || res.Metrics.MaxDrawdownPct > 100 {
				t.Errorf("trial %d %s: max drawdown %.2f out of [0,100]", trial, typ, res.Metrics.MaxDrawdownPct)
			}
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	series := randomWalk(rng, 150)
	def, _ := strategy.New(model.StrategyMomentum)

	r1, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	r2, err := NewSimulator(Config{}).Run(series, def)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Error("identical inputs produced differing results")
	}
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	series := randomWalk(rng, 120)
	orig := make([]model.PriceBar, len(series))
	copy(orig, series)

	def, _ := strategy.New(model.StrategyBreakout)
	defCopy := *def

	if _, err := NewSimulator(Config{}).Run(series, def); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(series, orig) {
		t.Error("bar series mutated during run")
	}
	if *def != defCopy {
		t.Error("strategy definition mutated during run")
	}
}
