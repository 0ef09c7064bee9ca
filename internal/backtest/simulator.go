// Package backtest provides the walk-forward strategy simulator and the
// performance analyzer for its results.
//
// The simulator replays a price series strictly in ascending date order and
// drives a two-state position machine (flat / long). Decisions at bar i only
// read indicator values whose warm-up windows are fully covered by bars
// 0..i — no look-ahead. Identical (series, definition) inputs always produce
// identical results: there is no randomness and no wall-clock dependence
// inside the loop.
package backtest

import (
	"math"

	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/strategy"
)

const (
	defaultInitialCapital  = 100000.0
	defaultAvgVolumePeriod = 20

	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// Config holds simulator parameters that are not part of the strategy.
type Config struct {
	InitialCapital  float64
	AvgVolumePeriod int
}

// Simulator runs long-only walk-forward backtests.
type Simulator struct {
	cfg Config
}

// NewSimulator creates a Simulator, filling zero config fields with defaults.
func NewSimulator(cfg Config) *Simulator {
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = defaultInitialCapital
	}
	if cfg.AvgVolumePeriod <= 0 {
		cfg.AvgVolumePeriod = defaultAvgVolumePeriod
	}
	return &Simulator{cfg: cfg}
}

// indicatorSet holds the precomputed series for one run plus each series'
// warm-up offset against the bar index. Misaligning these offsets is the
// classic correctness bug in this domain, so lookups go through at().
type indicatorSet struct {
	smaShort, smaLong []float64
	rsi               []float64
	macdLine          []float64
	avgVolume         []float64

	offSMAShort, offSMALong int
	offRSI, offMACD, offVol int

	// first bar index at which every series has a value
	start int
}

func computeIndicators(bars []model.PriceBar, def *model.StrategyDefinition, avgVolPeriod int) indicatorSet {
	closes := model.Closes(bars)
	volumes := model.Volumes(bars)

	set := indicatorSet{
		smaShort:  indicator.SMA(closes, def.Conditions.SMAShort),
		smaLong:   indicator.SMA(closes, def.Conditions.SMALong),
		rsi:       indicator.RSI(closes, rsiPeriod),
		macdLine:  indicator.MACD(closes, macdFast, macdSlow, macdSignal).MACD,
		avgVolume: indicator.SMA(volumes, avgVolPeriod),

		offSMAShort: def.Conditions.SMAShort - 1,
		offSMALong:  def.Conditions.SMALong - 1,
		offRSI:      rsiPeriod,
		offMACD:     macdSlow - 1,
		offVol:      avgVolPeriod - 1,
	}

	set.start = set.offSMAShort
	for _, off := range []int{set.offSMALong, set.offRSI, set.offMACD, set.offVol} {
		if off > set.start {
			set.start = off
		}
	}
	return set
}

// at builds the rule snapshot for bar i. Only valid for i >= set.start.
func (set *indicatorSet) at(i int, bar model.PriceBar) strategy.Snapshot {
	return strategy.Snapshot{
		RSI:       set.rsi[i-set.offRSI],
		SMAShort:  set.smaShort[i-set.offSMAShort],
		SMALong:   set.smaLong[i-set.offSMALong],
		MACD:      set.macdLine[i-set.offMACD],
		Volume:    bar.Volume,
		AvgVolume: set.avgVolume[i-set.offVol],
	}
}

// Run simulates the strategy over the bar series and returns the completed
// result with metrics. The series and definition are never mutated.
//
// Fails fast with ErrInsufficientData when the series cannot cover the
// strategy's longest lookback, and with ErrInvalidParameters when the
// definition or the bar ordering is unusable.
func (s *Simulator) Run(bars []model.PriceBar, def *model.StrategyDefinition) (*model.BacktestResult, error) {
	if err := strategy.Validate(def); err != nil {
		return nil, err
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}
	if len(bars) < def.MinBars() {
		return nil, model.Errorf(model.ErrInsufficientData,
			"series length %d below required %d", len(bars), def.MinBars())
	}

	set := computeIndicators(bars, def, s.cfg.AvgVolumePeriod)

	capital := s.cfg.InitialCapital
	var pos model.Position
	trades := make([]model.Trade, 0, 16)
	equity := make([]model.EquityPoint, 0, len(bars))
	peak := capital

	closeAt := func(i int, price float64, reason model.ExitReason) {
		capital += pos.Quantity * price
		trades = append(trades, model.Trade{
			EntryDate:  pos.EntryDate,
			EntryPrice: pos.EntryPrice,
			ExitDate:   bars[i].Date,
			ExitPrice:  price,
			Quantity:   pos.Quantity,
			PnL:        (price - pos.EntryPrice) * pos.Quantity,
			PnLPercent: (price - pos.EntryPrice) / pos.EntryPrice * 100,
			Reason:     reason,
		})
		pos = model.Position{}
	}

	for i := range bars {
		price := bars[i].Close
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, model.Errorf(model.ErrComputation, "non-finite close at bar %d", i)
		}

		if pos.Open {
			pnlPct := (price - pos.EntryPrice) / pos.EntryPrice * 100
			switch {
			// Stop-loss first: capital preservation wins ties
			case pnlPct <= -def.Risk.StopLossPercent:
				closeAt(i, price, model.ExitStopLoss)
			case pnlPct >= def.Risk.TakeProfitPercent:
				closeAt(i, price, model.ExitTakeProfit)
			case i >= set.start && strategy.ShouldExit(def, set.at(i, bars[i])):
				closeAt(i, price, model.ExitRule)
			}
		} else if i >= set.start && price > 0 && strategy.ShouldEnter(def, set.at(i, bars[i])) {
			qty := math.Floor(capital * def.Risk.MaxPositionSize / price)
			if qty >= 1 {
				pos = model.Position{
					EntryDate:  bars[i].Date,
					EntryPrice: price,
					Quantity:   qty,
					Open:       true,
				}
				capital -= qty * price
			}
		}

		// While invested, portfolio value is the position marked to market;
		// the residual cash left by whole-share sizing is excluded until the
		// exit returns it to capital.
		value := capital
		if pos.Open {
			value = pos.Quantity * price
		}
		if value > peak {
			peak = value
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - value) / peak * 100
		}
		equity = append(equity, model.EquityPoint{Date: bars[i].Date, Value: value, DrawdownPercent: dd})
	}

	// Terminal transition: any open position is force-closed at the last price
	if pos.Open {
		closeAt(len(bars)-1, bars[len(bars)-1].Close, model.ExitEndOfData)
	}

	result := &model.BacktestResult{
		StrategyID:      def.ID,
		StrategyVersion: def.Version,
		Symbol:          bars[0].Symbol,
		InitialCapital:  s.cfg.InitialCapital,
		Trades:          trades,
		Equity:          equity,
	}
	result.Metrics = Analyze(trades, equity, s.cfg.InitialCapital, capital)
	return result, nil
}
