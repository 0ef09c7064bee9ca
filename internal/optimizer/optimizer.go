// Package optimizer improves strategy definitions by single-iteration local
// search: it backtests a fixed neighborhood of parameter perturbations and
// keeps the best neighbor only when it strictly beats the baseline's return.
package optimizer

import (
	"errors"
	"log"
	"time"

	"backtest-systemv1/internal/backtest"
	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/strategy"
)

// Sentinel scores for variants that fail to evaluate. They compare
// numerically against genuine percentage returns during ranking, so a
// variant that cannot be evaluated sorts below any profitable one.
const (
	scoreInvalidParams     = -10.0
	scoreInsufficientData  = -5.0
	defaultQuickWindowBars = 120
)

// Optimizer runs the neighborhood search. Per-variant backtests are pure and
// mutually independent; they run sequentially here.
type Optimizer struct {
	sim    *backtest.Simulator
	window int // trailing bars used for the shortened quick backtest
}

// New creates an Optimizer around a simulator. window <= 0 selects the
// default quick-backtest window.
func New(sim *backtest.Simulator, window int) *Optimizer {
	if window <= 0 {
		window = defaultQuickWindowBars
	}
	return &Optimizer{sim: sim, window: window}
}

// Improve generates the fixed neighborhood around base, scores every variant
// with a shortened backtest over the trailing window of bars, and returns
// either a new definition (same ID, Version+1, fresh UpdatedAt) or the
// original unchanged. The second return reports whether a variant was
// accepted. The baseline definition is never mutated.
func (o *Optimizer) Improve(bars []model.PriceBar, base *model.StrategyDefinition) (*model.StrategyDefinition, bool, error) {
	if err := strategy.Validate(base); err != nil {
		return nil, false, err
	}
	if len(bars) == 0 {
		return nil, false, model.Errorf(model.ErrInvalidParameters, "no bars supplied")
	}

	window := bars
	if len(window) > o.window {
		window = window[len(window)-o.window:]
	}

	baseline := o.quickScore(window, base)

	best := base
	bestScore := baseline
	for _, variant := range neighborhood(base) {
		score := o.quickScore(window, variant)
		if score > bestScore {
			best, bestScore = variant, score
		}
	}

	if best == base {
		log.Printf("[optimizer] %s v%d: no neighbor beat baseline %.2f%%, keeping", base.ID, base.Version, baseline)
		return base, false, nil
	}

	accepted := strategy.Clone(best)
	accepted.Version = base.Version + 1
	accepted.UpdatedAt = time.Now().UTC()
	log.Printf("[optimizer] %s: accepted variant %.2f%% > baseline %.2f%%, now v%d",
		base.ID, bestScore, baseline, accepted.Version)
	return accepted, true, nil
}

// neighborhood returns the fixed perturbation set around a definition.
// Each variant changes one knob; invalid combinations are still emitted and
// left to the sentinel scoring to rank out.
func neighborhood(base *model.StrategyDefinition) []*model.StrategyDefinition {
	widen := strategy.Clone(base)
	widen.Conditions.RSILower -= 5
	widen.Conditions.RSIUpper += 5

	narrow := strategy.Clone(base)
	narrow.Conditions.RSILower += 5
	narrow.Conditions.RSIUpper -= 5

	slower := strategy.Clone(base)
	slower.Conditions.SMAShort += 2
	slower.Conditions.SMALong += 5

	macd := strategy.Clone(base)
	macd.Conditions.MACDThreshold *= 1.1

	volume := strategy.Clone(base)
	volume.Conditions.VolumeMultiplier *= 1.2

	return []*model.StrategyDefinition{widen, narrow, slower, macd, volume}
}

// quickScore backtests a variant and returns its total return percentage,
// or a sentinel for variants that cannot be evaluated.
func (o *Optimizer) quickScore(bars []model.PriceBar, def *model.StrategyDefinition) float64 {
	res, err := o.sim.Run(bars, def)
	switch {
	case errors.Is(err, model.ErrInvalidParameters):
		return scoreInvalidParams
	case errors.Is(err, model.ErrInsufficientData):
		return scoreInsufficientData
	case err != nil:
		return scoreInvalidParams
	}
	return res.Metrics.TotalReturnPct
}
