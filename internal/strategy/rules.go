package strategy

import (
	"math"

	"backtest-systemv1/internal/model"
)

// Snapshot carries the indicator values visible at one bar. The simulator is
// responsible for warm-up alignment; predicates only read values.
type Snapshot struct {
	RSI       float64
	SMAShort  float64
	SMALong   float64
	MACD      float64
	Volume    float64
	AvgVolume float64
}

// ShouldEnter evaluates the entry predicate for the definition's type
// against the current snapshot. All clauses combine with AND semantics.
func ShouldEnter(def *model.StrategyDefinition, s Snapshot) bool {
	c := def.Conditions
	switch def.Type {
	case model.StrategyMomentum:
		return s.RSI > c.RSILower && s.RSI < c.RSIUpper &&
			s.SMAShort > s.SMALong &&
			s.MACD > c.MACDThreshold &&
			s.Volume > s.AvgVolume*c.VolumeMultiplier

	case model.StrategyReversal:
		return (s.RSI < c.RSILower || s.RSI > c.RSIUpper) &&
			s.MACD < c.MACDThreshold

	case model.StrategyBreakout:
		return s.SMAShort > s.SMALong &&
			s.RSI > c.RSILower &&
			s.Volume > s.AvgVolume*c.VolumeMultiplier

	case model.StrategySwing:
		return s.RSI > c.RSILower && s.RSI < c.RSIUpper &&
			s.SMAShort > s.SMALong

	case model.StrategyScalping:
		return math.Abs(s.RSI-50) < 15 &&
			s.SMAShort > s.SMALong
	}
	return false
}

// ShouldExit evaluates the type-specific exit predicate. Stop-loss and
// take-profit are checked by the simulator before this rule.
func ShouldExit(def *model.StrategyDefinition, s Snapshot) bool {
	c := def.Conditions
	switch def.Type {
	case model.StrategyMomentum:
		// Momentum gone: overbought or trend flipped
		return s.RSI > c.RSIUpper || s.SMAShort < s.SMALong

	case model.StrategyReversal:
		// Reverted to the neutral zone
		return s.RSI >= c.RSILower && s.RSI <= c.RSIUpper

	case model.StrategyBreakout:
		return s.SMAShort < s.SMALong

	case model.StrategySwing:
		return s.RSI > c.RSIUpper || s.SMAShort < s.SMALong

	case model.StrategyScalping:
		return math.Abs(s.RSI-50) >= 15 || s.SMAShort < s.SMALong
	}
	return false
}
