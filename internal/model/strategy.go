package model

import "time"

// StrategyType identifies one of the five built-in rule sets.
type StrategyType string

const (
	StrategyMomentum StrategyType = "momentum"
	StrategyReversal StrategyType = "reversal"
	StrategyBreakout StrategyType = "breakout"
	StrategyScalping StrategyType = "scalping"
	StrategySwing    StrategyType = "swing"
)

// Conditions holds the indicator thresholds a strategy's predicates read.
type Conditions struct {
	RSILower         float64 `json:"rsi_lower" yaml:"rsi_lower"`
	RSIUpper         float64 `json:"rsi_upper" yaml:"rsi_upper"`
	SMAShort         int     `json:"sma_short" yaml:"sma_short"`
	SMALong          int     `json:"sma_long" yaml:"sma_long"`
	MACDThreshold    float64 `json:"macd_threshold" yaml:"macd_threshold"`
	VolumeMultiplier float64 `json:"volume_multiplier" yaml:"volume_multiplier"`
}

// RiskManagement holds position sizing and exit thresholds.
type RiskManagement struct {
	StopLossPercent   float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
	MaxPositionSize   float64 `json:"max_position_size" yaml:"max_position_size"` // fraction of capital (0,1]
}

// StrategyDefinition is the interchange record between the optimizer, the
// simulator, and persistence. Immutable once passed into a backtest run:
// optimization produces a new version, never mutates in place.
type StrategyDefinition struct {
	ID         string         `json:"id" yaml:"id"`
	Type       StrategyType   `json:"type" yaml:"type"`
	Conditions Conditions     `json:"conditions" yaml:"conditions"`
	Risk       RiskManagement `json:"risk_management" yaml:"risk_management"`
	Version    int            `json:"version" yaml:"version"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MinBars returns the minimum series length the strategy needs:
// the longest SMA window, or the RSI lookback when that is larger.
func (s *StrategyDefinition) MinBars() int {
	min := s.Conditions.SMALong
	if min < 14 {
		min = 14
	}
	return min
}
