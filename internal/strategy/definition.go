// Package strategy provides strategy definition factories and per-bar rule
// evaluation for the five built-in strategy types.
//
// A StrategyDefinition is data: indicator thresholds plus risk parameters.
// The predicates in rules.go read a Snapshot of current indicator values and
// decide entry/exit. Definitions are immutable once handed to a backtest run;
// the optimizer derives new versions instead of mutating in place.
package strategy

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"backtest-systemv1/internal/model"
)

// New creates a StrategyDefinition of the given type with per-type default
// conditions and risk parameters. Returns ErrInvalidParameters for an
// unknown type.
func New(typ model.StrategyType) (*model.StrategyDefinition, error) {
	def := &model.StrategyDefinition{
		ID:        uuid.NewString(),
		Type:      typ,
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	switch typ {
	case model.StrategyMomentum:
		def.Conditions = model.Conditions{RSILower: 40, RSIUpper: 70, SMAShort: 10, SMALong: 30, MACDThreshold: 0, VolumeMultiplier: 1.2}
		def.Risk = model.RiskManagement{StopLossPercent: 5, TakeProfitPercent: 10, MaxPositionSize: 0.9}
	case model.StrategyReversal:
		def.Conditions = model.Conditions{RSILower: 30, RSIUpper: 70, SMAShort: 10, SMALong: 30, MACDThreshold: 0, VolumeMultiplier: 1.0}
		def.Risk = model.RiskManagement{StopLossPercent: 4, TakeProfitPercent: 8, MaxPositionSize: 0.8}
	case model.StrategyBreakout:
		def.Conditions = model.Conditions{RSILower: 50, RSIUpper: 80, SMAShort: 5, SMALong: 20, MACDThreshold: 0, VolumeMultiplier: 1.5}
		def.Risk = model.RiskManagement{StopLossPercent: 6, TakeProfitPercent: 12, MaxPositionSize: 0.9}
	case model.StrategyScalping:
		def.Conditions = model.Conditions{RSILower: 35, RSIUpper: 65, SMAShort: 5, SMALong: 15, MACDThreshold: 0, VolumeMultiplier: 1.0}
		def.Risk = model.RiskManagement{StopLossPercent: 2, TakeProfitPercent: 4, MaxPositionSize: 0.5}
	case model.StrategySwing:
		def.Conditions = model.Conditions{RSILower: 40, RSIUpper: 65, SMAShort: 20, SMALong: 50, MACDThreshold: 0, VolumeMultiplier: 1.0}
		def.Risk = model.RiskManagement{StopLossPercent: 8, TakeProfitPercent: 15, MaxPositionSize: 0.7}
	default:
		return nil, model.Errorf(model.ErrInvalidParameters, "unknown strategy type %q", typ)
	}

	return def, nil
}

// Validate checks a definition's parameters before simulation.
// Returns ErrInvalidParameters describing the first violation found.
func Validate(def *model.StrategyDefinition) error {
	c, r := def.Conditions, def.Risk
	switch {
	case def.Type != model.StrategyMomentum && def.Type != model.StrategyReversal &&
		def.Type != model.StrategyBreakout && def.Type != model.StrategyScalping &&
		def.Type != model.StrategySwing:
		return model.Errorf(model.ErrInvalidParameters, "unknown strategy type %q", def.Type)
	case c.SMAShort <= 0:
		return model.Errorf(model.ErrInvalidParameters, "sma_short must be positive, got %d", c.SMAShort)
	case c.SMALong <= c.SMAShort:
		return model.Errorf(model.ErrInvalidParameters, "sma_long (%d) must exceed sma_short (%d)", c.SMALong, c.SMAShort)
	case c.RSILower < 0 || c.RSIUpper <= c.RSILower:
		return model.Errorf(model.ErrInvalidParameters, "rsi bounds invalid: (%.1f, %.1f)", c.RSILower, c.RSIUpper)
	case c.VolumeMultiplier < 0:
		return model.Errorf(model.ErrInvalidParameters, "volume_multiplier must be non-negative, got %.2f", c.VolumeMultiplier)
	case r.StopLossPercent <= 0:
		return model.Errorf(model.ErrInvalidParameters, "stop_loss_percent must be positive, got %.2f", r.StopLossPercent)
	case r.TakeProfitPercent <= 0:
		return model.Errorf(model.ErrInvalidParameters, "take_profit_percent must be positive, got %.2f", r.TakeProfitPercent)
	case r.MaxPositionSize <= 0 || r.MaxPositionSize > 1:
		return model.Errorf(model.ErrInvalidParameters, "max_position_size must be in (0,1], got %.2f", r.MaxPositionSize)
	}
	return nil
}

// Clone returns a deep copy of a definition. Used by the optimizer so the
// baseline is never mutated.
func Clone(def *model.StrategyDefinition) *model.StrategyDefinition {
	cp := *def
	return &cp
}

// MarshalYAML encodes a definition for file interchange.
func MarshalYAML(def *model.StrategyDefinition) ([]byte, error) {
	return yaml.Marshal(def)
}

// UnmarshalYAML decodes a definition from file interchange and validates it.
func UnmarshalYAML(data []byte) (*model.StrategyDefinition, error) {
	var def model.StrategyDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, model.Errorf(model.ErrInvalidParameters, "strategy yaml: %v", err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}
