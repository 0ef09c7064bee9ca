// Package predictor produces short-horizon directional signals from a bar
// series. Predictors are pure functions of the input; an Ensemble blends
// several of them with fixed weights.
package predictor

import (
	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/model"
)

// Label is the predicted direction for the next bars.
type Label string

const (
	Bullish Label = "bullish"
	Bearish Label = "bearish"
	Neutral Label = "neutral"
)

// Signal pairs a direction with a confidence in [0,1].
type Signal struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Predictor turns a bar series into a signal.
type Predictor interface {
	Predict(bars []model.PriceBar) (Signal, error)
}

const minPredictBars = 40

// Trend votes on SMA alignment: short above long is bullish, the gap width
// relative to price sets confidence.
type Trend struct {
	Short, Long int
}

func (p Trend) Predict(bars []model.PriceBar) (Signal, error) {
	short, long := p.Short, p.Long
	if short <= 0 {
		short = 10
	}
	if long <= 0 {
		long = 30
	}
	if long <= short {
		return Signal{}, model.Errorf(model.ErrInvalidParameters, "trend windows invalid: short %d, long %d", short, long)
	}
	need := long
	if need < minPredictBars {
		need = minPredictBars
	}
	if len(bars) < need {
		return Signal{}, model.Errorf(model.ErrInsufficientData, "trend predictor needs %d bars, got %d", need, len(bars))
	}

	closes := model.Closes(bars)
	s := indicator.SMA(closes, short)
	l := indicator.SMA(closes, long)
	gap := (s[len(s)-1] - l[len(l)-1]) / closes[len(closes)-1]

	switch {
	case gap > 0:
		return Signal{Label: Bullish, Confidence: clamp(gap * 20)}, nil
	case gap < 0:
		return Signal{Label: Bearish, Confidence: clamp(-gap * 20)}, nil
	}
	return Signal{Label: Neutral, Confidence: 0.5}, nil
}

// MeanReversion votes against RSI extremes: oversold is bullish, overbought
// bearish, anything in between neutral with low confidence.
type MeanReversion struct{}

func (MeanReversion) Predict(bars []model.PriceBar) (Signal, error) {
	if len(bars) < minPredictBars {
		return Signal{}, model.Errorf(model.ErrInsufficientData, "mean reversion predictor needs %d bars, got %d", minPredictBars, len(bars))
	}
	rsi := indicator.RSI(model.Closes(bars), 14)
	cur := rsi[len(rsi)-1]

	switch {
	case cur < 30:
		return Signal{Label: Bullish, Confidence: clamp((30 - cur) / 30)}, nil
	case cur > 70:
		return Signal{Label: Bearish, Confidence: clamp((cur - 70) / 30)}, nil
	}
	return Signal{Label: Neutral, Confidence: 0.3}, nil
}

// Momentum votes with the MACD line sign, scaled by its magnitude relative
// to price.
type Momentum struct{}

func (Momentum) Predict(bars []model.PriceBar) (Signal, error) {
	if len(bars) < minPredictBars {
		return Signal{}, model.Errorf(model.ErrInsufficientData, "momentum predictor needs %d bars, got %d", minPredictBars, len(bars))
	}
	closes := model.Closes(bars)
	macd := indicator.MACD(closes, 12, 26, 9).MACD
	cur := macd[len(macd)-1] / closes[len(closes)-1]

	switch {
	case cur > 0:
		return Signal{Label: Bullish, Confidence: clamp(cur * 50)}, nil
	case cur < 0:
		return Signal{Label: Bearish, Confidence: clamp(-cur * 50)}, nil
	}
	return Signal{Label: Neutral, Confidence: 0.3}, nil
}

// Ensemble blends member predictions by weight. Bullish counts positive,
// bearish negative; the signed sum picks the label and its magnitude the
// confidence.
type Ensemble struct {
	members []Predictor
	weights []float64
}

// NewEnsemble returns the default three-member ensemble: trend 0.5,
// momentum 0.3, mean reversion 0.2.
func NewEnsemble() *Ensemble {
	return &Ensemble{
		members: []Predictor{Trend{}, Momentum{}, MeanReversion{}},
		weights: []float64{0.5, 0.3, 0.2},
	}
}

func (e *Ensemble) Predict(bars []model.PriceBar) (Signal, error) {
	var score float64
	for i, p := range e.members {
		sig, err := p.Predict(bars)
		if err != nil {
			return Signal{}, err
		}
		switch sig.Label {
		case Bullish:
			score += e.weights[i] * sig.Confidence
		case Bearish:
			score -= e.weights[i] * sig.Confidence
		}
	}

	const threshold = 0.1
	switch {
	case score > threshold:
		return Signal{Label: Bullish, Confidence: clamp(score)}, nil
	case score < -threshold:
		return Signal{Label: Bearish, Confidence: clamp(-score)}, nil
	}
	return Signal{Label: Neutral, Confidence: 1 - clamp(abs(score))}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
