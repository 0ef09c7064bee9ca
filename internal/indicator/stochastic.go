package indicator

// StochasticResult holds %K and its 3-period SMA %D. %D carries an extra
// warm-up of 2 values relative to %K.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic calculates the stochastic oscillator:
// %K = (close - lowestLow) / (highestHigh - lowestLow) * 100 over the window.
// A zero-range window yields 0, not NaN.
func Stochastic(highs, lows, closes []float64, period int) StochasticResult {
	n := outLen(len(closes), period)
	if n == 0 || len(highs) != len(closes) || len(lows) != len(closes) {
		return StochasticResult{K: []float64{}, D: []float64{}}
	}

	k := make([]float64, n)
	for i := 0; i < n; i++ {
		hh, ll := highestLowest(highs[i:i+period], lows[i:i+period])
		rng := hh - ll
		if rng == 0 {
			k[i] = 0
			continue
		}
		k[i] = (closes[i+period-1] - ll) / rng * 100.0
	}
	return StochasticResult{K: k, D: SMA(k, 3)}
}

// WilliamsR calculates Williams %R:
// (highestHigh - close) / (highestHigh - lowestLow) * -100 over the window.
// A zero-range window yields 0.
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	n := outLen(len(closes), period)
	if n == 0 || len(highs) != len(closes) || len(lows) != len(closes) {
		return []float64{}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hh, ll := highestLowest(highs[i:i+period], lows[i:i+period])
		rng := hh - ll
		if rng == 0 {
			out[i] = 0
			continue
		}
		out[i] = (hh - closes[i+period-1]) / rng * -100.0
	}
	return out
}
