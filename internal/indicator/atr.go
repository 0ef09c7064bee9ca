package indicator

// ATR calculates the Average True Range using Wilder's smoothing, seeded
// with the SMA of the first period true ranges. The first bar's true range
// is its high-low span (no previous close). Output length is
// len(closes)-period+1.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := outLen(len(closes), period)
	if n == 0 || len(highs) != len(closes) || len(lows) != len(closes) {
		return []float64{}
	}

	tr := trueRanges(highs, lows, closes)

	out := make([]float64, n)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += tr[i]
	}
	out[0] = seed / float64(period)

	p := float64(period)
	for i := 1; i < n; i++ {
		out[i] = (out[i-1]*(p-1) + tr[i+period-1]) / p
	}
	return out
}

// ADX is the simplified directional strength estimate: true-range volatility
// as a percentage of the closing price, capped at 100. Output aligns with ATR
// (length len(closes)-period+1).
func ADX(highs, lows, closes []float64, period int) []float64 {
	atr := ATR(highs, lows, closes, period)
	out := make([]float64, len(atr))
	for i := range atr {
		c := closes[i+period-1]
		if c == 0 {
			out[i] = 0
			continue
		}
		v := atr[i] / c * 100.0
		if v > 100 {
			v = 100
		}
		out[i] = v
	}
	return out
}

func trueRanges(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := highs[i] - closes[i-1]
		if hc < 0 {
			hc = -hc
		}
		lc := lows[i] - closes[i-1]
		if lc < 0 {
			lc = -lc
		}
		t := hl
		if hc > t {
			t = hc
		}
		if lc > t {
			t = lc
		}
		tr[i] = t
	}
	return tr
}
