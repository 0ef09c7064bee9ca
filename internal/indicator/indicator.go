// Package indicator provides batch technical indicator calculations over
// price series.
//
// All functions are pure: they never mutate their inputs and allocate their
// output buffers up front from closed-form length formulas. Output slices are
// aligned to a suffix of the input — the warm-up period is omitted, so an
// indicator with period p over n prices yields n-p+1 values. Callers aligning
// multiple indicators of different periods against the same bar index must
// track each indicator's own offset.
//
// Short input is not an error: every function returns an empty series when
// len(prices) < period, so callers detect insufficiency by checking length.
package indicator

// outLen returns the output length for a windowed indicator, or 0 when the
// input is too short or the period is non-positive.
func outLen(n, period int) int {
	if period <= 0 || n < period {
		return 0
	}
	return n - period + 1
}

// highestLowest returns the max high and min low over window[0:len].
func highestLowest(highs, lows []float64) (hh, ll float64) {
	hh, ll = highs[0], lows[0]
	for i := 1; i < len(highs); i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
		if lows[i] < ll {
			ll = lows[i]
		}
	}
	return hh, ll
}
