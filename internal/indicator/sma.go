package indicator

// SMA calculates the Simple Moving Average over a rolling window.
// Output length is len(prices)-period+1; empty when input is shorter
// than the period. Uses a running sum — O(n) regardless of period.
func SMA(prices []float64, period int) []float64 {
	n := outLen(len(prices), period)
	if n == 0 {
		return []float64{}
	}

	out := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out[0] = sum / float64(period)

	for i := 1; i < n; i++ {
		// Slide the window: drop the oldest, add the newest
		sum += prices[i+period-1] - prices[i-1]
		out[i] = sum / float64(period)
	}
	return out
}

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first period prices. Output length is len(prices)-period+1.
// Multiplier α = 2/(period+1).
func EMA(prices []float64, period int) []float64 {
	n := outLen(len(prices), period)
	if n == 0 {
		return []float64{}
	}

	alpha := 2.0 / float64(period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	seed /= float64(period)

	out := make([]float64, n)
	out[0] = seed
	for i := 1; i < n; i++ {
		out[i] = prices[i+period-1]*alpha + out[i-1]*(1-alpha)
	}
	return out
}
