package indicator

// MACDResult holds the three MACD output series. The three slices have
// different warm-up offsets against the input: MACD starts at bar slow-1,
// Signal and Histogram start signal-1 values later.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates Moving Average Convergence Divergence.
// macd[i] = EMA_fast aligned against EMA_slow (offset = slow-fast),
// signal = EMA(macd, signalPeriod), histogram[i] = macd[i+signal-1] - signal[i].
// All series are empty when the input cannot cover the slow period.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	if fast <= 0 || slow <= fast || signal <= 0 || len(prices) < slow {
		return MACDResult{MACD: []float64{}, Signal: []float64{}, Histogram: []float64{}}
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)

	// emaFast[i+offset] and emaSlow[i] both sit at price index i+slow-1
	offset := slow - fast
	macd := make([]float64, len(emaSlow))
	for i := range macd {
		macd[i] = emaFast[i+offset] - emaSlow[i]
	}

	sig := EMA(macd, signal)
	hist := make([]float64, len(sig))
	for i := range hist {
		hist[i] = macd[i+signal-1] - sig[i]
	}

	return MACDResult{MACD: macd, Signal: sig, Histogram: hist}
}
