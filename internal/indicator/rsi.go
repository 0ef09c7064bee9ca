package indicator

// RSI calculates the Relative Strength Index from a rolling simple average
// of gains and losses over period price changes. Output length is
// len(prices)-period (one change per consecutive price pair).
//
// Division-by-zero guard: a window with no losses yields RSI = 100.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}

	changes := len(prices) - 1
	n := changes - period + 1
	out := make([]float64, n)

	// Running sums of gains and losses over the change window
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	out[0] = rsiValue(gainSum, lossSum, period)

	for i := 1; i < n; i++ {
		// Drop the change leaving the window, add the one entering
		oldDelta := prices[i] - prices[i-1]
		if oldDelta > 0 {
			gainSum -= oldDelta
		} else {
			lossSum += oldDelta
		}
		newDelta := prices[i+period] - prices[i+period-1]
		if newDelta > 0 {
			gainSum += newDelta
		} else {
			lossSum -= newDelta
		}
		out[i] = rsiValue(gainSum, lossSum, period)
	}
	return out
}

func rsiValue(gainSum, lossSum float64, period int) float64 {
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
