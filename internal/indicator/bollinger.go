package indicator

import "github.com/montanaflynn/stats"

// BollingerResult holds the three band series, all aligned to the same
// suffix of the input (length len(prices)-period+1).
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands calculates volatility bands at ±k population standard
// deviations around the SMA of each window.
func BollingerBands(prices []float64, period int, k float64) BollingerResult {
	n := outLen(len(prices), period)
	if n == 0 {
		return BollingerResult{Upper: []float64{}, Middle: []float64{}, Lower: []float64{}}
	}

	middle := SMA(prices, period)
	upper := make([]float64, n)
	lower := make([]float64, n)

	for i := 0; i < n; i++ {
		// Window is non-empty, so the stddev call cannot fail
		sd, _ := stats.StandardDeviationPopulation(prices[i : i+period])
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}
