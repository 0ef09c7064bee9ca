package indicator

import "github.com/montanaflynn/stats"

// CCI calculates the Commodity Channel Index over typical prices:
// (tp - SMA(tp)) / (0.015 * meanDeviation). A window with zero mean
// deviation yields 0. Output length is len(closes)-period+1.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := outLen(len(closes), period)
	if n == 0 || len(highs) != len(closes) || len(lows) != len(closes) {
		return []float64{}
	}

	tp := make([]float64, len(closes))
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3.0
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		win := tp[i : i+period]
		mean, _ := stats.Mean(win)

		meanDev := 0.0
		for _, v := range win {
			d := v - mean
			if d < 0 {
				d = -d
			}
			meanDev += d
		}
		meanDev /= float64(period)

		if meanDev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i+period-1] - mean) / (0.015 * meanDev)
	}
	return out
}
