package indicator

// OBV calculates On-Balance Volume: a running total that adds volume on up
// closes and subtracts it on down closes. No warm-up — output length equals
// the input length, starting at 0.
func OBV(closes, volumes []float64) []float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return []float64{}
	}

	out := make([]float64, len(closes))
	out[0] = 0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
