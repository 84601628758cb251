package signal

import "math"

// ToInt16 converts float samples to 16-bit PCM, saturating at the legal
// range. Input values are interpreted as already scaled to PCM units.
func ToInt16(data []float64) []int16 {
	out := make([]int16, len(data))
	for i, v := range data {
		switch {
		case v >= math.MaxInt16:
			out[i] = math.MaxInt16
		case v <= math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(v)
		}
	}
	return out
}

// FromInt16 converts 16-bit PCM samples to floats without rescaling.
func FromInt16(data []int16) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
