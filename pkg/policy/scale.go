package policy

import "math"

// Rescaler linearly maps values from a source range onto a target range.
type Rescaler func(x float64) float64

// NewRescaler builds a Rescaler for [srcMin, srcMax] -> [tarMin, tarMax].
// A degenerate source range (srcMin == srcMax) maps every input to 0 rather
// than dividing by zero.
func NewRescaler(srcMin, srcMax, tarMin, tarMax float64) Rescaler {
	return func(x float64) float64 {
		if srcMin == srcMax {
			return 0
		}
		ratio := (tarMax - tarMin) / (srcMax - srcMin)
		return ratio*(x-srcMin) + tarMin
	}
}

// RoundToMultiple rounds x to the nearest multiple of step, with ties going
// to the even multiple:
//
//	RoundToMultiple(165, 50) == 150
//	RoundToMultiple(175, 50) == 200
func RoundToMultiple(x, step float64) float64 {
	return math.RoundToEven(x/step) * step
}
