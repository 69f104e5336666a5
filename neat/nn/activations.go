package nn

import "math"

// Sigmoid is the bounded, steepened sigmoid used by every node.
// It saturates to 0 below -100 and to 1 above 100; otherwise it returns
// 2 / (1 + e^(-4.9x)), which ranges over (0, 2).
func Sigmoid(x float64) float64 {
	if x > 100 {
		return 1
	}
	if x < -100 {
		return 0
	}
	return 2.0 / (1.0 + math.Exp(-4.9*x))
}
