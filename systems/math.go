package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat clamps v to [lo, hi].
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// unitOrZero normalizes v to length 1, or returns the zero vector when v has
// no length. r2.Unit would return NaNs for the zero vector.
func unitOrZero(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}
