package measurement

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits value to the closed range [lo, hi].
func Clamp[T constraints.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// MapRange linearly maps value from [fromMin, fromMax] to [toMin, toMax],
// without clamping.
func MapRange[T constraints.Float](value, fromMin, fromMax, toMin, toMax T) T {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// Saturate16 converts value to int16, saturating at the bounds.
func Saturate16[T constraints.Signed](value T) int16 {
	return int16(Clamp(int64(value), math.MinInt16, math.MaxInt16))
}

// Deadband snaps value to center, if within band of it.
func Deadband[T constraints.Signed | constraints.Float](value, center, band T) T {
	if value > center-band && value < center+band {
		return center
	}
	return value
}
