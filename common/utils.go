package common

import "math"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp constrains v to the inclusive range [lo, hi].
//
// Parameters:
//   - v: the value to constrain
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T int | int32 | uint32 | float32 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NextPowerOfTwo returns the smallest power of two that is >= v.
// Returns 1 for inputs <= 1.
//
// Parameters:
//   - v: the input value
//
// Returns:
//   - int: the next power of two
func NextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bitsLen(uint(v-1))
}

func bitsLen(v uint) int {
	n := 0
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

// CosDeg returns the cosine of an angle given in degrees.
//
// Parameters:
//   - deg: the angle in degrees
//
// Returns:
//   - float32: cos(deg)
func CosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180.0))
}

// SinDeg returns the sine of an angle given in degrees.
//
// Parameters:
//   - deg: the angle in degrees
//
// Returns:
//   - float32: sin(deg)
func SinDeg(deg float32) float32 {
	return float32(math.Sin(float64(deg) * math.Pi / 180.0))
}
