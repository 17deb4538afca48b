// Package fixedpoint implements the signed fixed-point numeric substrate
// that every simulation path in Domino computes with. No floating-point
// type appears on the resolve path; Q16.16 and Q48.16 are the only
// arithmetic Domino's resolvers ever touch, so that results reproduce
// bit-for-bit across platforms and process migrations.
package fixedpoint

import "math"

// Q16 is a signed 32-bit fixed-point number with 16 fractional bits.
type Q16 int32

// Q16One is the Q16.16 representation of 1.0.
const Q16One Q16 = 1 << 16

// Q16Unknown is the sentinel value meaning "unknown" for sample fields that
// could not be computed (e.g. a refused query). It must never be treated as
// a legitimate magnitude by resolve math.
const Q16Unknown Q16 = Q16(int32(-2147483648)) // 0x80000000

// FromInt converts an integer to Q16.16, saturating on overflow.
func FromInt(n int32) Q16 {
	v := int64(n) << 16
	return saturateQ16(v)
}

// ToInt truncates a Q16.16 value to its integer part (toward zero).
func (q Q16) ToInt() int32 {
	return int32(int64(q) >> 16)
}

// FromFloat64 converts a float64 to Q16.16. It is offered only for
// authoring/fixture ingest and fixture-file parsing; it MUST NOT appear on
// the simulation resolve path.
func FromFloat64(f float64) Q16 {
	v := math.Round(f*65536.0 + 0) // round-to-nearest for authoring convenience
	if v > math.MaxInt32 {
		return Q16(math.MaxInt32)
	}
	if v < math.MinInt32 {
		return Q16(math.MinInt32)
	}
	return Q16(int32(v))
}

// ToFloat64 converts a Q16.16 value back to float64, for display/debugging
// only (never for resolve-path comparisons).
func (q Q16) ToFloat64() float64 {
	return float64(q) / 65536.0
}

func saturateQ16(v int64) Q16 {
	if v > math.MaxInt32 {
		return Q16(math.MaxInt32)
	}
	if v < math.MinInt32 {
		return Q16(math.MinInt32)
	}
	return Q16(int32(v))
}

// Add performs saturating Q16.16 addition.
func (q Q16) Add(o Q16) Q16 {
	return saturateQ16(int64(q) + int64(o))
}

// Sub performs saturating Q16.16 subtraction.
func (q Q16) Sub(o Q16) Q16 {
	return saturateQ16(int64(q) - int64(o))
}

// Mul performs Q16.16 multiplication: the 64-bit intermediate product is
// computed, rounded to nearest with ties-up (+1<<15), then shifted right 16
// and narrowed with saturation.
func (q Q16) Mul(o Q16) Q16 {
	prod := int64(q) * int64(o)
	prod += 1 << 15
	return saturateQ16(prod >> 16)
}

// Div performs Q16.16 division: the numerator is shifted left 16 before the
// integer divide, which truncates. Dividing by zero returns the saturated
// value of the correct sign (matching the simulation's "no exceptions on the
// resolve path" rule); callers that need to detect this should check the
// divisor themselves.
func (q Q16) Div(o Q16) Q16 {
	if o == 0 {
		if q >= 0 {
			return Q16(math.MaxInt32)
		}
		return Q16(math.MinInt32)
	}
	num := int64(q) << 16
	return saturateQ16(num / int64(o))
}

// Clamp restricts q to [lo, hi] inclusive.
func (q Q16) Clamp(lo, hi Q16) Q16 {
	if q < lo {
		return lo
	}
	if q > hi {
		return hi
	}
	return q
}

// Min returns the smaller of q and o.
func (q Q16) Min(o Q16) Q16 {
	if q < o {
		return q
	}
	return o
}

// Max returns the larger of q and o.
func (q Q16) Max(o Q16) Q16 {
	if q > o {
		return q
	}
	return o
}

// IsUnknown reports whether q is the "unknown" sentinel.
func (q Q16) IsUnknown() bool {
	return q == Q16Unknown
}
