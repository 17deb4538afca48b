package fixedpoint

import "math"

// Q24 is the legacy signed 32-bit fixed-point type with 8 fractional bits
// (24 integer bits), kept bit-compatible for the world-tile subsystem's
// serialized payload: Domino does not unify Q24.8 away, it keeps it exactly
// as the legacy format requires alongside Q16.16.
type Q24 int32

// Q24One is the Q24.8 representation of 1.0.
const Q24One Q24 = 1 << 8

// FromInt64ToQ24 performs the saturating i64 → Q24.8 conversion: the result
// is clamped to the signed 32-bit range after shifting in the 8 fractional
// bits.
func FromInt64ToQ24(n int64) Q24 {
	v := n << 8
	if v > math.MaxInt32 {
		return Q24(math.MaxInt32)
	}
	if v < math.MinInt32 {
		return Q24(math.MinInt32)
	}
	return Q24(int32(v))
}

// ToInt64 truncates a Q24.8 value to its integer part (toward zero).
func (q Q24) ToInt64() int64 {
	return int64(q) >> 8
}

// ToQ16 widens a Q24.8 value to Q16.16 (8 more fractional bits), saturating
// on overflow of the narrower Q16.16 integer range.
func (q Q24) ToQ16() Q16 {
	return saturateQ16(int64(q) << 8)
}

// FromQ16ToQ24 narrows a Q16.16 value to Q24.8, saturating on overflow.
func FromQ16ToQ24(q Q16) Q24 {
	v := int64(q) >> 8
	if v > math.MaxInt32 {
		return Q24(math.MaxInt32)
	}
	if v < math.MinInt32 {
		return Q24(math.MinInt32)
	}
	return Q24(int32(v))
}
