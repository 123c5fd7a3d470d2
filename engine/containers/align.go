package containers

import "golang.org/x/exp/constraints"

// AlignUp rounds v up to the next multiple of alignment.
// An alignment of 0 or 1 returns v unchanged.
func AlignUp[T constraints.Unsigned](v, alignment T) T {
	if alignment <= 1 {
		return v
	}
	return (v + alignment - 1) / alignment * alignment
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
