// Package mathx holds the small generic integer helpers used by the frame
// timing and waveform code.
package mathx

import "golang.org/x/exp/constraints"

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Clamp limits v to [lo, hi]. Swapped bounds are tolerated.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Min(Max(v, lo), hi)
}

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// CeilDiv is ceil(a/b); zero when b is zero.
func CeilDiv[T unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return a/b + min(a%b, 1)
}

// RoundDiv is a/b rounded half up; zero when b is zero.
func RoundDiv[T unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
