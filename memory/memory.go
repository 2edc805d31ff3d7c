// Package memory provides width-safe integer helpers for memory-region
// arithmetic: alignment, range clamping and checks that a 64-bit logical
// offset fits the native uint/int width.
package memory

import "math/bits"

// Unsigned is the set of fixed-width unsigned integers the fitting
// helpers accept.
type Unsigned interface {
	~uint32 | ~uint64
}

// Aligned rounds value up to the next multiple of align.
// align must be a power of two. Zero stays zero.
func Aligned(value, align uint64) uint64 {
	if value == 0 {
		return 0
	}
	return ((value - 1) | (align - 1)) + 1
}

// Range is a half-open interval [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of elements in r, or 0 if r is inverted.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether r contains no elements.
func (r Range) Empty() bool {
	return r.Len() == 0
}

// ClampRange clamps both ends of values into bounds.
// The result always lies within bounds; a values range entirely outside
// bounds collapses to an empty range at the nearest edge.
func ClampRange(values, bounds Range) Range {
	return Range{
		Start: min(bounds.End, max(bounds.Start, values.Start)),
		End:   min(bounds.End, max(bounds.Start, values.End)),
	}
}

// UintSize is the width of the native uint in bits.
const UintSize = bits.UintSize

const (
	maxUint = 1<<UintSize - 1
	maxInt  = 1<<(UintSize-1) - 1
)

// FitsUint reports whether v can be converted to uint without loss.
func FitsUint[T Unsigned](v T) bool {
	return uint64(v) <= maxUint
}

// FitsInt reports whether v can be converted to int without loss.
func FitsInt[T Unsigned](v T) bool {
	return uint64(v) <= maxInt
}

// UintFits reports whether a native uint can be converted to T without loss.
func UintFits[T Unsigned](v uint) bool {
	return uint64(v) <= maxOf[T]()
}

// IntFits reports whether a native int can be converted to T without loss.
// Negative values never fit.
func IntFits[T Unsigned](v int) bool {
	return v >= 0 && uint64(v) <= maxOf[T]()
}

// FitsUint64 reports whether a native uint fits into uint64.
func FitsUint64(v uint) bool {
	return UintFits[uint64](v)
}

// FitsUint32 reports whether a native uint fits into uint32.
func FitsUint32(v uint) bool {
	return UintFits[uint32](v)
}

func maxOf[T Unsigned]() uint64 {
	var zero T
	return uint64(^zero)
}
