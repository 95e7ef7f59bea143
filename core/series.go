package core

import (
	"golang.org/x/exp/constraints"
)

// Number covers the numeric types a Series can hold
type Number interface {
	constraints.Integer | constraints.Float
}

// Series is an ordered sequence of numeric values, oldest first
type Series[T Number] []T

// Values returns the underlying slice
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of elements in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value at the given position counting back from the end,
// Last(0) being the most recent value
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues returns up to size elements from the end of the series
func (s Series[T]) LastValues(size int) []T {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Crossover reports whether the series crossed above ref on the last step:
// at or below on the previous value and strictly above now.
// Comparisons involving NaN are false, so undefined values never cross.
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder reports whether the series crossed below ref on the last step:
// at or above on the previous value and strictly below now.
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.Last(0) < ref.Last(0) && s.Last(1) >= ref.Last(1)
}

// Cross reports whether the series crossed ref in either direction
func (s Series[T]) Cross(ref Series[T]) bool {
	return s.Crossover(ref) || s.Crossunder(ref)
}
