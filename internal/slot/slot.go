// Package slot provides a fixed-capacity array of optional values backed
// by a packed presence bitset.
//
// An Array tracks which of its n slots currently hold a live value using
// one bit per slot. Absent slots are logically unobserved: reading them
// yields nothing, and Set overwrites whatever placeholder the value slice
// holds. Capacity is fixed at construction; there is no resizing.
package slot

import (
	"fmt"
	"math/bits"
)

// Array is a fixed-capacity array of n optional slots.
//
// Invariant: slot i holds a live value iff bit i of flags is set.
// The zero Array is not usable; construct with New.
type Array[T any] struct {
	n     int
	flags []byte
	data  []T
}

// flagBytes returns the number of bytes needed to hold n presence bits.
func flagBytes(n int) int {
	return (n + 7) / 8
}

// New creates an empty Array with capacity n.
// Panics if n is negative.
func New[T any](n int) *Array[T] {
	if n < 0 {
		panic(fmt.Sprintf("slot: negative capacity %d", n))
	}
	return &Array[T]{
		n:     n,
		flags: make([]byte, flagBytes(n)),
		data:  make([]T, n),
	}
}

// checkIndex panics when i falls outside [0, n). Index violations are
// programming errors, not recoverable conditions, so they surface as
// panics with enough context to diagnose.
func (a *Array[T]) checkIndex(i int) {
	if i < 0 || i >= a.n {
		panic(fmt.Sprintf("slot: index %d out of range (capacity %d)", i, a.n))
	}
}

// Len returns the fixed capacity n.
func (a *Array[T]) Len() int {
	return a.n
}

// Present reports whether slot i holds a value.
func (a *Array[T]) Present(i int) bool {
	a.checkIndex(i)
	return a.flags[i/8]&(1<<(i%8)) != 0
}

// Get returns the value at slot i, if present.
func (a *Array[T]) Get(i int) (T, bool) {
	if !a.Present(i) {
		var zero T
		return zero, false
	}
	return a.data[i], true
}

// Ref returns a pointer to the value at slot i for in-place mutation,
// or nil if the slot is absent.
func (a *Array[T]) Ref(i int) *T {
	if !a.Present(i) {
		return nil
	}
	return &a.data[i]
}

// Set stores v at slot i, overwriting any previous value.
func (a *Array[T]) Set(i int, v T) {
	a.checkIndex(i)
	a.data[i] = v
	a.flags[i/8] |= 1 << (i % 8)
}

// Remove clears slot i and returns the value it held, if any.
// The slot's storage is reset to the zero value so the Array no longer
// references anything the caller now owns.
func (a *Array[T]) Remove(i int) (T, bool) {
	var zero T
	if !a.Present(i) {
		return zero, false
	}
	v := a.data[i]
	a.data[i] = zero
	a.flags[i/8] &^= 1 << (i % 8)
	return v, true
}

// ClearAll marks every slot absent and zeroes the backing storage.
func (a *Array[T]) ClearAll() {
	clear(a.flags)
	clear(a.data)
}

// CountPresent returns the number of occupied slots via a population
// count over the presence bitset.
func (a *Array[T]) CountPresent() int {
	total := 0
	for _, b := range a.flags {
		total += bits.OnesCount8(b)
	}
	return total
}

// Optional pairs a value with its presence flag, for whole-array
// conversion to and from plain slices.
type Optional[T any] struct {
	Value   T
	Present bool
}

// ToOptionals copies the Array into a slice of n Optionals.
func (a *Array[T]) ToOptionals() []Optional[T] {
	out := make([]Optional[T], a.n)
	for i := 0; i < a.n; i++ {
		if v, ok := a.Get(i); ok {
			out[i] = Optional[T]{Value: v, Present: true}
		}
	}
	return out
}

// FromOptionals builds an Array whose capacity and contents match vals.
func FromOptionals[T any](vals []Optional[T]) *Array[T] {
	a := New[T](len(vals))
	for i, o := range vals {
		if o.Present {
			a.Set(i, o.Value)
		}
	}
	return a
}
