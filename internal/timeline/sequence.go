package timeline

import (
	"iter"
	"sort"
)

// Sequence is an ordered map from time to a single channel's value, with
// the same zero-order-hold read semantics as a one-channel Store.
type Sequence[T comparable] struct {
	times []uint64 // sorted ascending
	vals  map[uint64]T
}

// NewSequence creates an empty sequence.
func NewSequence[T comparable]() *Sequence[T] {
	return &Sequence[T]{vals: make(map[uint64]T)}
}

// Len returns the number of explicit entries.
func (q *Sequence[T]) Len() int {
	return len(q.times)
}

// Insert records value at exactly time, overwriting any previous entry.
func (q *Sequence[T]) Insert(time uint64, value T) {
	if _, ok := q.vals[time]; !ok {
		i := sort.Search(len(q.times), func(i int) bool { return q.times[i] >= time })
		q.times = append(q.times, 0)
		copy(q.times[i+1:], q.times[i:])
		q.times[i] = time
	}
	q.vals[time] = value
}

// Get returns the explicit entry at exactly time, if any.
func (q *Sequence[T]) Get(time uint64) (T, bool) {
	v, ok := q.vals[time]
	return v, ok
}

// Remove deletes the explicit entry at exactly time, if any.
func (q *Sequence[T]) Remove(time uint64) {
	if _, ok := q.vals[time]; !ok {
		return
	}
	delete(q.vals, time)
	i := sort.Search(len(q.times), func(i int) bool { return q.times[i] >= time })
	q.times = append(q.times[:i], q.times[i+1:]...)
}

// Floor returns the held value at time: the entry at the greatest key
// <= time, or the zero value if there is none.
func (q *Sequence[T]) Floor(time uint64) T {
	i := sort.Search(len(q.times), func(i int) bool { return q.times[i] > time }) - 1
	if i < 0 {
		var zero T
		return zero
	}
	return q.vals[q.times[i]]
}

// Points iterates the explicit (time, value) entries in ascending time
// order. The sequence must not be mutated during iteration.
func (q *Sequence[T]) Points() iter.Seq2[uint64, T] {
	return func(yield func(uint64, T) bool) {
		for _, time := range q.times {
			if !yield(time, q.vals[time]) {
				return
			}
		}
	}
}

// Optimize removes entries equal to the previously held value (the zero
// value before the first entry), leaving Floor unchanged everywhere.
func (q *Sequence[T]) Optimize() {
	var held T
	var redundant []uint64
	for _, time := range q.times {
		v := q.vals[time]
		if v == held {
			redundant = append(redundant, time)
		} else {
			held = v
		}
	}
	for _, time := range redundant {
		q.Remove(time)
	}
}

// ChannelView is a read-only, lazy projection of one channel of a Store.
type ChannelView[T comparable] struct {
	store   *Store[T]
	channel int
}

// Floor returns the channel's held value at time.
func (v ChannelView[T]) Floor(time uint64) T {
	return v.store.Floor(time, v.channel)
}

// Points iterates the channel's explicit (time, value) entries in
// ascending time order; held values are not synthesized. The iteration is
// restartable and the underlying store must not be mutated during it.
func (v ChannelView[T]) Points() iter.Seq2[uint64, T] {
	return func(yield func(uint64, T) bool) {
		for _, time := range v.store.times {
			if val, ok := v.store.snaps[time].Get(v.channel); ok {
				if !yield(time, val) {
					return
				}
			}
		}
	}
}

// ToSequence materializes the projection as an owned Sequence.
func (v ChannelView[T]) ToSequence() *Sequence[T] {
	seq := NewSequence[T]()
	for time, val := range v.Points() {
		seq.Insert(time, val)
	}
	return seq
}
