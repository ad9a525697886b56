package timeline

import (
	"fmt"
	"sort"

	"github.com/mxkrm/tonegraph/internal/slot"
)

// Store is an ordered mapping from time to a snapshot of channel values.
//
// The channel width is fixed at construction. Every key present in the
// store has at least one present channel in its snapshot; operations that
// would leave a snapshot empty remove the key instead.
type Store[T comparable] struct {
	width int
	times []uint64 // sorted ascending
	snaps map[uint64]*slot.Array[T]
}

// Entry is one (channel, value) pair for batched insertion.
type Entry[T comparable] struct {
	Channel int
	Value   T
}

// NewStore creates an empty store with the given channel width.
// Panics if width is negative.
func NewStore[T comparable](width int) *Store[T] {
	if width < 0 {
		panic(fmt.Sprintf("timeline: negative channel width %d", width))
	}
	return &Store[T]{
		width: width,
		snaps: make(map[uint64]*slot.Array[T]),
	}
}

func (s *Store[T]) checkChannel(c int) {
	if c < 0 || c >= s.width {
		panic(fmt.Sprintf("timeline: channel %d out of range (width %d)", c, s.width))
	}
}

// Width returns the fixed channel count.
func (s *Store[T]) Width() int {
	return s.width
}

// Len returns the number of distinct time keys.
func (s *Store[T]) Len() int {
	return len(s.times)
}

// Times returns a copy of the time keys in ascending order.
func (s *Store[T]) Times() []uint64 {
	out := make([]uint64, len(s.times))
	copy(out, s.times)
	return out
}

// Snapshot returns the snapshot at exactly time, if one exists.
// The returned array is owned by the store; callers must not mutate it.
func (s *Store[T]) Snapshot(time uint64) (*slot.Array[T], bool) {
	arr, ok := s.snaps[time]
	return arr, ok
}

// snapshotAt returns the snapshot for time, creating it if absent.
func (s *Store[T]) snapshotAt(time uint64) *slot.Array[T] {
	if arr, ok := s.snaps[time]; ok {
		return arr
	}
	arr := slot.New[T](s.width)
	s.snaps[time] = arr
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= time })
	s.times = append(s.times, 0)
	copy(s.times[i+1:], s.times[i:])
	s.times[i] = time
	return arr
}

// dropKey removes the time key and its snapshot.
func (s *Store[T]) dropKey(time uint64) {
	if _, ok := s.snaps[time]; !ok {
		return
	}
	delete(s.snaps, time)
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= time })
	s.times = append(s.times[:i], s.times[i+1:]...)
}

// Set records value for channel at time, creating the snapshot if needed.
func (s *Store[T]) Set(time uint64, channel int, value T) {
	s.checkChannel(channel)
	s.snapshotAt(time).Set(channel, value)
}

// SetGroup records several channel values under a single time key.
// An empty entry list is a no-op: no empty snapshot is created.
func (s *Store[T]) SetGroup(time uint64, entries []Entry[T]) {
	if len(entries) == 0 {
		return
	}
	for _, e := range entries {
		s.checkChannel(e.Channel)
	}
	arr := s.snapshotAt(time)
	for _, e := range entries {
		arr.Set(e.Channel, e.Value)
	}
}

// Remove clears channel's entry at exactly time, pruning the key when the
// snapshot becomes empty. It returns the removed value, if any.
func (s *Store[T]) Remove(time uint64, channel int) (T, bool) {
	s.checkChannel(channel)
	arr, ok := s.snaps[time]
	if !ok {
		var zero T
		return zero, false
	}
	v, removed := arr.Remove(channel)
	if removed && arr.CountPresent() == 0 {
		s.dropKey(time)
	}
	return v, removed
}

// floorIndex returns the index of the greatest key <= time, or -1.
func (s *Store[T]) floorIndex(time uint64) int {
	return sort.Search(len(s.times), func(i int) bool { return s.times[i] > time }) - 1
}

// Floor returns the value of channel at time under zero-order-hold
// semantics: the value at the greatest key <= time where the channel is
// explicitly present, or the zero value if there is none.
func (s *Store[T]) Floor(time uint64, channel int) T {
	s.checkChannel(channel)
	for i := s.floorIndex(time); i >= 0; i-- {
		if v, ok := s.snaps[s.times[i]].Get(channel); ok {
			return v
		}
	}
	var zero T
	return zero
}

// FloorAll returns the held value of every channel at time.
func (s *Store[T]) FloorAll(time uint64) []T {
	out := make([]T, s.width)
	// Forward sweep up to the floor key: later snapshots overwrite earlier
	// ones, leaving each channel at its most recent explicit value.
	last := s.floorIndex(time)
	for i := 0; i <= last; i++ {
		arr := s.snaps[s.times[i]]
		for c := 0; c < s.width; c++ {
			if v, ok := arr.Get(c); ok {
				out[c] = v
			}
		}
	}
	return out
}

// Channel returns a read-only projection of one channel.
func (s *Store[T]) Channel(channel int) ChannelView[T] {
	s.checkChannel(channel)
	return ChannelView[T]{store: s, channel: channel}
}

// AbsorbSequence writes a per-channel explicit sequence into the store,
// the inverse of Channel(...).ToSequence().
func (s *Store[T]) AbsorbSequence(channel int, seq *Sequence[T]) {
	s.checkChannel(channel)
	for time, v := range seq.Points() {
		s.Set(time, channel, v)
	}
}

// Optimize removes, in a single left-to-right pass, every channel entry
// whose value equals the channel's currently held value (the zero value
// before the first explicit entry). Keys whose snapshots become empty are
// pruned. Floor results are unchanged for every (time, channel) pair.
func (s *Store[T]) Optimize() {
	held := make([]T, s.width)
	var emptied []uint64
	for _, time := range s.times {
		arr := s.snaps[time]
		for c := 0; c < s.width; c++ {
			v, ok := arr.Get(c)
			if !ok {
				continue
			}
			if v == held[c] {
				arr.Remove(c)
			} else {
				held[c] = v
			}
		}
		if arr.CountPresent() == 0 {
			emptied = append(emptied, time)
		}
	}
	for _, time := range emptied {
		s.dropKey(time)
	}
}
