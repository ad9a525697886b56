package timeline

import "fmt"

// Reinterpretation between byte-granular and wider channel layouts is
// deliberately a checked encode/decode with a defined byte order (little
// endian), never a raw memory cast. Each byte of a wide value is an
// independent channel: a floor read assembles every byte from that byte's
// own most recent explicit entry, so the bytes of one value may come from
// different historical keys. That is the intended semantics, not a race.

// wordSize returns the byte width of T.
func wordSize[T Word]() int {
	switch any(T(0)).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// assemble decodes a little-endian word from its byte channels.
func assemble[T Word](bytes []uint8) T {
	var v T
	for i, b := range bytes {
		v |= T(b) << (8 * i)
	}
	return v
}

// scatter encodes v into size little-endian bytes.
func scatter[T Word](v T, size int) []uint8 {
	out := make([]uint8, size)
	for i := range out {
		out[i] = uint8(v >> (8 * i))
	}
	return out
}

// WideView projects a byte-granular store as wider typed channels.
// It is non-owning and read-only; mutation happens only via the store.
type WideView[T Word] struct {
	store *Store[uint8]
	size  int
}

// NewWideView creates a typed view over a byte store. The store width must
// be an exact multiple of T's byte width; the check happens here, at
// construction, never on the read path.
func NewWideView[T Word](s *Store[uint8]) (*WideView[T], error) {
	size := wordSize[T]()
	if s.Width()%size != 0 {
		return nil, fmt.Errorf("timeline: store width %d is not a multiple of element size %d", s.Width(), size)
	}
	return &WideView[T]{store: s, size: size}, nil
}

// Width returns the number of typed channels the view exposes.
func (v *WideView[T]) Width() int {
	return v.store.Width() / v.size
}

func (v *WideView[T]) checkIndex(index int) {
	if index < 0 || index >= v.Width() {
		panic(fmt.Sprintf("timeline: typed index %d out of range (width %d)", index, v.Width()))
	}
}

// Get performs a point query at exactly time. It succeeds only when every
// constituent byte is explicitly present in that one snapshot.
func (v *WideView[T]) Get(time uint64, index int) (T, bool) {
	v.checkIndex(index)
	arr, ok := v.store.Snapshot(time)
	if !ok {
		return 0, false
	}
	bytes := make([]uint8, v.size)
	for i := 0; i < v.size; i++ {
		b, present := arr.Get(index*v.size + i)
		if !present {
			return 0, false
		}
		bytes[i] = b
	}
	return assemble[T](bytes), true
}

// Floor resolves each byte channel independently via its own floor query
// and assembles the result; absent byte channels contribute zero.
func (v *WideView[T]) Floor(time uint64, index int) T {
	v.checkIndex(index)
	bytes := make([]uint8, v.size)
	for i := 0; i < v.size; i++ {
		bytes[i] = v.store.Floor(time, index*v.size+i)
	}
	return assemble[T](bytes)
}

// NarrowView projects a typed store as flat byte channels, decomposing one
// typed channel's value into its constituent bytes on read. It is
// non-owning and read-only.
type NarrowView[T Word] struct {
	store *Store[T]
	size  int
}

// NewNarrowView creates a byte view over a typed store.
func NewNarrowView[T Word](s *Store[T]) *NarrowView[T] {
	return &NarrowView[T]{store: s, size: wordSize[T]()}
}

// Width returns the number of byte channels the view exposes.
func (v *NarrowView[T]) Width() int {
	return v.store.Width() * v.size
}

func (v *NarrowView[T]) checkIndex(flat int) {
	if flat < 0 || flat >= v.Width() {
		panic(fmt.Sprintf("timeline: byte index %d out of range (width %d)", flat, v.Width()))
	}
}

// Get performs a point query at exactly time for one byte of one typed
// channel's explicit value.
func (v *NarrowView[T]) Get(time uint64, flat int) (uint8, bool) {
	v.checkIndex(flat)
	arr, ok := v.store.Snapshot(time)
	if !ok {
		return 0, false
	}
	val, present := arr.Get(flat / v.size)
	if !present {
		return 0, false
	}
	return scatter(val, v.size)[flat%v.size], true
}

// Floor returns one byte of the typed channel's held value at time.
func (v *NarrowView[T]) Floor(time uint64, flat int) uint8 {
	v.checkIndex(flat)
	return scatter(v.store.Floor(time, flat/v.size), v.size)[flat%v.size]
}

// Widen converts a whole byte store into a typed store. A typed value is
// recorded at a key only when all of its bytes are explicit at that key;
// keys yielding no complete value are skipped.
func Widen[T Word](raw *Store[uint8]) (*Store[T], error) {
	view, err := NewWideView[T](raw)
	if err != nil {
		return nil, err
	}
	result := NewStore[T](view.Width())
	for _, time := range raw.times {
		for i := 0; i < view.Width(); i++ {
			if val, ok := view.Get(time, i); ok {
				result.Set(time, i, val)
			}
		}
	}
	return result, nil
}

// Flatten converts a whole typed store into a byte store, decomposing
// every explicit value into its little-endian bytes.
func Flatten[T Word](typed *Store[T]) *Store[uint8] {
	size := wordSize[T]()
	result := NewStore[uint8](typed.Width() * size)
	for _, time := range typed.times {
		arr := typed.snaps[time]
		for c := 0; c < typed.Width(); c++ {
			if val, ok := arr.Get(c); ok {
				for i, b := range scatter(val, size) {
					result.Set(time, c*size+i, b)
				}
			}
		}
	}
	return result
}
