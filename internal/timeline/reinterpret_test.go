package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWideViewRejectsBadWidth(t *testing.T) {
	s := NewStore[uint8](7)
	_, err := NewWideView[uint16](s)
	assert.Error(t, err, "7 bytes cannot carry uint16 channels")

	s = NewStore[uint8](8)
	_, err = NewWideView[uint16](s)
	assert.NoError(t, err)
}

func TestWideViewPointQuery(t *testing.T) {
	s := NewStore[uint8](4)
	// Typed index 1 of a uint16 view covers byte channels 2 and 3.
	s.Set(10, 2, 0x34)
	s.Set(10, 3, 0x12)

	view, err := NewWideView[uint16](s)
	require.NoError(t, err)

	v, ok := view.Get(10, 1)
	require.True(t, ok)
	assert.Equal(t, uint16(0x1234), v, "little-endian assembly")

	// Point query fails when any byte is missing from the snapshot.
	s.Set(20, 2, 0xFF)
	_, ok = view.Get(20, 1)
	assert.False(t, ok)

	// And when no snapshot exists at that exact time.
	_, ok = view.Get(11, 1)
	assert.False(t, ok)
}

func TestWideViewFloorAssemblesAcrossKeys(t *testing.T) {
	// The documented quirk: bytes are independent channels, so a floor
	// read may assemble a value from bytes written at different times.
	s := NewStore[uint8](2)
	s.Set(5, 0, 0xCD)  // low byte written at t=5
	s.Set(9, 1, 0xAB)  // high byte written at t=9
	s.Set(12, 0, 0xEF) // low byte changes again

	view, err := NewWideView[uint16](s)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x00CD), view.Floor(5, 0), "high byte not yet written, holds zero")
	assert.Equal(t, uint16(0xABCD), view.Floor(9, 0), "bytes sourced from t=5 and t=9")
	assert.Equal(t, uint16(0xABEF), view.Floor(12, 0), "bytes sourced from t=12 and t=9")
}

func TestWideViewRoundTrip(t *testing.T) {
	s := NewStore[uint8](8)
	want := uint32(0xDEADBEEF)
	for i, b := range scatter(want, 4) {
		s.Set(7, 4+i, b)
	}

	view, err := NewWideView[uint32](s)
	require.NoError(t, err)

	got, ok := view.Get(7, 1)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, want, view.Floor(100, 1))
}

func TestWideViewIndexOutOfRangePanics(t *testing.T) {
	s := NewStore[uint8](4)
	view, err := NewWideView[uint16](s)
	require.NoError(t, err)

	assert.Panics(t, func() { view.Get(0, 2) })
	assert.Panics(t, func() { view.Floor(0, -1) })
}

func TestNarrowView(t *testing.T) {
	s := NewStore[uint16](2)
	s.Set(3, 1, 0xBEEF)

	view := NewNarrowView(s)
	assert.Equal(t, 4, view.Width())

	lo, ok := view.Get(3, 2)
	require.True(t, ok)
	assert.Equal(t, uint8(0xEF), lo)
	hi, ok := view.Get(3, 3)
	require.True(t, ok)
	assert.Equal(t, uint8(0xBE), hi)

	_, ok = view.Get(3, 0)
	assert.False(t, ok, "channel 0 has no explicit entry")

	assert.Equal(t, uint8(0xEF), view.Floor(9, 2), "held value decomposed")
	assert.Equal(t, uint8(0), view.Floor(2, 2), "before first entry")
}

func TestWidenFlattenRoundTrip(t *testing.T) {
	typed := NewStore[uint16](3)
	typed.Set(0, 0, 0x0102)
	typed.Set(4, 2, 0xFFEE)
	typed.Set(9, 0, 0x0A0B)

	raw := Flatten(typed)
	assert.Equal(t, 6, raw.Width())

	back, err := Widen[uint16](raw)
	require.NoError(t, err)
	require.Equal(t, typed.Width(), back.Width())

	for _, time := range typed.Times() {
		arr, _ := typed.Snapshot(time)
		got, ok := back.Snapshot(time)
		require.True(t, ok)
		for c := 0; c < 3; c++ {
			wantV, wantOK := arr.Get(c)
			gotV, gotOK := got.Get(c)
			assert.Equal(t, wantOK, gotOK)
			assert.Equal(t, wantV, gotV)
		}
	}
}

func TestWidenSkipsIncompleteValues(t *testing.T) {
	raw := NewStore[uint8](2)
	raw.Set(1, 0, 0xAA) // only the low byte at t=1

	typed, err := Widen[uint16](raw)
	require.NoError(t, err)

	assert.Equal(t, 0, typed.Len(), "incomplete values are skipped, no empty snapshots")
}
