package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxkrm/tonegraph/internal/config"
	"github.com/mxkrm/tonegraph/internal/graph"
	"github.com/mxkrm/tonegraph/internal/midifile"
)

func usedKeys(keys ...uint8) [128]bool {
	var used [128]bool
	for _, k := range keys {
		used[k] = true
	}
	return used
}

func TestMapKeysDenseAscending(t *testing.T) {
	m := MapKeys(usedKeys(64, 27, 100))

	assert.Equal(t, []uint8{27, 64, 100}, m.IndexToKey)
	assert.Equal(t, 0, m.KeyToIndex[27])
	assert.Equal(t, 2, m.KeyToIndex[100])
	assert.Equal(t, 1, m.channelCount(8))
	assert.Equal(t, 3, m.channelCount(1))
	assert.Equal(t, 2, m.channelCount(2))
}

func TestMapKeysEmpty(t *testing.T) {
	m := MapKeys([128]bool{})
	assert.Empty(t, m.IndexToKey)
	assert.Equal(t, 0, m.channelCount(8))
}

func TestFoldPacksBits(t *testing.T) {
	m := MapKeys(usedKeys(60, 64))
	notes := []midifile.NoteEvent{
		{Time: 0, Key: 60, On: true},
		{Time: 10, Key: 64, On: true},
		{Time: 20, Key: 60, On: false},
	}

	store := Fold(notes, m, 8)
	store.Optimize()

	require.Equal(t, 1, store.Width())
	assert.Equal(t, uint16(0b01), store.Floor(0, 0))
	assert.Equal(t, uint16(0b11), store.Floor(10, 0))
	assert.Equal(t, uint16(0b10), store.Floor(20, 0))
	assert.Equal(t, uint16(0b10), store.Floor(999, 0))
}

func TestFoldSpansChannels(t *testing.T) {
	// Two bits per channel: keys 60,61 land in channel 0, key 62 in 1.
	m := MapKeys(usedKeys(60, 61, 62))
	notes := []midifile.NoteEvent{
		{Time: 0, Key: 61, On: true},
		{Time: 0, Key: 62, On: true},
	}

	store := Fold(notes, m, 2)

	require.Equal(t, 2, store.Width())
	assert.Equal(t, uint16(0b10), store.Floor(0, 0))
	assert.Equal(t, uint16(0b01), store.Floor(0, 1))
}

func TestFoldCountersSaturateNotToggle(t *testing.T) {
	// Two overlapping note-ons on the same key release only after the
	// second off.
	m := MapKeys(usedKeys(60))
	notes := []midifile.NoteEvent{
		{Time: 0, Key: 60, On: true},
		{Time: 5, Key: 60, On: true},
		{Time: 10, Key: 60, On: false},
		{Time: 15, Key: 60, On: false},
	}

	store := Fold(notes, m, 8)

	assert.Equal(t, uint16(1), store.Floor(10, 0), "still held by the first on")
	assert.Equal(t, uint16(0), store.Floor(15, 0))
}

func TestFoldSameTickEventsCoalesce(t *testing.T) {
	// On and off at the same tick resolve before the state is sampled, so
	// no transient word is recorded.
	m := MapKeys(usedKeys(60))
	notes := []midifile.NoteEvent{
		{Time: 4, Key: 60, On: true},
		{Time: 4, Key: 60, On: false},
	}

	store := Fold(notes, m, 8)
	store.Optimize()

	assert.Equal(t, 0, store.Len())
}

func testTrack() *midifile.Track {
	return &midifile.Track{
		Notes: []midifile.NoteEvent{
			{Time: 0, Key: 60, On: true},
			{Time: 100, Key: 60, On: false},
			{Time: 100, Key: 64, On: true},
			{Time: 200, Key: 64, On: false},
		},
		Tempo:           []midifile.TempoChange{{Time: 0, MicrosPerQuarter: 500000}},
		TicksPerQuarter: 480,
		Length:          200,
		UsedKeys:        usedKeys(60, 64),
	}
}

func TestRunEndToEnd(t *testing.T) {
	res, err := Run(testTrack(), config.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Channels)
	assert.Equal(t, 2, res.UsedKeys)
	assert.Greater(t, res.Functions, 0)
	require.NotNil(t, res.Graph)

	// Prologue (5) + decoder + join + 2 tones + channel evaluators +
	// tempo evaluator.
	assert.GreaterOrEqual(t, len(res.Graph.Nodes), 10)
	assert.Equal(t, graph.KindSwitch, res.Graph.Nodes[res.Graph.Root].Kind)
}

func TestRunEmptyTrack(t *testing.T) {
	track := &midifile.Track{
		Tempo:           []midifile.TempoChange{{Time: 0, MicrosPerQuarter: 500000}},
		TicksPerQuarter: 96,
	}

	res, err := Run(track, config.Default())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Channels)
	assert.Equal(t, 0, res.UsedKeys)
	// Prologue plus the tempo evaluator; no channel machinery.
	assert.Len(t, res.Graph.Nodes, 6)
}

func TestRunChannelCapacityExceeded(t *testing.T) {
	cfg := config.Default()
	cfg.ChannelCapacity = 1
	cfg.BitsPerChannel = 1

	track := testTrack() // two used keys -> two 1-bit channels

	res, err := Run(track, cfg)
	require.Error(t, err)
	assert.True(t, graph.IsCapacityError(err))
	assert.Nil(t, res, "no partial output on failure")
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BitsPerChannel = 0

	_, err := Run(testTrack(), cfg)
	assert.Error(t, err)
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(testTrack(), config.Default())
	require.NoError(t, err)
	b, err := Run(testTrack(), config.Default())
	require.NoError(t, err)

	require.Equal(t, len(a.Graph.Nodes), len(b.Graph.Nodes))
	for i := range a.Graph.Nodes {
		assert.Equal(t, a.Graph.Nodes[i], b.Graph.Nodes[i], "node %d differs between runs", i)
	}
}
