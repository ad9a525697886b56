// Package pipeline runs the batch path from decoded MIDI events to the
// finished player graph: key mapping, per-channel bit assignment, the
// timeline store, redundancy compaction, step-function encoding, and
// graph assembly. The whole pipeline is single-threaded and either fully
// succeeds or produces nothing.
package pipeline

import (
	"fmt"

	"github.com/mxkrm/tonegraph/internal/config"
	"github.com/mxkrm/tonegraph/internal/graph"
	"github.com/mxkrm/tonegraph/internal/midifile"
	"github.com/mxkrm/tonegraph/internal/player"
	"github.com/mxkrm/tonegraph/internal/stepfunc"
	"github.com/mxkrm/tonegraph/internal/timeline"
)

// KeyMap assigns used MIDI keys to dense bit indices, in ascending key
// order. Bit i of channel c belongs to IndexToKey[c*bits+i].
type KeyMap struct {
	KeyToIndex map[uint8]int
	IndexToKey []uint8
}

// MapKeys builds the dense key mapping from the decoder's used-key set.
func MapKeys(used [128]bool) KeyMap {
	m := KeyMap{KeyToIndex: make(map[uint8]int)}
	for key, isUsed := range used {
		if !isUsed {
			continue
		}
		m.KeyToIndex[uint8(key)] = len(m.IndexToKey)
		m.IndexToKey = append(m.IndexToKey, uint8(key))
	}
	return m
}

// channelCount returns how many packed channels the mapping needs.
func (m KeyMap) channelCount(bits int) int {
	if len(m.IndexToKey) == 0 {
		return 0
	}
	return (len(m.IndexToKey)-1)/bits + 1
}

// Fold replays the sorted note events through per-key gate counters and
// records every channel's packed state word at every event time. The
// result is deliberately dense in changed-and-unchanged entries; Optimize
// on the returned store prunes everything redundant under floor
// semantics. A key's counter saturates rather than wrapping, so
// overlapping note-ons from multiple tracks release only when the last
// off arrives.
func Fold(notes []midifile.NoteEvent, m KeyMap, bits int) *timeline.Store[uint16] {
	store := timeline.NewStore[uint16](m.channelCount(bits))
	counters := make([]uint8, len(m.IndexToKey))

	for i := 0; i < len(notes); {
		// Consume every event sharing this tick before sampling.
		current := notes[i].Time
		for ; i < len(notes) && notes[i].Time == current; i++ {
			idx, ok := m.KeyToIndex[notes[i].Key]
			if !ok {
				continue
			}
			if notes[i].On {
				if counters[idx] < 255 {
					counters[idx]++
				}
			} else if counters[idx] > 0 {
				counters[idx]--
			}
		}

		for c := 0; c < store.Width(); c++ {
			var word uint16
			for bit := 0; bit < bits; bit++ {
				idx := c*bits + bit
				if idx < len(counters) && counters[idx] >= 1 {
					word |= 1 << bit
				}
			}
			store.Set(current, c, word)
		}
	}
	return store
}

// Result is the fully assembled output alongside summary counts.
type Result struct {
	Graph     *graph.Graph
	Settings  player.Settings
	Channels  int
	Functions int
	UsedKeys  int
}

// Run executes the complete pipeline over a decoded track.
func Run(track *midifile.Track, cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keys := MapKeys(track.UsedKeys)
	channels := keys.channelCount(cfg.BitsPerChannel)
	if channels > cfg.ChannelCapacity {
		return nil, &graph.BuildError{
			Code:    graph.ErrCodeCapacityExceeded,
			Message: "channel count exceeds configured capacity",
			Count:   channels,
			Limit:   cfg.ChannelCapacity,
		}
	}

	store := Fold(track.Notes, keys, cfg.BitsPerChannel)
	store.Optimize()

	encoder := stepfunc.Encoder{MaxTerms: cfg.MaxTermsPerFunction}

	groups := make([]player.ChannelGroup, channels)
	totalFuncs := 0
	for c := 0; c < channels; c++ {
		var samples []stepfunc.Sample
		for time, word := range store.Channel(c).Points() {
			samples = append(samples, stepfunc.Sample{Time: time, State: int64(word)})
		}
		funcs := encoder.Encode(samples)
		totalFuncs += len(funcs)

		lo := c * cfg.BitsPerChannel
		hi := min(lo+cfg.BitsPerChannel, len(keys.IndexToKey))
		groups[c] = player.ChannelGroup{
			Pitches:   keys.IndexToKey[lo:hi],
			Functions: funcs,
		}
	}

	tempoFuncs := encoder.Encode(tempoSamples(track.Tempo))
	totalFuncs += len(tempoFuncs)

	length := track.Length
	if length == 0 {
		length = 1 // the clock divides by the total length
	}
	settings := player.Settings{
		BitsPerChannel:  cfg.BitsPerChannel,
		TicksPerQuarter: track.TicksPerQuarter,
		Length:          length,
		Repeat:          cfg.Repeat,
	}

	// The index space is fixed at 16 bits; refuse before emitting anything.
	if estimate := player.NodeEstimate(groups, len(tempoFuncs)); estimate > 1<<16 {
		return nil, graph.NewNarrowingError("node", estimate)
	}

	g, err := player.Build(groups, tempoFuncs, settings)
	if err != nil {
		return nil, fmt.Errorf("assembling player graph: %w", err)
	}

	return &Result{
		Graph:     g,
		Settings:  settings,
		Channels:  channels,
		Functions: totalFuncs,
		UsedKeys:  len(keys.IndexToKey),
	}, nil
}

// tempoSamples converts tempo changes to encoder samples.
func tempoSamples(changes []midifile.TempoChange) []stepfunc.Sample {
	samples := make([]stepfunc.Sample, 0, len(changes))
	for _, tc := range changes {
		samples = append(samples, stepfunc.Sample{Time: tc.Time, State: int64(tc.MicrosPerQuarter)})
	}
	return samples
}
