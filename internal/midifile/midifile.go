// Package midifile decodes Standard MIDI Files into the timestamped
// discrete events the core pipeline consumes. It is the ingestion
// collaborator: everything downstream sees only (time, key, on) tuples,
// tempo changes, and the tick resolution.
package midifile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// NoteEvent is one key state change at an absolute tick time.
type NoteEvent struct {
	Time uint64
	Key  uint8
	On   bool
}

// TempoChange records microseconds per quarter note from an absolute tick
// onward.
type TempoChange struct {
	Time             uint64
	MicrosPerQuarter uint64
}

// defaultTempo is 120 BPM in microseconds per quarter note, the MIDI
// default before the first tempo meta event.
const defaultTempo = 500000

// Track is the decoded, merged content of every track in the file.
// Notes are sorted by time; events from different tracks interleave.
type Track struct {
	Notes           []NoteEvent
	Tempo           []TempoChange
	TicksPerQuarter uint16
	Length          uint64
	UsedKeys        [128]bool
}

// Options filter what the decoder admits.
type Options struct {
	// MinPitch and MaxPitch bound the admitted key range, inclusive.
	MinPitch uint8
	MaxPitch uint8

	// MinVelocity is the threshold above which a note-on counts as "on".
	// A note-on at or below it is treated as a release.
	MinVelocity uint8
}

// Read decodes an SMF stream. Only the metrical (ticks per quarter note)
// time format can be normalized to the single integer tick scale the
// pipeline requires; SMPTE timecode files fail with a TimingError and no
// partial output.
func Read(r io.Reader, opts Options) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading SMF: %w", err)
	}

	// The timing check must happen on the raw header: the SMF reader
	// assumes metrical time when it absolutizes track deltas and panics on
	// timecode files before TimeFormat is inspectable. A set high bit in
	// the header's division word marks SMPTE timecode.
	if tc, ok := headerTimeCode(data); ok {
		return nil, NewTimingError(tc.String())
	}

	song, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading SMF: %w", err)
	}

	ticks, ok := song.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, NewTimingError(song.TimeFormat.String())
	}

	track := &Track{
		TicksPerQuarter: ticks.Resolution(),
		Tempo:           []TempoChange{{Time: 0, MicrosPerQuarter: defaultTempo}},
	}

	for _, events := range song.Tracks {
		var abs uint64
		for _, ev := range events {
			abs += uint64(ev.Delta)

			var channel, key, velocity uint8
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				// A note-on below the velocity gate is a release, which
				// also covers the running-status vel=0 convention.
				track.addNote(abs, key, velocity > opts.MinVelocity, opts)
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				track.addNote(abs, key, false, opts)
			default:
				var bpm float64
				if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
					track.Tempo = append(track.Tempo, TempoChange{
						Time:             abs,
						MicrosPerQuarter: uint64(60000000 / bpm),
					})
				}
			}
		}
		if abs > track.Length {
			track.Length = abs
		}
	}

	// Tracks were walked one after another; restore global time order.
	// Stable sorts keep same-tick events in track order for determinism.
	sort.SliceStable(track.Notes, func(i, j int) bool {
		return track.Notes[i].Time < track.Notes[j].Time
	})
	sort.SliceStable(track.Tempo, func(i, j int) bool {
		return track.Tempo[i].Time < track.Tempo[j].Time
	})

	return track, nil
}

// headerTimeCode decodes the division word at bytes 12-13 of the MThd
// chunk. The high byte holds the negated frame rate when the file uses
// SMPTE timecode; metrical files keep it clear.
func headerTimeCode(data []byte) (smf.TimeCode, bool) {
	if len(data) < 14 || !bytes.Equal(data[:4], []byte("MThd")) {
		return smf.TimeCode{}, false
	}
	if data[12]&0x80 == 0 {
		return smf.TimeCode{}, false
	}
	return smf.TimeCode{
		FramesPerSecond: uint8(-int8(data[12])),
		SubFrames:       data[13],
	}, true
}

func (t *Track) addNote(abs uint64, key uint8, on bool, opts Options) {
	if key < opts.MinPitch || key > opts.MaxPitch {
		return
	}
	t.Notes = append(t.Notes, NoteEvent{Time: abs, Key: key, On: on})
	t.UsedKeys[key] = true
}

// ReadFile decodes the SMF file at path.
func ReadFile(path string, opts Options) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}
