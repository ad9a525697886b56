// Package player assembles the music-player node graph: a fixed prologue
// of control nodes (driver switch, phase clock, feedback and join gates),
// then per channel group the encoded step-function evaluators, a bit
// decoder, and one tone effector per bit.
package player

import (
	"fmt"
	"math"
	"strings"

	"github.com/mxkrm/tonegraph/internal/graph"
	"github.com/mxkrm/tonegraph/internal/stepfunc"
)

// Placement hints for the serializer; everything else sits at the origin.
var (
	switchPosition = [3]float32{0, 0.015625, 0.25}
	tonePosition   = [3]float32{0, 0, -0.25}
)

// tempoScale is the fixed-point denominator for the tempo channel: the
// clock node reads tempo as a fraction of 2^24 microseconds per quarter.
const tempoScale = 24

// ChannelGroup is one packed group of keys: an encoded function list and
// the pitch owned by each bit, low bit first.
type ChannelGroup struct {
	Pitches   []uint8
	Functions []stepfunc.Function
}

// Settings carries the assembly parameters derived from the source file
// and the configuration.
type Settings struct {
	BitsPerChannel  int
	TicksPerQuarter uint16
	Length          uint64
	Repeat          bool
}

// PitchToFreq converts a MIDI pitch to its equal-temperament frequency.
func PitchToFreq(pitch uint8) float64 {
	return 440 * math.Pow(2, (float64(pitch)-69)/12)
}

// clockExpr renders the driver phase expression: advance the normalized
// phase by one 50Hz frame worth of ticks at the current tempo, toggling
// the feedback line so the node keeps re-evaluating.
func clockExpr(st Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "s=0.0001;tempo_us=max(C*%d,1);dt_sec=1/50;dt_ticks=dt_sec*%d*1000000/tempo_us;B=1-B;A*(Lval+dt_ticks/%d)",
		uint64(1)<<tempoScale, st.TicksPerQuarter, st.Length)
	if st.Repeat {
		b.WriteString("%1")
	}
	return b.String()
}

// decoderExpr renders the bit decoder: selector output k carries bit k-1
// of the aggregated code on input A, with the saturation term step(1,A)
// covering the all-bits value.
func decoderExpr(bits int) string {
	var b strings.Builder
	for p := 0; p < bits; p++ {
		fmt.Fprintf(&b, "ind(%d)=step(0.5,(A%%1/2^%d)*2^%d)+step(1,A);", bits-p, p, p)
	}
	b.WriteByte('0')
	return b.String()
}

// evalExpr wraps one encoded function for a channel evaluator node:
// denormalize the phase to ticks, evaluate, renormalize by the group's
// bit width so the decoder sees a fraction.
func evalExpr(f stepfunc.Function, length uint64, scaleBits int) string {
	return fmt.Sprintf("x=A*%d;n=%s;n/2^%d", length, f.Expr(), scaleBits)
}

// Build wires the complete player graph. Channel groups and tempo
// functions must already be encoded; Build is purely constructive and
// fails only on node capacity.
func Build(groups []ChannelGroup, tempo []stepfunc.Function, st Settings) (*graph.Graph, error) {
	b := graph.NewBuilder()

	clock, err := b.Add(graph.Node{Kind: graph.KindMath, Name: "clock", Expr: clockExpr(st)})
	if err != nil {
		return nil, err
	}
	drive, err := b.Add(graph.Node{Kind: graph.KindSwitch, Name: "drive", Position: switchPosition})
	if err != nil {
		return nil, err
	}
	feedback, err := b.Add(graph.Node{Kind: graph.KindGate, Name: "feedback"})
	if err != nil {
		return nil, err
	}
	tempoIn, err := b.Add(graph.Node{Kind: graph.KindGate, Name: "tempo-in"})
	if err != nil {
		return nil, err
	}
	out, err := b.Add(graph.Node{Kind: graph.KindGate, Name: "out"})
	if err != nil {
		return nil, err
	}

	b.Connect(clock, feedback)
	b.Connect(clock, out)
	b.Connect(drive, clock)
	b.Connect(feedback, clock)
	b.Connect(tempoIn, clock)
	b.SetRoot(drive)

	for _, group := range groups {
		decoder, err := b.Add(graph.Node{Kind: graph.KindMath, Name: "decoder", Expr: decoderExpr(st.BitsPerChannel)})
		if err != nil {
			return nil, err
		}
		join, err := b.Add(graph.Node{Kind: graph.KindGate, Name: "join"})
		if err != nil {
			return nil, err
		}
		b.Connect(join, decoder)

		for _, pitch := range group.Pitches {
			tone, err := b.Add(graph.Node{
				Kind:     graph.KindTone,
				Position: tonePosition,
				Values:   []float64{PitchToFreq(pitch), 100},
			})
			if err != nil {
				return nil, err
			}
			b.Connect(decoder, tone)
		}

		for _, f := range group.Functions {
			eval, err := b.Add(graph.Node{
				Kind: graph.KindMath,
				Expr: evalExpr(f, st.Length, st.BitsPerChannel),
			})
			if err != nil {
				return nil, err
			}
			b.Connect(eval, join)
			b.Connect(out, eval)
		}
	}

	for _, f := range tempo {
		eval, err := b.Add(graph.Node{
			Kind: graph.KindMath,
			Name: "tempo",
			Expr: evalExpr(f, st.Length, tempoScale),
		})
		if err != nil {
			return nil, err
		}
		b.Connect(eval, tempoIn)
		b.Connect(out, eval)
	}

	return b.Finish(), nil
}

// NodeEstimate predicts the node count Build will allocate, so callers
// can reject oversized inputs before any construction starts.
func NodeEstimate(groups []ChannelGroup, tempoFuncs int) int {
	total := 5 + tempoFuncs
	for _, g := range groups {
		total += 2 + len(g.Pitches) + len(g.Functions)
	}
	return total
}
