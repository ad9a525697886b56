// Package stepfunc compiles a channel's change history into a bounded set
// of closed-form arithmetic expressions over step functions.
//
// Each input sample (time, state) contributes the delta against the
// previously held state. Occurrences of the same delta are grouped into
// one term, delta*(step(t1,x)+step(t2,x)+...), which is the compaction
// win for periodic material. When a function's term cap is reached it
// is closed with a corrective term that cancels the carried state at the
// boundary, so every emitted function is independently correct and the
// set can be summed in any order.
package stepfunc

import (
	"fmt"
	"strings"
)

// Sample is one explicit (time, state) point of a channel's history.
type Sample struct {
	Time  uint64
	State int64
}

// Term represents delta added to the accumulator at each time in Times.
type Term struct {
	Delta int64
	Times []uint64
}

// Function is one bounded, self-resetting chunk of a channel's history.
// Close cancels the state carried at the chunk boundary; its Delta is
// zero when there is nothing to cancel.
type Function struct {
	Terms []Term
	Close Term
}

// TermCount returns the number of step occurrences across all grouped
// terms, excluding the closing term.
func (f Function) TermCount() int {
	n := 0
	for _, t := range f.Terms {
		n += len(t.Times)
	}
	return n
}

// Eval computes the function at x, with step(t,x) = 1 when x >= t.
func (f Function) Eval(x uint64) int64 {
	var sum int64
	for _, term := range f.Terms {
		for _, t := range term.Times {
			if x >= t {
				sum += term.Delta
			}
		}
	}
	for _, t := range f.Close.Times {
		if x >= t {
			sum += f.Close.Delta
		}
	}
	return sum
}

// Expr renders the function in the step grammar consumed downstream:
// delta*(step(t1,x)+step(t2,x))+...-carry*step(boundary,x).
func (f Function) Expr() string {
	var b strings.Builder
	for i, term := range f.Terms {
		if i > 0 {
			b.WriteByte('+')
		}
		fmt.Fprintf(&b, "%d*(", term.Delta)
		for j, t := range term.Times {
			if j > 0 {
				b.WriteByte('+')
			}
			fmt.Fprintf(&b, "step(%d,x)", t)
		}
		b.WriteByte(')')
	}
	if f.Close.Delta != 0 {
		for _, t := range f.Close.Times {
			fmt.Fprintf(&b, "%+d*step(%d,x)", f.Close.Delta, t)
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

// Encoder turns per-channel sample sequences into grouped, size-bounded
// step functions.
type Encoder struct {
	// MaxTerms caps the grouped term count of each emitted function.
	// Values below 1 behave as 1.
	MaxTerms int
}

// chunk accumulates one function in progress. Buckets are kept in
// first-appearance order of their delta so output is deterministic.
type chunk struct {
	terms []Term
	index map[int64]int // delta -> position in terms
	count int
}

func newChunk() *chunk {
	return &chunk{index: make(map[int64]int)}
}

func (c *chunk) add(delta int64, time uint64) {
	i, ok := c.index[delta]
	if !ok {
		i = len(c.terms)
		c.index[delta] = i
		c.terms = append(c.terms, Term{Delta: delta})
	}
	c.terms[i].Times = append(c.terms[i].Times, time)
	c.count++
}

// close finishes the chunk, cancelling carry at boundary.
func (c *chunk) close(carry int64, boundary uint64) Function {
	return Function{
		Terms: c.terms,
		Close: Term{Delta: -carry, Times: []uint64{boundary}},
	}
}

// Encode walks the samples in order, starting from an explicit baseline
// state of 0, and emits the bounded function list. The cap is checked
// before admitting each sample: a sample that would overflow the current
// function instead closes it (corrective term at that sample's time) and
// starts the next one from the baseline. Samples whose state equals the
// running state contribute nothing. Empty input yields zero functions.
func (e Encoder) Encode(samples []Sample) []Function {
	maxTerms := e.MaxTerms
	if maxTerms < 1 {
		maxTerms = 1
	}

	var funcs []Function
	cur := newChunk()
	var lastState int64

	for _, s := range samples {
		if s.State == lastState {
			continue
		}
		if cur.count >= maxTerms {
			funcs = append(funcs, cur.close(lastState, s.Time))
			cur = newChunk()
			lastState = 0
			// The sample's delta is recomputed against the reset baseline;
			// a sample returning to 0 contributes nothing to the next chunk.
			if s.State == lastState {
				continue
			}
		}
		cur.add(s.State-lastState, s.Time)
		lastState = s.State
	}

	if cur.count > 0 {
		boundary := samples[len(samples)-1].Time + 1
		funcs = append(funcs, cur.close(lastState, boundary))
	}
	return funcs
}
