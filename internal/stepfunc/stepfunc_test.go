package stepfunc

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalAll sums every emitted function at x. Functions are self-resetting,
// so the order of summation must not matter.
func evalAll(funcs []Function, x uint64) int64 {
	var sum int64
	for _, f := range funcs {
		sum += f.Eval(x)
	}
	return sum
}

func TestEncodeEmptyInput(t *testing.T) {
	funcs := Encoder{MaxTerms: 8}.Encode(nil)
	assert.Empty(t, funcs, "empty input produces zero functions, not a degenerate one")
}

func TestEncodeAllBaselineInput(t *testing.T) {
	funcs := Encoder{MaxTerms: 8}.Encode([]Sample{{Time: 0, State: 0}, {Time: 9, State: 0}})
	assert.Empty(t, funcs)
}

func TestEncodeSingleFunction(t *testing.T) {
	funcs := Encoder{MaxTerms: 16}.Encode([]Sample{
		{Time: 0, State: 5},
		{Time: 10, State: 0},
	})

	require.Len(t, funcs, 1)
	f := funcs[0]
	assert.Equal(t, 2, f.TermCount())
	assert.Equal(t, int64(5), f.Eval(0))
	assert.Equal(t, int64(5), f.Eval(9))
	assert.Equal(t, int64(0), f.Eval(10))
	assert.Equal(t, int64(0), f.Close.Delta, "nothing carried past the last sample")
}

func TestEncodeGroupsRepeatedDeltas(t *testing.T) {
	// +1/-1 toggles collapse into two buckets regardless of length.
	samples := []Sample{
		{Time: 0, State: 1}, {Time: 2, State: 0},
		{Time: 4, State: 1}, {Time: 6, State: 0},
		{Time: 8, State: 1}, {Time: 10, State: 0},
	}
	funcs := Encoder{MaxTerms: 16}.Encode(samples)

	require.Len(t, funcs, 1)
	require.Len(t, funcs[0].Terms, 2)
	assert.Equal(t, int64(1), funcs[0].Terms[0].Delta)
	assert.Equal(t, []uint64{0, 4, 8}, funcs[0].Terms[0].Times)
	assert.Equal(t, int64(-1), funcs[0].Terms[1].Delta)
	assert.Equal(t, []uint64{2, 6, 10}, funcs[0].Terms[1].Times)
}

func TestEncodeSplitScenario(t *testing.T) {
	// max_terms_per_function=2, sequence [(0,1),(1,2),(2,3)]: must split
	// into at least two functions, each with a closing corrective term.
	funcs := Encoder{MaxTerms: 2}.Encode([]Sample{
		{Time: 0, State: 1},
		{Time: 1, State: 2},
		{Time: 2, State: 3},
	})

	require.GreaterOrEqual(t, len(funcs), 2)
	for i, f := range funcs {
		assert.NotZero(t, f.Close.Delta, "function %d missing closing corrective term", i)
		assert.LessOrEqual(t, f.TermCount(), 2)
	}

	// The concatenation reproduces the sequence exactly at every sample.
	assert.Equal(t, int64(1), evalAll(funcs, 0))
	assert.Equal(t, int64(2), evalAll(funcs, 1))
	assert.Equal(t, int64(3), evalAll(funcs, 2))
}

func TestEncodeCapCloseOnReturnToBaseline(t *testing.T) {
	// The sample that overflows the cap can also be the one returning the
	// state to 0; after the close it equals the reset baseline and must not
	// open the next function with a zero-delta bucket.
	funcs := Encoder{MaxTerms: 2}.Encode([]Sample{
		{Time: 0, State: 1},
		{Time: 1, State: 2},
		{Time: 2, State: 0},
		{Time: 3, State: 4},
	})

	require.Len(t, funcs, 2)
	for i, f := range funcs {
		for _, term := range f.Terms {
			assert.NotZero(t, term.Delta, "function %d has a zero-delta bucket", i)
		}
	}
	assert.Equal(t, "1*(step(0,x)+step(1,x))-2*step(2,x)", funcs[0].Expr())
	assert.Equal(t, "4*(step(3,x))-4*step(4,x)", funcs[1].Expr())
	assert.Equal(t, int64(0), evalAll(funcs, 2))
	assert.Equal(t, int64(4), evalAll(funcs, 3))
}

func TestEncodeTermBound(t *testing.T) {
	samples := make([]Sample, 0, 100)
	state := int64(0)
	for i := 0; i < 100; i++ {
		state += int64(i%5) + 1
		samples = append(samples, Sample{Time: uint64(i * 3), State: state})
	}

	for _, maxTerms := range []int{1, 2, 7, 64} {
		funcs := Encoder{MaxTerms: maxTerms}.Encode(samples)
		for _, f := range funcs {
			assert.LessOrEqual(t, f.TermCount(), maxTerms)
		}
		for _, s := range samples {
			assert.Equal(t, s.State, evalAll(funcs, s.Time),
				"maxTerms=%d diverges at t=%d", maxTerms, s.Time)
		}
	}
}

func TestEncodeExactnessBetweenSamples(t *testing.T) {
	samples := []Sample{
		{Time: 0, State: 3},
		{Time: 7, State: 1},
		{Time: 7, State: 1}, // exact repeat contributes nothing
		{Time: 20, State: 9},
	}
	funcs := Encoder{MaxTerms: 2}.Encode(samples)

	assert.Equal(t, int64(3), evalAll(funcs, 5), "held between samples")
	assert.Equal(t, int64(1), evalAll(funcs, 19))
	assert.Equal(t, int64(9), evalAll(funcs, 20))
}

func TestEncodeBaselineIsExplicitZero(t *testing.T) {
	// The first delta is computed against 0, not against the first sample.
	funcs := Encoder{MaxTerms: 8}.Encode([]Sample{{Time: 4, State: 10}})

	require.Len(t, funcs, 1)
	require.Len(t, funcs[0].Terms, 1)
	assert.Equal(t, int64(10), funcs[0].Terms[0].Delta)
	assert.Equal(t, int64(0), evalAll(funcs, 3))
}

func TestExprGrammar(t *testing.T) {
	funcs := Encoder{MaxTerms: 2}.Encode([]Sample{
		{Time: 0, State: 1},
		{Time: 1, State: 2},
		{Time: 2, State: 3},
	})

	require.Len(t, funcs, 2)
	assert.Equal(t, "1*(step(0,x)+step(1,x))-2*step(2,x)", funcs[0].Expr())
	assert.Equal(t, "3*(step(2,x))-3*step(3,x)", funcs[1].Expr())
}

func TestExprZeroFunction(t *testing.T) {
	var f Function
	assert.Equal(t, "0", f.Expr())
}

func TestExprGolden(t *testing.T) {
	samples := []Sample{
		{Time: 0, State: 1}, {Time: 12, State: 3}, {Time: 24, State: 1},
		{Time: 36, State: 3}, {Time: 48, State: 0}, {Time: 60, State: 7},
		{Time: 72, State: 5}, {Time: 84, State: 0},
	}
	funcs := Encoder{MaxTerms: 4}.Encode(samples)

	var b strings.Builder
	for _, f := range funcs {
		b.WriteString(f.Expr())
		b.WriteByte('\n')
	}

	g := goldie.New(t)
	g.Assert(t, "encoder_exprs", []byte(b.String()))
}
