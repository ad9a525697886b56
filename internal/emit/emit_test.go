package emit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxkrm/tonegraph/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	sw, err := b.Add(graph.Node{Kind: graph.KindSwitch, Name: "drive"})
	require.NoError(t, err)
	m, err := b.Add(graph.Node{Kind: graph.KindMath, Expr: "step(0,x)"})
	require.NoError(t, err)
	tone, err := b.Add(graph.Node{Kind: graph.KindTone, Values: []float64{440, 100}})
	require.NoError(t, err)
	b.Connect(sw, m)
	b.Connect(m, tone)
	b.SetRoot(sw)
	return b.Finish()
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(testGraph(t))

	_, err := uuid.Parse(doc.ID)
	assert.NoError(t, err, "document id is a valid UUID")
	assert.Equal(t, "tonegraph", doc.Generator)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, uint16(0), doc.Root)

	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "switch", doc.Nodes[0].Kind)
	assert.Equal(t, []uint16{1}, doc.Nodes[0].Out)
	assert.Equal(t, "step(0,x)", doc.Nodes[1].Expr)
	assert.Equal(t, []float64{440, 100}, doc.Nodes[2].Values)
}

func TestDocumentIDsAreUnique(t *testing.T) {
	g := testGraph(t)
	assert.NotEqual(t, NewDocument(g).ID, NewDocument(g).ID)
}

func TestMarshalGolden(t *testing.T) {
	doc := NewDocument(testGraph(t))
	doc.ID = "00000000-0000-0000-0000-000000000000" // pinned for comparison

	data, err := doc.Marshal()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "document", data)
}
