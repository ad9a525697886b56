// Package graph assembles the typed node graph handed to the external
// serializer: nodes with a kind, an optional payload (expression string,
// numeric settings, name), a position hint, and an ordered fan-out edge
// list of 16-bit node indices.
package graph

import "fmt"

// NodeID is a node index. The index space is fixed at 16 bits; a graph
// needing more than 65536 nodes cannot be represented.
type NodeID uint16

// maxNodes is the size of the 16-bit index space.
const maxNodes = 1 << 16

// Kind identifies what a node does.
type Kind int

const (
	// KindSwitch is the user-facing driver toggle.
	KindSwitch Kind = iota + 1
	// KindMath evaluates an arithmetic expression in the step grammar.
	KindMath
	// KindGate is an OR join used as a fan-in point.
	KindGate
	// KindTone is a terminal effector emitting one pitch.
	KindTone
)

// String returns the serialized kind name.
func (k Kind) String() string {
	switch k {
	case KindSwitch:
		return "switch"
	case KindMath:
		return "math"
	case KindGate:
		return "gate"
	case KindTone:
		return "tone"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one graph node. Out lists the nodes this node feeds, in wiring
// order; edge direction is signal flow, not fan-in.
type Node struct {
	Kind     Kind
	Name     string
	Expr     string     // expression payload for math nodes
	Values   []float64  // numeric settings for effector nodes
	Position [3]float32 // placement hint for the serializer
	Out      []NodeID
}

// Graph is the finished node list plus the designated entry node.
type Graph struct {
	Nodes []Node
	Root  NodeID
}

// Builder constructs a graph append-only. Node allocation returns
// strictly increasing indices; wiring never deduplicates, so callers must
// not double-connect.
type Builder struct {
	nodes []Node
	root  NodeID
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Len returns the number of allocated nodes.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Add allocates the next node index for n. Allocation beyond the 16-bit
// index space fails with CAPACITY_EXCEEDED rather than wrapping.
func (b *Builder) Add(n Node) (NodeID, error) {
	if len(b.nodes) >= maxNodes {
		return 0, &BuildError{
			Code:    ErrCodeCapacityExceeded,
			Message: "node index space exhausted",
			Count:   len(b.nodes) + 1,
			Limit:   maxNodes,
		}
	}
	b.nodes = append(b.nodes, n)
	return NodeID(len(b.nodes) - 1), nil
}

// Node returns a pointer to the node at id for in-place mutation.
// Panics when id does not address an allocated node.
func (b *Builder) Node(id NodeID) *Node {
	if int(id) >= len(b.nodes) {
		panic(fmt.Sprintf("graph: node %d not allocated (have %d)", id, len(b.nodes)))
	}
	return &b.nodes[id]
}

// Connect appends an edge from one allocated node to another.
func (b *Builder) Connect(from, to NodeID) {
	b.Node(to) // bounds check the target too
	n := b.Node(from)
	n.Out = append(n.Out, to)
}

// SetRoot designates the graph's entry node.
func (b *Builder) SetRoot(id NodeID) {
	b.Node(id)
	b.root = id
}

// Finish returns the completed graph. The builder must not be used
// afterwards.
func (b *Builder) Finish() *Graph {
	return &Graph{Nodes: b.nodes, Root: b.root}
}
