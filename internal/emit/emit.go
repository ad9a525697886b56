// Package emit serializes a finished node graph to its persisted JSON
// document form. The expression payloads pass through as opaque strings;
// nothing here reparses the step grammar.
package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/mxkrm/tonegraph/internal/graph"
)

// formatVersion identifies the document layout for downstream readers.
const formatVersion = 1

// Document is the persisted form of a graph, identified by a UUIDv7.
type Document struct {
	ID        string     `json:"id"`
	Generator string     `json:"generator"`
	Version   int        `json:"version"`
	Root      uint16     `json:"root"`
	Nodes     []NodeJSON `json:"nodes"`
}

// NodeJSON is the serialized form of one node.
type NodeJSON struct {
	Kind     string     `json:"kind"`
	Name     string     `json:"name,omitempty"`
	Expr     string     `json:"expr,omitempty"`
	Values   []float64  `json:"values,omitempty"`
	Position [3]float32 `json:"position"`
	Out      []uint16   `json:"out,omitempty"`
}

// NewDocument wraps a graph in a Document with a fresh id.
func NewDocument(g *graph.Graph) *Document {
	doc := &Document{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Generator: "tonegraph",
		Version:   formatVersion,
		Root:      uint16(g.Root),
		Nodes:     make([]NodeJSON, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		out := make([]uint16, len(n.Out))
		for j, id := range n.Out {
			out[j] = uint16(id)
		}
		doc.Nodes[i] = NodeJSON{
			Kind:     n.Kind.String(),
			Name:     n.Name,
			Expr:     n.Expr,
			Values:   n.Values,
			Position: n.Position,
			Out:      out,
		}
	}
	return doc
}

// Marshal renders the document as indented JSON with a trailing newline.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return append(data, '\n'), nil
}

// Write serializes g to w.
func Write(w io.Writer, g *graph.Graph) error {
	data, err := NewDocument(g).Marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
