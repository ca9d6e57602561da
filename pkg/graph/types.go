package graph

import (
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

// =============================================================================
// Input Model - Supplied by the Host
// =============================================================================

// Node is a host-supplied graph node. Identity is the ID; Data is opaque to
// graphview and handed through to templates unchanged.
type Node[N any] struct {
	ID   string `json:"id" yaml:"id" bson:"id"`
	Data N      `json:"data,omitempty" yaml:"data,omitempty" bson:"data,omitempty"`
}

// Edge is a host-supplied directed edge. Source and Target reference node
// IDs. Multiple edges between the same pair are allowed and told apart by ID.
type Edge[E any] struct {
	ID     string `json:"id" yaml:"id" bson:"id"`
	Source string `json:"source" yaml:"source" bson:"source"`
	Target string `json:"target" yaml:"target" bson:"target"`
	Data   E      `json:"data,omitempty" yaml:"data,omitempty" bson:"data,omitempty"`
}

// =============================================================================
// Transformed Model - Produced by the Layout Pipeline
// =============================================================================

// TransformedNode is a node after layout. X and Y are the center assigned
// by the layout engine; Transform places the node's top-left corner so a
// template can draw from its own origin.
type TransformedNode[N any] struct {
	ID        string  `json:"id"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Transform string  `json:"transform"`
	Visible   bool    `json:"visible"`
	Data      N       `json:"data,omitempty"`
}

// Bounds returns the rectangle occupied by the node in local space.
func (n TransformedNode[N]) Bounds() geom.Rect {
	return geom.RectFromCenter(geom.Pt(n.X, n.Y), n.Width, n.Height)
}

// TransformedEdge is an edge after layout with its route smoothed into a
// renderable path description.
type TransformedEdge[E any] struct {
	ID     string       `json:"id"`
	Source string       `json:"source"`
	Target string       `json:"target"`
	Path   string       `json:"path"`
	Points []geom.Point `json:"points,omitempty"`
	Data   E            `json:"data,omitempty"`
}

// Model is the renderable result of one pipeline run. It is recomputed from
// scratch on every run, never patched.
type Model[N, E any] struct {
	Nodes []TransformedNode[N] `json:"nodes"`
	Edges []TransformedEdge[E] `json:"edges"`

	// Width and Height span the laid out graph including margins.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds returns the bounding box of all nodes and false when the model has
// no nodes.
func (m Model[N, E]) Bounds() (geom.Rect, bool) {
	rects := make([]geom.Rect, len(m.Nodes))
	for i, n := range m.Nodes {
		rects[i] = n.Bounds()
	}
	return geom.Bounds(rects)
}

// Node returns the transformed node with the given ID.
func (m Model[N, E]) Node(id string) (TransformedNode[N], bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return TransformedNode[N]{}, false
}

// Edge returns the transformed edge with the given ID.
func (m Model[N, E]) Edge(id string) (TransformedEdge[E], bool) {
	for _, e := range m.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return TransformedEdge[E]{}, false
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural contract of an input graph: IDs are valid
// and unique, and every edge endpoint references an existing node.
func Validate[N, E any](nodes []Node[N], edges []Edge[E]) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := errors.ValidateID("node", n.ID); err != nil {
			return err
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}

	edgeIDs := make(map[string]bool, len(edges))
	for _, e := range edges {
		if err := errors.ValidateID("edge", e.ID); err != nil {
			return err
		}
		if edgeIDs[e.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true
		if !seen[e.Source] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown source %q", e.ID, e.Source)
		}
		if !seen[e.Target] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q references unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}
