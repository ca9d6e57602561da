// Package source provides graph inputs that can change over time.
//
// A [Source] delivers an initial [Snapshot] through Load and every later
// version through the Changes channel. Consumers re-run the layout once per
// received snapshot.
//
//   - [Static]: in-memory graph, replaced with Set
//   - [File]: JSON or YAML document watched with fsnotify
//   - [Mongo]: MongoDB document followed through a change stream
package source

import (
	"context"

	"github.com/matzehuels/graphview/pkg/graph"
)

// Snapshot is one version of the input graph.
type Snapshot[N, E any] struct {
	Nodes []graph.Node[N]
	Edges []graph.Edge[E]
}

// SnapshotOf converts a graph document to a snapshot.
func SnapshotOf(doc graph.Document) Snapshot[graph.Attrs, graph.Attrs] {
	return Snapshot[graph.Attrs, graph.Attrs]{Nodes: doc.Nodes, Edges: doc.Edges}
}

// Source is a changing graph input.
type Source[N, E any] interface {
	// Load returns the current graph.
	Load(ctx context.Context) (Snapshot[N, E], error)

	// Changes delivers a snapshot for every change after Load. The channel
	// is closed when the source stops.
	Changes() <-chan Snapshot[N, E]

	// Close stops the source and releases its resources.
	Close() error
}
