// Package graph defines the graph data model shared by every graphview
// component.
//
// # Input Model
//
// Hosts supply [Node] and [Edge] values. Both are generic over the data they
// carry, which graphview never inspects; it is passed through to templates.
//
// # Transformed Model
//
// The layout pipeline produces a [Model] of [TransformedNode] and
// [TransformedEdge] values. A model is recomputed from scratch on every run.
//
// # Documents
//
// [Document] is the file format used by the CLI and the bundled data sources.
// It fixes the data type to [Attrs] (a free-form map) and can be read from
// JSON or YAML:
//
//	doc, err := graph.ReadDocumentFile("graph.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(doc.Nodes), "nodes")
package graph
