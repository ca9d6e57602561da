// Package pkg provides the libraries behind graphview: measure graph
// nodes, lay them out with an external engine, render the result to SVG,
// and keep a pannable, zoomable viewport over it.
//
// # Overview
//
// The pkg directory is organized bottom-up:
//
//  1. [geom] - Points, rectangles and 2D affine matrices
//  2. [graph] - Input nodes and edges, the transformed model, documents
//  3. [curve] - Edge smoothing (basis, linear, step, ...)
//  4. [layout] - Engine interface, Graphviz engine, cached engine
//  5. [surface/svg] - SVG templates, measurement and PNG/PDF export
//  6. [pipeline] - measure → layout → transform → draw, one run at a time
//  7. [viewport] - View-box store, pointer mapping, pan/zoom controller
//  8. [view] - The host-facing component tying pipeline and viewport together
//  9. [source] - Graph inputs (static, file, MongoDB) and fan-out
//
// Supporting packages: [cache] (file, Redis, null), [errors] (coded
// errors), [observability] (hooks and OpenTelemetry spans) and [buildinfo].
//
// # Architecture
//
//	host nodes/edges
//	       ↓
//	  [pipeline] measure on the [surface/svg] surface
//	       ↓
//	  [layout] engine (Graphviz, optionally cached)
//	       ↓
//	  transform + [curve] → graph.Model
//	       ↓
//	  draw → [view] → [viewport] view-box → SVG
//
// # Quick Start
//
//	engine := layout.NewGraphviz(nil)
//	v, _ := view.New(engine, svg.DefaultTemplates(), view.DefaultOptions())
//	defer v.Close()
//
//	_ = v.Mount(ctx, doc.Nodes, doc.Edges)
//	v.Wheel(ctx, geom.Pt(400, 300), -1) // zoom in around the pointer
//	_ = v.WriteSVG(os.Stdout)
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
//
// Graphviz runs in-process through go-graphviz. PNG and PDF export shell
// out to rsvg-convert, which must be on PATH.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/geom
// [graph]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/graph
// [curve]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/curve
// [layout]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/layout
// [surface/svg]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/surface/svg
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/pipeline
// [viewport]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/viewport
// [view]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/view
// [source]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/graphview/pkg/buildinfo
package pkg
