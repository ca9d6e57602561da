// Package svg is the SVG rendering surface of the layout pipeline.
//
// A [Surface] turns models into SVG markup using host-supplied templates:
// a [NodeTemplate] returns a [Fragment] whose bounds are the node's
// measured size, an [EdgeTemplate] draws an edge from its path, and an
// optional [DefsTemplate] contributes shared definitions such as arrow
// markers. [LabelNode], [ArrowEdge] and [ArrowDefs] are the defaults used
// by the CLI for documents with free-form attributes.
//
// Drawing is double-buffered: [Surface.Draw] prepares a frame and
// [Surface.Flush] makes it current, after which [Surface.BBox] reports
// sizes from it. Documents are written with the view-box stretched over the
// requested size (preserveAspectRatio="none") so the viewport projection
// is a plain scale and translate.
//
// PNG and PDF export shell out to rsvg-convert (librsvg).
package svg
