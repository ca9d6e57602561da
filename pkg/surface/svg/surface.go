package svg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/viewport"
)

// Fragment is the markup of one node, drawn from the node's own origin
// (top-left corner), together with the area it covers.
type Fragment struct {
	Markup string
	Bounds geom.Rect
}

// NodeTemplate renders a node.
type NodeTemplate[N any] func(n graph.TransformedNode[N]) Fragment

// EdgeTemplate renders an edge. The markup is placed in local coordinates.
type EdgeTemplate[E any] func(e graph.TransformedEdge[E]) string

// DefsTemplate returns the content of the document's <defs> element.
type DefsTemplate func() string

// Templates bundles the visual templates of a surface.
type Templates[N, E any] struct {
	Node NodeTemplate[N]
	Edge EdgeTemplate[E]
	Defs DefsTemplate
}

type frame struct {
	nodes  []string
	edges  []string
	bounds map[string]geom.Rect
	width  float64
	height float64
}

// Surface renders models to SVG.
type Surface[N, E any] struct {
	tpl Templates[N, E]

	mu      sync.RWMutex
	pending *frame
	current frame
}

// NewSurface creates a surface. Node and edge templates are required.
func NewSurface[N, E any](tpl Templates[N, E]) (*Surface[N, E], error) {
	if tpl.Node == nil {
		return nil, errors.New(errors.ErrCodeMissingTemplate, "node template is required")
	}
	if tpl.Edge == nil {
		return nil, errors.New(errors.ErrCodeMissingTemplate, "edge template is required")
	}
	return &Surface[N, E]{tpl: tpl}, nil
}

// Draw renders m into the pending frame.
func (s *Surface[N, E]) Draw(m graph.Model[N, E]) error {
	f := &frame{
		nodes:  make([]string, 0, len(m.Nodes)),
		edges:  make([]string, 0, len(m.Edges)),
		bounds: make(map[string]geom.Rect, len(m.Nodes)),
		width:  m.Width,
		height: m.Height,
	}

	for _, e := range m.Edges {
		f.edges = append(f.edges, fmt.Sprintf(`<g class="edge" id="%s">%s</g>`,
			EscapeXML("edge-"+e.ID), s.tpl.Edge(e)))
	}
	for _, n := range m.Nodes {
		frag := s.tpl.Node(n)
		f.bounds[n.ID] = frag.Bounds

		var b bytes.Buffer
		fmt.Fprintf(&b, `<g class="node" id="%s" transform="%s"`, EscapeXML("node-"+n.ID), n.Transform)
		if !n.Visible {
			b.WriteString(` visibility="hidden"`)
		}
		b.WriteString(">")
		b.WriteString(frag.Markup)
		b.WriteString("</g>")
		f.nodes = append(f.nodes, b.String())
	}

	s.mu.Lock()
	s.pending = f
	s.mu.Unlock()
	return nil
}

// Flush makes the last drawn frame current.
func (s *Surface[N, E]) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.current = *s.pending
		s.pending = nil
	}
	return nil
}

// BBox returns the bounds reported by the node template for id.
func (s *Surface[N, E]) BBox(id string) (geom.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.current.bounds[id]
	return r, ok
}

// Size returns the graph size of the current frame.
func (s *Surface[N, E]) Size() (width, height float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.width, s.current.height
}

// WriteSVG writes the current frame as a standalone SVG document of the
// given pixel size showing vb.
func (s *Surface[N, E]) WriteSVG(w io.Writer, vb viewport.ViewBox, width, height float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s" preserveAspectRatio="none">`+"\n",
		num(width), num(height), vb)
	if s.tpl.Defs != nil {
		buf.WriteString("<defs>")
		buf.WriteString(s.tpl.Defs())
		buf.WriteString("</defs>\n")
	}
	buf.WriteString(`<g class="output">` + "\n")
	buf.WriteString(`<g class="edges">` + "\n")
	for _, e := range s.current.edges {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	buf.WriteString("</g>\n")
	buf.WriteString(`<g class="nodes">` + "\n")
	for _, n := range s.current.nodes {
		buf.WriteString(n)
		buf.WriteByte('\n')
	}
	buf.WriteString("</g>\n</g>\n</svg>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// Bytes returns the current frame as an SVG document.
func (s *Surface[N, E]) Bytes(vb viewport.ViewBox, width, height float64) []byte {
	var buf bytes.Buffer
	_ = s.WriteSVG(&buf, vb, width, height)
	return buf.Bytes()
}

// FitViewBox returns the view-box covering the whole current frame.
func (s *Surface[N, E]) FitViewBox() viewport.ViewBox {
	w, h := s.Size()
	return viewport.ViewBox{Width: w, Height: h}
}
