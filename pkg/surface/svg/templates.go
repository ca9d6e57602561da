package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
)

const (
	fontCharWidth = 0.55
	fontSize      = 14.0
	labelPadX     = 12.0
	labelPadY     = 8.0
	minNodeWidth  = 40.0
)

// LabelNode renders a document node as a rounded box around its label
// (see graph.Label). The box is sized from the label length. A "fill"
// attribute overrides the box color.
func LabelNode(n graph.TransformedNode[graph.Attrs]) Fragment {
	label := graph.Label(graph.Node[graph.Attrs]{ID: n.ID, Data: n.Data})
	w, h := LabelSize(label)

	fill := "#ffffff"
	if f, ok := n.Data["fill"].(string); ok && f != "" {
		fill = f
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<rect class="node-box" width="%s" height="%s" rx="4" fill="%s"/>`, num(w), num(h), EscapeXML(fill))
	fmt.Fprintf(&b, `<text class="node-label" x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-size="%s">%s</text>`,
		num(w/2), num(h/2), num(fontSize), EscapeXML(label))
	return Fragment{Markup: b.String(), Bounds: geom.Rect{Width: w, Height: h}}
}

// LabelSize estimates the box size of a label from its character count.
func LabelSize(label string) (width, height float64) {
	n := float64(utf8.RuneCountInString(label))
	width = max(minNodeWidth, n*fontSize*fontCharWidth+2*labelPadX)
	height = fontSize + 2*labelPadY
	return width, height
}

// ArrowEdge renders an edge path ending in the arrowhead from ArrowDefs.
func ArrowEdge(e graph.TransformedEdge[graph.Attrs]) string {
	return fmt.Sprintf(`<path class="edge-path" d="%s" fill="none" marker-end="url(#arrowhead)"/>`, EscapeXML(e.Path))
}

// ArrowDefs defines the arrowhead marker and default styles.
func ArrowDefs() string {
	return `<marker id="arrowhead" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">` +
		`<path d="M0,0L10,5L0,10z" fill="#333"/></marker>` +
		`<style>.node-box{stroke:#333;stroke-width:1.5}.node-label{font-family:sans-serif;fill:#222}.edge-path{stroke:#333;stroke-width:1.5}</style>`
}

// DefaultTemplates returns the templates used for graph documents.
func DefaultTemplates() Templates[graph.Attrs, graph.Attrs] {
	return Templates[graph.Attrs, graph.Attrs]{
		Node: LabelNode,
		Edge: ArrowEdge,
		Defs: ArrowDefs,
	}
}

// EscapeXML escapes s for use in text content and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
