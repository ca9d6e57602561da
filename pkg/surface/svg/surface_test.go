package svg

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/viewport"
)

type attrs = graph.Attrs

func TestNewSurfaceMissingTemplate(t *testing.T) {
	tests := []struct {
		name string
		tpl  Templates[attrs, attrs]
	}{
		{"no node", Templates[attrs, attrs]{Edge: ArrowEdge}},
		{"no edge", Templates[attrs, attrs]{Node: LabelNode}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSurface(tt.tpl)
			if errors.GetCode(err) != errors.ErrCodeMissingTemplate {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeMissingTemplate)
			}
		})
	}
	if _, err := NewSurface(Templates[attrs, attrs]{Node: LabelNode, Edge: ArrowEdge}); err != nil {
		t.Errorf("defs should be optional: %v", err)
	}
}

func TestBBoxAfterFlush(t *testing.T) {
	s, err := NewSurface(DefaultTemplates())
	if err != nil {
		t.Fatal(err)
	}
	m := graph.Model[attrs, attrs]{Nodes: []graph.TransformedNode[attrs]{
		{ID: "a", Data: attrs{"label": "a fairly long label"}},
	}}
	if err := s.Draw(m); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.BBox("a"); ok {
		t.Error("BBox should not see unflushed frames")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	bb, ok := s.BBox("a")
	if !ok {
		t.Fatal("BBox missing after flush")
	}
	w, h := LabelSize("a fairly long label")
	if bb.Width != w || bb.Height != h {
		t.Errorf("bbox = %vx%v, want %vx%v", bb.Width, bb.Height, w, h)
	}
	if _, ok := s.BBox("zzz"); ok {
		t.Error("unknown node should have no bbox")
	}
}

func TestLabelSize(t *testing.T) {
	shortW, shortH := LabelSize("a")
	longW, longH := LabelSize("a much longer label")
	if shortW != minNodeWidth {
		t.Errorf("short label width = %v, want minimum %v", shortW, minNodeWidth)
	}
	if longW <= shortW || longH != shortH {
		t.Errorf("long = %vx%v, short = %vx%v", longW, longH, shortW, shortH)
	}
}

func TestWriteSVG(t *testing.T) {
	s, _ := NewSurface(DefaultTemplates())
	m := graph.Model[attrs, attrs]{
		Nodes: []graph.TransformedNode[attrs]{
			{ID: "a", Transform: "translate(10,20)", Visible: true, Data: attrs{"label": "A & B"}},
			{ID: "b", Transform: "translate(0,0)", Visible: false},
		},
		Edges: []graph.TransformedEdge[attrs]{
			{ID: "a->b", Source: "a", Target: "b", Path: "M0,0L10,10"},
		},
		Width:  100,
		Height: 50,
	}
	s.Draw(m)
	s.Flush(context.Background())

	var b strings.Builder
	if err := s.WriteSVG(&b, viewport.ViewBox{X: -5, Width: 200, Height: 100}, 800, 400); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		`width="800" height="400" viewBox="-5 0 200 100" preserveAspectRatio="none"`,
		`<marker id="arrowhead"`,
		`<g class="node" id="node-a" transform="translate(10,20)">`,
		`A &amp; B`,
		`id="node-b" transform="translate(0,0)" visibility="hidden"`,
		`<g class="edge" id="edge-a-&gt;b">`,
		`d="M0,0L10,10"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, `class="edges"`) > strings.Index(out, `class="nodes"`) {
		t.Error("edges should be drawn below nodes")
	}

	if vb := s.FitViewBox(); vb.Width != 100 || vb.Height != 50 {
		t.Errorf("FitViewBox = %+v", vb)
	}
}

func TestFlushCanceled(t *testing.T) {
	s, _ := NewSurface(DefaultTemplates())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Flush(ctx); err != context.Canceled {
		t.Errorf("err = %v", err)
	}
}

func TestLabelNodeFill(t *testing.T) {
	frag := LabelNode(graph.TransformedNode[attrs]{ID: "x", Data: attrs{"fill": "#ff0000"}})
	if !strings.Contains(frag.Markup, `fill="#ff0000"`) {
		t.Errorf("markup = %s", frag.Markup)
	}
	if !strings.Contains(frag.Markup, ">x</text>") {
		t.Error("label should default to the ID")
	}
}
