package pipeline

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
)

type attrs = graph.Attrs

// fakeSurface sizes each node 10px per ID character by 20px and records
// every call.
type fakeSurface struct {
	pending graph.Model[attrs, attrs]
	shown   graph.Model[attrs, attrs]
	calls   []string
}

func (s *fakeSurface) Draw(m graph.Model[attrs, attrs]) error {
	visible := "hidden"
	if len(m.Nodes) > 0 && m.Nodes[0].Visible {
		visible = "visible"
	}
	s.calls = append(s.calls, "draw:"+visible)
	s.pending = m
	return nil
}

func (s *fakeSurface) Flush(ctx context.Context) error {
	s.calls = append(s.calls, "flush")
	s.shown = s.pending
	return ctx.Err()
}

func (s *fakeSurface) BBox(id string) (geom.Rect, bool) {
	if _, ok := s.shown.Node(id); !ok {
		return geom.Rect{}, false
	}
	return geom.Rect{Width: 10 * float64(len(id)), Height: 20}, true
}

// stackEngine stacks nodes vertically in input order and routes edges as
// straight segments between centers. It drops edge IDs when anonymous is set.
type stackEngine struct {
	calls     int
	anonymous bool
	last      layout.Input
}

func (e *stackEngine) Layout(ctx context.Context, in layout.Input) (layout.Result, error) {
	e.calls++
	e.last = in
	res := layout.Result{Width: 200, Height: float64(len(in.Nodes)) * 100}
	pos := map[string]geom.Point{}
	for i, n := range in.Nodes {
		c := geom.Pt(100, float64(i)*100+50)
		pos[n.ID] = c
		res.Nodes = append(res.Nodes, layout.PlacedNode{ID: n.ID, X: c.X, Y: c.Y, Width: n.Width, Height: n.Height})
	}
	for i, ed := range in.Edges {
		id := ed.ID
		if e.anonymous {
			id = ""
		}
		off := geom.Pt(float64(i), 0)
		res.Edges = append(res.Edges, layout.RoutedEdge{
			ID: id, Source: ed.Source, Target: ed.Target,
			Points: []geom.Point{pos[ed.Source].Add(off), pos[ed.Target].Add(off)},
		})
	}
	return res, nil
}

func (e *stackEngine) Name() string { return "stack" }

func nodes(ids ...string) []graph.Node[attrs] {
	out := make([]graph.Node[attrs], len(ids))
	for i, id := range ids {
		out[i] = graph.Node[attrs]{ID: id, Data: attrs{"label": strings.ToUpper(id)}}
	}
	return out
}

func edge(id, src, dst string) graph.Edge[attrs] {
	return graph.Edge[attrs]{ID: id, Source: src, Target: dst}
}

func TestRunTransformsOneToOne(t *testing.T) {
	surf := &fakeSurface{}
	eng := &stackEngine{}
	p := New[attrs, attrs](eng, surf, Options{Curve: curve.Linear})

	in := nodes("a", "bb", "ccc")
	edges := []graph.Edge[attrs]{edge("e1", "a", "bb"), edge("e2", "bb", "ccc")}
	m, err := p.Run(context.Background(), in, edges, layout.Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.Nodes) != 3 || len(m.Edges) != 2 {
		t.Fatalf("model has %d nodes, %d edges", len(m.Nodes), len(m.Edges))
	}
	for i, n := range m.Nodes {
		if n.ID != in[i].ID || !n.Visible || n.Data["label"] != in[i].Data["label"] {
			t.Errorf("node %d = %+v", i, n)
		}
	}
	bb := m.Nodes[1]
	if bb.Width != 20 || bb.Height != 20 || bb.X != 100 || bb.Y != 150 {
		t.Errorf("bb = %+v", bb)
	}
	if bb.Transform != "translate(90,140)" {
		t.Errorf("transform = %q", bb.Transform)
	}
	if m.Edges[0].ID != "e1" || m.Edges[0].Path != "M100,50L100,150" {
		t.Errorf("edge = %+v", m.Edges[0])
	}
	if p.State() != Committed {
		t.Errorf("state = %s", p.State())
	}

	// The engine saw the measured sizes and the default config.
	if eng.last.Nodes[2].Width != 30 || eng.last.Config.Direction != layout.TopToBottom {
		t.Errorf("engine input = %+v", eng.last)
	}

	want := []string{"draw:hidden", "flush", "draw:visible", "flush"}
	if !reflect.DeepEqual(surf.calls, want) {
		t.Errorf("surface calls = %v, want %v", surf.calls, want)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	p := New[attrs, attrs](&stackEngine{}, &fakeSurface{}, Options{})
	in := nodes("x", "y")
	edges := []graph.Edge[attrs]{edge("x->y", "x", "y")}

	first, err := p.Run(context.Background(), in, edges, layout.Config{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), in, edges, layout.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%+v\n%+v", first, second)
	}
}

func TestRunEmptyGraph(t *testing.T) {
	eng := &stackEngine{}
	surf := &fakeSurface{}
	p := New[attrs, attrs](eng, surf, Options{})
	m, err := p.Run(context.Background(), nil, nil, layout.Config{MarginX: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Nodes) != 0 || len(m.Edges) != 0 || m.Width != 10 {
		t.Errorf("empty model = %+v", m)
	}
	if eng.calls != 0 {
		t.Error("engine should not be called for an empty graph")
	}
	if p.State() != Committed {
		t.Errorf("state = %s", p.State())
	}
}

func TestRunInvalidGraph(t *testing.T) {
	tests := []struct {
		name  string
		nodes []graph.Node[attrs]
		edges []graph.Edge[attrs]
	}{
		{"duplicate node", nodes("a", "a"), nil},
		{"dangling source", nodes("a"), []graph.Edge[attrs]{edge("e", "z", "a")}},
		{"dangling target", nodes("a"), []graph.Edge[attrs]{edge("e", "a", "z")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &stackEngine{}
			p := New[attrs, attrs](eng, &fakeSurface{}, Options{})
			_, err := p.Run(context.Background(), tt.nodes, tt.edges, layout.Config{})
			if errors.GetCode(err) != errors.ErrCodeInvalidGraph {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidGraph)
			}
			if eng.calls != 0 {
				t.Error("engine called for invalid input")
			}
		})
	}
}

func TestRunLayoutMismatch(t *testing.T) {
	bad := layout.EngineFunc(func(ctx context.Context, in layout.Input) (layout.Result, error) {
		return layout.Result{Nodes: []layout.PlacedNode{{ID: "ghost", Width: 1, Height: 1}}}, nil
	})
	p := New[attrs, attrs](bad, &fakeSurface{}, Options{})
	_, err := p.Run(context.Background(), nodes("a"), nil, layout.Config{})
	if errors.GetCode(err) != errors.ErrCodeLayoutMismatch {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeLayoutMismatch)
	}
	if p.State() != Idle {
		t.Errorf("state after failure = %s", p.State())
	}
}

func TestRunParallelEdges(t *testing.T) {
	for _, anonymous := range []bool{false, true} {
		p := New[attrs, attrs](&stackEngine{anonymous: anonymous}, &fakeSurface{}, Options{Curve: curve.Linear})
		edges := []graph.Edge[attrs]{edge("first", "a", "b"), edge("second", "a", "b")}
		m, err := p.Run(context.Background(), nodes("a", "b"), edges, layout.Config{})
		if err != nil {
			t.Fatal(err)
		}
		// The engine offsets the i-th route by i on x.
		if m.Edges[0].Points[0].X != 100 || m.Edges[1].Points[0].X != 101 {
			t.Errorf("anonymous=%v: routes not matched to their edges: %+v", anonymous, m.Edges)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New[attrs, attrs](&stackEngine{}, &fakeSurface{}, Options{})
	if _, err := p.Run(ctx, nodes("a"), nil, layout.Config{}); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "gif"}); errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("Invalid format code = %s", errors.GetCode(err))
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Measuring: "measuring", LayingOut: "laying-out", Committed: "committed"} {
		if s.String() != want {
			t.Errorf("%d.String() = %s", int(s), s.String())
		}
	}
}
