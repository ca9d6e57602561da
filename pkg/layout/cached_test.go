package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/geom"
)

type countingEngine struct{ calls int }

func (e *countingEngine) Layout(ctx context.Context, in Input) (Result, error) {
	e.calls++
	res := Result{Width: 100, Height: 100}
	for i, n := range in.Nodes {
		res.Nodes = append(res.Nodes, PlacedNode{ID: n.ID, X: 50, Y: float64(i) * 40, Width: n.Width, Height: n.Height})
	}
	for _, e := range in.Edges {
		res.Edges = append(res.Edges, RoutedEdge{ID: e.ID, Source: e.Source, Target: e.Target, Points: []geom.Point{{X: 50, Y: 0}, {X: 50, Y: 40}}})
	}
	return res, nil
}

func TestCachedReusesResults(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingEngine{}
	eng := NewCached(inner, "counting", store)

	in := Input{
		Nodes: []NodeSpec{{ID: "a", Width: 10, Height: 10}, {ID: "b", Width: 10, Height: 10}},
		Edges: []EdgeSpec{{ID: "e1", Source: "a", Target: "b"}},
	}
	first, err := eng.Layout(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := eng.Layout(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if second.Nodes[1] != first.Nodes[1] || second.Edges[0].ID != "e1" {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}

	in.Nodes[0].Width = 20
	if _, err := eng.Layout(ctx, in); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("changed input should miss, calls = %d", inner.calls)
	}
}

func TestCachedNullStore(t *testing.T) {
	inner := &countingEngine{}
	eng := NewCached(inner, "counting", nil)
	for range 3 {
		if _, err := eng.Layout(context.Background(), Input{}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}
