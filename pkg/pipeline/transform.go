package pipeline

import (
	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
)

// transform converts an engine result into a model. Nodes and edges keep
// input order, so identical runs produce identical models.
func transform[N, E any](nodes []graph.Node[N], edges []graph.Edge[E], sizes map[string]size, res layout.Result, fn curve.Func) (graph.Model[N, E], error) {
	placed := make(map[string]layout.PlacedNode, len(res.Nodes))
	inputs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inputs[n.ID] = true
	}
	for _, pn := range res.Nodes {
		if !inputs[pn.ID] {
			return graph.Model[N, E]{}, errors.New(errors.ErrCodeLayoutMismatch, "layout returned unknown node %q", pn.ID)
		}
		placed[pn.ID] = pn
	}

	m := graph.Model[N, E]{
		Nodes:  make([]graph.TransformedNode[N], len(nodes)),
		Edges:  make([]graph.TransformedEdge[E], len(edges)),
		Width:  res.Width,
		Height: res.Height,
	}
	for i, n := range nodes {
		pn, ok := placed[n.ID]
		if !ok {
			return graph.Model[N, E]{}, errors.New(errors.ErrCodeLayoutMismatch, "node %q missing from layout result", n.ID)
		}
		w, h := pn.Width, pn.Height
		if w <= 0 || h <= 0 {
			w, h = sizes[n.ID].w, sizes[n.ID].h
		}
		m.Nodes[i] = graph.TransformedNode[N]{
			ID:        n.ID,
			Width:     w,
			Height:    h,
			X:         pn.X,
			Y:         pn.Y,
			Transform: translate(pn.X-w/2, pn.Y-h/2),
			Visible:   true,
			Data:      n.Data,
		}
	}

	routes, err := matchEdges(edges, res.Edges)
	if err != nil {
		return graph.Model[N, E]{}, err
	}
	for i, e := range edges {
		r, ok := routes[i]
		if !ok {
			return graph.Model[N, E]{}, errors.New(errors.ErrCodeLayoutMismatch, "edge %q missing from layout result", e.ID)
		}
		m.Edges[i] = graph.TransformedEdge[E]{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Path:   fn(r.Points),
			Points: r.Points,
			Data:   e.Data,
		}
	}
	return m, nil
}

// matchEdges assigns each routed edge to an input edge index. Edges echoed
// with their ID match exactly; otherwise the first not yet matched input
// edge with the same endpoints is used.
func matchEdges[E any](edges []graph.Edge[E], routed []layout.RoutedEdge) (map[int]layout.RoutedEdge, error) {
	byID := make(map[string]int, len(edges))
	byPair := make(map[[2]string][]int)
	for i, e := range edges {
		byID[e.ID] = i
		k := [2]string{e.Source, e.Target}
		byPair[k] = append(byPair[k], i)
	}

	out := make(map[int]layout.RoutedEdge, len(routed))
	for _, r := range routed {
		if r.ID != "" {
			i, ok := byID[r.ID]
			if !ok {
				return nil, errors.New(errors.ErrCodeLayoutMismatch, "layout returned unknown edge %q", r.ID)
			}
			out[i] = r
			continue
		}
		cands := byPair[[2]string{r.Source, r.Target}]
		if len(cands) == 0 {
			return nil, errors.New(errors.ErrCodeLayoutMismatch, "layout returned unknown edge %s->%s", r.Source, r.Target)
		}
		idx := cands[0]
		for _, c := range cands {
			if _, taken := out[c]; !taken {
				idx = c
				break
			}
		}
		out[idx] = r
	}
	return out, nil
}

func translate(x, y float64) string {
	return "translate(" + curve.Num(x) + "," + curve.Num(y) + ")"
}
