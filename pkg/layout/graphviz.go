package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

// pointsPerInch converts between layout units and Graphviz inches.
const pointsPerInch = 72.0

// formatJSON is Graphviz's JSON renderer (core plugin).
const formatJSON graphviz.Format = "json"

// Graphviz lays out graphs with the Graphviz dot algorithm.
type Graphviz struct {
	logger *log.Logger
}

// NewGraphviz creates a Graphviz engine. A nil logger uses log.Default().
func NewGraphviz(logger *log.Logger) *Graphviz {
	if logger == nil {
		logger = log.Default()
	}
	return &Graphviz{logger: logger}
}

// Layout runs dot on in and converts the positions to layout units.
func (e *Graphviz) Layout(ctx context.Context, in Input) (Result, error) {
	cfg := in.Config.WithDefaults()
	if len(in.Nodes) == 0 {
		return Result{Width: 2 * cfg.MarginX, Height: 2 * cfg.MarginY}, nil
	}

	dot := ToDOT(in)
	e.logger.Debug("graphviz layout", "nodes", len(in.Nodes), "edges", len(in.Edges), "rankdir", cfg.Direction)

	raw, err := renderJSON(ctx, dot)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "graphviz")
	}
	return decodeJSON(raw, in, cfg)
}

// ToDOT converts an engine input to Graphviz DOT source.
//
// Nodes are fixed-size boxes without labels so dot honours the measured
// sizes exactly. Host IDs never enter the DOT text: node i is named n<i>
// and edge i carries id e<i>, which decodeJSON maps back by index.
// Edges whose endpoints are not in in.Nodes are left out.
func ToDOT(in Input) string {
	cfg := in.Config.WithDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", cfg.Direction)
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(cfg.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(cfg.RankSep))
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\", margin=0];\n")
	buf.WriteString("\n")

	index := make(map[string]int, len(in.Nodes))
	for i, n := range in.Nodes {
		index[n.ID] = i
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for i, e := range in.Edges {
		src, ok := index[e.Source]
		if !ok {
			continue
		}
		dst, ok := index[e.Target]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [id=e%d];\n", src, dst, i)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// syntheticIndex parses a DOT name of the form <prefix><i> with i < n.
func syntheticIndex(name string, prefix byte, n int) (int, bool) {
	if len(name) < 2 || name[0] != prefix {
		return 0, false
	}
	i, err := strconv.Atoi(name[1:])
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func inches(v float64) string {
	return strconv.FormatFloat(max(v, 0)/pointsPerInch, 'f', 5, 64)
}

func renderJSON(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatJSON, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// JSON Output Decoding
// =============================================================================

type gvGraph struct {
	BB      string     `json:"bb"`
	Objects []gvObject `json:"objects"`
	Edges   []gvEdge   `json:"edges"`
}

type gvObject struct {
	GVID   int    `json:"_gvid"`
	Name   string `json:"name"`
	Pos    string `json:"pos"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type gvEdge struct {
	Tail int    `json:"tail"`
	Head int    `json:"head"`
	Pos  string `json:"pos"`
	ID   string `json:"id"`
}

func decodeJSON(raw []byte, in Input, cfg Config) (Result, error) {
	var g gvGraph
	if err := json.Unmarshal(raw, &g); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "decode graphviz json")
	}

	bb, err := parseFloats(g.BB, 4)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "bounding box %q", g.BB)
	}
	llx, ury := bb[0], bb[3]
	toLocal := func(x, y float64) geom.Point {
		return geom.Pt(x-llx+cfg.MarginX, ury-y+cfg.MarginY)
	}

	ids := make(map[int]string, len(g.Objects))
	res := Result{
		Width:  bb[2] - bb[0] + 2*cfg.MarginX,
		Height: bb[3] - bb[1] + 2*cfg.MarginY,
	}

	for _, o := range g.Objects {
		i, ok := syntheticIndex(o.Name, 'n', len(in.Nodes))
		if !ok {
			return Result{}, errors.New(errors.ErrCodeLayoutMismatch, "graphviz object %q is not an input node", o.Name)
		}
		id := in.Nodes[i].ID
		ids[o.GVID] = id
		pos, err := parseFloats(o.Pos, 2)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "node %q position", id)
		}
		w, _ := strconv.ParseFloat(o.Width, 64)
		h, _ := strconv.ParseFloat(o.Height, 64)
		c := toLocal(pos[0], pos[1])
		res.Nodes = append(res.Nodes, PlacedNode{
			ID:     id,
			X:      c.X,
			Y:      c.Y,
			Width:  w * pointsPerInch,
			Height: h * pointsPerInch,
		})
	}

	for _, e := range g.Edges {
		if _, ok := ids[e.Tail]; !ok {
			return Result{}, errors.New(errors.ErrCodeLayoutMismatch, "edge tail %d not in graphviz objects", e.Tail)
		}
		if _, ok := ids[e.Head]; !ok {
			return Result{}, errors.New(errors.ErrCodeLayoutMismatch, "edge head %d not in graphviz objects", e.Head)
		}
		i, ok := syntheticIndex(e.ID, 'e', len(in.Edges))
		if !ok {
			return Result{}, errors.New(errors.ErrCodeLayoutMismatch, "graphviz edge %q is not an input edge", e.ID)
		}
		spec := in.Edges[i]
		pts, err := parseEdgePos(e.Pos)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "edge %q route", spec.ID)
		}
		for j, p := range pts {
			pts[j] = toLocal(p.X, p.Y)
		}
		res.Edges = append(res.Edges, RoutedEdge{ID: spec.ID, Source: spec.Source, Target: spec.Target, Points: pts})
	}

	return res, nil
}

// parseEdgePos parses a Graphviz spline "pos" attribute:
//
//	[s,x,y ][e,x,y ]x1,y1 x2,y2 ...
//
// The optional start point is prepended and the optional end point (arrow
// tip) appended to the control points.
func parseEdgePos(pos string) ([]geom.Point, error) {
	var (
		start, end *geom.Point
		pts        []geom.Point
	)
	// Multiple splines are separated by ';'; only the first is used.
	if i := strings.IndexByte(pos, ';'); i >= 0 {
		pos = pos[:i]
	}
	for _, tok := range strings.Fields(pos) {
		switch {
		case strings.HasPrefix(tok, "s,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			start = &p
		case strings.HasPrefix(tok, "e,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			end = &p
		default:
			p, err := parsePoint(tok)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
	}
	if start != nil {
		pts = append([]geom.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}

func parsePoint(s string) (geom.Point, error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(v[0], v[1]), nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) < n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", parts[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// Name identifies the engine in cache keys and logs.
func (e *Graphviz) Name() string { return "graphviz" }

var _ Engine = (*Graphviz)(nil)
