package layout

import (
	"context"
	"strings"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

// Direction is the rank direction of a hierarchical layout.
type Direction string

// Supported directions.
const (
	TopToBottom Direction = "TB"
	BottomToTop Direction = "BT"
	LeftToRight Direction = "LR"
	RightToLeft Direction = "RL"
)

// ParseDirection accepts the short forms (TB, LR, ...) case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case TopToBottom, BottomToTop, LeftToRight, RightToLeft:
		return d, nil
	case "":
		return TopToBottom, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want TB, BT, LR or RL)", s)
}

// Align is the node alignment hint handed to engines that support it.
type Align string

// AlignUpperLeft is the only alignment graphview requests.
const AlignUpperLeft Align = "UL"

// Default spacing values, in layout units (pixels).
const (
	DefaultNodeSep = 50.0
	DefaultRankSep = 50.0
)

// Config is the layout configuration passed through to the engine.
type Config struct {
	Direction Direction `json:"direction" toml:"direction"`
	MarginX   float64   `json:"margin_x" toml:"margin_x"`
	MarginY   float64   `json:"margin_y" toml:"margin_y"`
	NodeSep   float64   `json:"node_sep,omitempty" toml:"node_sep"`
	RankSep   float64   `json:"rank_sep,omitempty" toml:"rank_sep"`
	Align     Align     `json:"align,omitempty" toml:"align"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Direction == "" {
		c.Direction = TopToBottom
	}
	if c.NodeSep <= 0 {
		c.NodeSep = DefaultNodeSep
	}
	if c.RankSep <= 0 {
		c.RankSep = DefaultRankSep
	}
	if c.Align == "" {
		c.Align = AlignUpperLeft
	}
	return c
}

// NodeSpec is a sized node registered with the engine.
type NodeSpec struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EdgeSpec is a directed edge registered with the engine.
type EdgeSpec struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Input is the complete engine input.
type Input struct {
	Nodes  []NodeSpec `json:"nodes"`
	Edges  []EdgeSpec `json:"edges"`
	Config Config     `json:"config"`
}

// PlacedNode is a node with its absolute center position.
type PlacedNode struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RoutedEdge is an edge with its route. ID is empty when the engine does
// not preserve edge identities.
type RoutedEdge struct {
	ID     string       `json:"id,omitempty"`
	Source string       `json:"source"`
	Target string       `json:"target"`
	Points []geom.Point `json:"points"`
}

// Result is the engine output. Width and Height span the laid out graph
// including margins.
type Result struct {
	Nodes  []PlacedNode `json:"nodes"`
	Edges  []RoutedEdge `json:"edges"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// Engine computes node positions and edge routes for a sized graph.
// Implementations must be deterministic for a fixed input.
type Engine interface {
	Layout(ctx context.Context, in Input) (Result, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, in Input) (Result, error)

// Layout calls f.
func (f EngineFunc) Layout(ctx context.Context, in Input) (Result, error) { return f(ctx, in) }
