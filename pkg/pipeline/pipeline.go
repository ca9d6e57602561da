// Package pipeline turns input nodes and edges into a renderable model.
//
// A run has two rendering passes around one layout engine call:
//
//  1. Measuring: every node is drawn invisibly at the origin so the surface
//     can report its size.
//  2. LayingOut: the sized graph is handed to the [layout.Engine].
//  3. Committed: engine positions are converted into a [graph.Model], edge
//     routes are smoothed by the configured curve, and the model is drawn.
//
// The model is recomputed from scratch on every run.
//
// # Usage
//
//	p := pipeline.New[graph.Attrs, graph.Attrs](engine, surface, pipeline.Options{
//	    Curve: curve.Basis,
//	})
//	model, err := p.Run(ctx, doc.Nodes, doc.Edges, layout.Config{Direction: layout.TopToBottom})
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
)

// Format constants for exported artifacts.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats); err != nil {
			return err
		}
	}
	return nil
}

// State is the phase of a pipeline.
type State int

// Pipeline states.
const (
	Idle State = iota
	Measuring
	LayingOut
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Measuring:
		return "measuring"
	case LayingOut:
		return "laying-out"
	case Committed:
		return "committed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Surface is where models are drawn.
type Surface[N, E any] interface {
	// Draw replaces the surface content with m. The result becomes
	// observable through BBox after the next Flush.
	Draw(m graph.Model[N, E]) error

	// Flush waits until everything drawn so far is rendered.
	Flush(ctx context.Context) error

	// BBox returns the rendered size of the node with the given ID.
	BBox(id string) (geom.Rect, bool)
}

// Options configures a Pipeline.
type Options struct {
	// Curve turns edge routes into path descriptions. Defaults to curve.Basis.
	Curve curve.Func

	// EngineName labels the engine in logs, hooks and spans. When empty the
	// engine's Name method is used if it has one.
	EngineName string

	Logger *log.Logger
}

// Stats contains timing information of the last run.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	MeasureTime time.Duration
	LayoutTime  time.Duration
	CommitTime  time.Duration
}

func (o *Options) setDefaults(engine any) {
	if o.Curve == nil {
		o.Curve = curve.Basis
	}
	if o.EngineName == "" {
		if n, ok := engine.(interface{ Name() string }); ok {
			o.EngineName = n.Name()
		} else {
			o.EngineName = "engine"
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
