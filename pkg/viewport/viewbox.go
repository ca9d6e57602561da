package viewport

import (
	"math"
	"strconv"

	"github.com/matzehuels/graphview/pkg/geom"
)

// ViewBox is the visible region in local coordinates.
type ViewBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the box has a finite origin and positive, finite
// size. Operations on an invalid box are no-ops.
func (v ViewBox) Valid() bool {
	for _, f := range []float64{v.X, v.Y, v.Width, v.Height} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return v.Width > 0 && v.Height > 0
}

// Center returns the midpoint of the box.
func (v ViewBox) Center() geom.Point {
	return geom.Pt(v.X+v.Width/2, v.Y+v.Height/2)
}

// Rect returns the box as a rectangle.
func (v ViewBox) Rect() geom.Rect {
	return geom.Rect{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height}
}

// String formats the box as an SVG viewBox attribute value.
func (v ViewBox) String() string {
	return num(v.X) + " " + num(v.Y) + " " + num(v.Width) + " " + num(v.Height)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
