// Package curve turns edge routes into SVG path descriptions.
//
// A [Func] is a pure function from an ordered list of points to the value of
// an SVG path "d" attribute. Every interpolator handles the degenerate cases
// the same way: no points yield an empty path (renders nothing) and a single
// point yields a closed zero-length subpath.
//
// The interpolators mirror the curve factories commonly used for node-link
// diagrams:
//
//   - [Linear]: straight segments through every point
//   - [Step]: axis-aligned steps switching halfway between points
//   - [Basis]: uniform cubic B-spline through the control polygon
//   - [Cardinal]: cardinal spline through every point
package curve

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
)

// Func interpolates points into an SVG path description.
type Func func(points []geom.Point) string

// Curve names accepted by [Lookup].
const (
	NameLinear   = "linear"
	NameStep     = "step"
	NameBasis    = "basis"
	NameCardinal = "cardinal"
)

var registry = map[string]Func{
	NameLinear:   Linear,
	NameStep:     Step,
	NameBasis:    Basis,
	NameCardinal: Cardinal(0),
}

// Lookup returns the interpolator registered under name.
func Lookup(name string) (Func, error) {
	if f, ok := registry[strings.ToLower(name)]; ok {
		return f, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidOption, "unknown curve %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the registered curve names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Linear connects the points with straight line segments.
func Linear(points []geom.Point) string {
	if s, ok := degenerate(points); ok {
		return s
	}
	var p pathBuilder
	p.moveTo(points[0])
	for _, pt := range points[1:] {
		p.lineTo(pt)
	}
	return p.String()
}

// Step connects the points with horizontal and vertical segments, changing
// the y value halfway between consecutive x values.
func Step(points []geom.Point) string {
	if s, ok := degenerate(points); ok {
		return s
	}
	var p pathBuilder
	p.moveTo(points[0])
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		mid := (prev.X + cur.X) / 2
		p.lineTo(geom.Pt(mid, prev.Y))
		p.lineTo(geom.Pt(mid, cur.Y))
		p.lineTo(cur)
	}
	return p.String()
}

// Basis produces a cubic B-spline using the points as the control polygon.
// The curve starts at the first point and ends at the last one.
func Basis(points []geom.Point) string {
	if s, ok := degenerate(points); ok {
		return s
	}
	if len(points) == 2 {
		return Linear(points)
	}

	var p pathBuilder
	p.moveTo(points[0])
	first := points[0]
	second := points[1]
	p.lineTo(geom.Pt((5*first.X+second.X)/6, (5*first.Y+second.Y)/6))

	x0, y0 := first.X, first.Y
	x1, y1 := second.X, second.Y
	for _, pt := range points[2:] {
		p.basisSegment(x0, y0, x1, y1, pt.X, pt.Y)
		x0, y0, x1, y1 = x1, y1, pt.X, pt.Y
	}
	// Close the spline on the last control point, as the point is repeated.
	p.basisSegment(x0, y0, x1, y1, x1, y1)
	p.lineTo(geom.Pt(x1, y1))
	return p.String()
}

// Cardinal returns a cardinal spline interpolator with the given tension in
// [0, 1]. Tension 0 is a Catmull-Rom spline; tension 1 degenerates to
// straight segments.
func Cardinal(tension float64) Func {
	tension = math.Max(0, math.Min(1, tension))
	k := (1 - tension) / 6
	return func(points []geom.Point) string {
		if s, ok := degenerate(points); ok {
			return s
		}
		if len(points) == 2 {
			return Linear(points)
		}
		var p pathBuilder
		p.moveTo(points[0])
		n := len(points)
		for i := 0; i < n-1; i++ {
			p0 := points[max(i-1, 0)]
			p1 := points[i]
			p2 := points[i+1]
			p3 := points[min(i+2, n-1)]
			c1 := geom.Pt(p1.X+k*(p2.X-p0.X), p1.Y+k*(p2.Y-p0.Y))
			c2 := geom.Pt(p2.X-k*(p3.X-p1.X), p2.Y-k*(p3.Y-p1.Y))
			p.curveTo(c1, c2, p2)
		}
		return p.String()
	}
}

func degenerate(points []geom.Point) (string, bool) {
	switch len(points) {
	case 0:
		return "", true
	case 1:
		var p pathBuilder
		p.moveTo(points[0])
		p.close()
		return p.String(), true
	}
	return "", false
}

// =============================================================================
// Path Builder
// =============================================================================

type pathBuilder struct {
	b strings.Builder
}

func (p *pathBuilder) moveTo(pt geom.Point) {
	p.b.WriteByte('M')
	p.point(pt)
}

func (p *pathBuilder) lineTo(pt geom.Point) {
	p.b.WriteByte('L')
	p.point(pt)
}

func (p *pathBuilder) curveTo(c1, c2, pt geom.Point) {
	p.b.WriteByte('C')
	p.point(c1)
	p.b.WriteByte(',')
	p.point(c2)
	p.b.WriteByte(',')
	p.point(pt)
}

func (p *pathBuilder) close() { p.b.WriteByte('Z') }

func (p *pathBuilder) basisSegment(x0, y0, x1, y1, x, y float64) {
	p.curveTo(
		geom.Pt((2*x0+x1)/3, (2*y0+y1)/3),
		geom.Pt((x0+2*x1)/3, (y0+2*y1)/3),
		geom.Pt((x0+4*x1+x)/6, (y0+4*y1+y)/6),
	)
}

func (p *pathBuilder) point(pt geom.Point) {
	p.b.WriteString(Num(pt.X))
	p.b.WriteByte(',')
	p.b.WriteString(Num(pt.Y))
}

func (p *pathBuilder) String() string { return p.b.String() }

// Num formats a coordinate with at most three decimals and no trailing
// zeros, which keeps path strings stable across runs.
func Num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
