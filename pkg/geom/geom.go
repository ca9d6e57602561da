// Package geom provides the small amount of planar geometry graphview needs:
// points, axis-aligned rectangles and 2D affine matrices.
package geom

import "math"

// Point is a position in some 2D coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromCenter builds a rectangle of size w×h centered on c.
func RectFromCenter(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// Max returns the bottom-right corner of r.
func (r Rect) Max() Point { return Point{r.X + r.Width, r.Y + r.Height} }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return !(r.Width > 0 && r.Height > 0) }

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Bounds returns the union of all rects and false when rects is empty.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b = b.Union(r)
	}
	return b, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
