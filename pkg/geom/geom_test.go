package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(15, -4).Multiply(Scale(2.5, 0.5)).Multiply(Translate(-3, 7))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert() ok = false, want true")
	}
	if !m.Multiply(inv).IsIdentity() {
		t.Errorf("m * inv = %v, want identity", m.Multiply(inv))
	}

	p := Pt(12.5, -8)
	got := inv.Apply(m.Apply(p))
	if !near(got.X, p.X) || !near(got.Y, p.Y) {
		t.Errorf("inv(m(p)) = %v, want %v", got, p)
	}
}

func TestMatrixInvertSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"zero scale", Scale(0, 0)},
		{"collapsed x", Scale(0, 1)},
		{"nan", Matrix{math.NaN(), 0, 0, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.m.Invert(); ok {
				t.Errorf("Invert(%v) ok = true, want false", tt.m)
			}
		})
	}
}

func TestMultiplyOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(10, 0).Multiply(Scale(2, 2))
	got := m.Apply(Pt(1, 1))
	if got != Pt(12, 2) {
		t.Errorf("Apply = %v, want (12,2)", got)
	}
}

func TestRectUnionAndCenter(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: -5, Width: 5, Height: 5}
	u := a.Union(b)
	want := Rect{X: 0, Y: -5, Width: 25, Height: 15}
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
	if c := u.Center(); c != Pt(12.5, 2.5) {
		t.Errorf("Center = %v, want (12.5,2.5)", c)
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Error("Bounds(nil) ok = true, want false")
	}
	b, ok := Bounds([]Rect{RectFromCenter(Pt(0, 0), 2, 2), RectFromCenter(Pt(10, 10), 2, 2)})
	if !ok {
		t.Fatal("Bounds ok = false")
	}
	if b != (Rect{X: -1, Y: -1, Width: 12, Height: 12}) {
		t.Errorf("Bounds = %+v", b)
	}
}

func TestRectEmptyContains(t *testing.T) {
	if !(Rect{Width: 0, Height: 3}).Empty() {
		t.Error("zero-width rect should be empty")
	}
	r := Rect{X: 1, Y: 1, Width: 2, Height: 2}
	if !r.Contains(Pt(2, 2)) || r.Contains(Pt(4, 2)) {
		t.Error("Contains mismatch")
	}
}
