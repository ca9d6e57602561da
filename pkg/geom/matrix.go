package geom

import "math"

// Matrix is a 2D affine transformation.
// Layout: [a, b, c, d, e, f] representing:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
//
// This is the same layout SVG uses for getScreenCTM.
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Multiply returns m * other, i.e. other is applied first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Determinant returns the determinant of the linear part of m.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invertible reports whether m has a finite, non-zero determinant.
func (m Matrix) Invertible() bool {
	det := m.Determinant()
	return det != 0 && finite(det)
}

// Invert returns the inverse of m. The second result is false when m is
// singular, in which case the returned matrix must not be used.
func (m Matrix) Invert() (Matrix, bool) {
	if !m.Invertible() {
		return Matrix{}, false
	}
	inv := 1.0 / m.Determinant()
	return Matrix{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}, true
}

// IsIdentity checks if m is the identity matrix (within epsilon).
func (m Matrix) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
