package geom

import "math"

// Matrix represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// Mapping: (x, y) → (a·x + c·y + e, b·x + d·y + f)
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix about the origin.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation matrix about the origin (angle in radians).
func Rotate(radians float64) Matrix {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// RotateDegrees returns a rotation matrix about the origin (angle in degrees).
func RotateDegrees(degrees float64) Matrix {
	return Rotate(degrees * math.Pi / 180.0)
}

// RotateAround returns a rotation matrix about an arbitrary pivot:
// T(cx,cy) * R(degrees) * T(-cx,-cy).
func RotateAround(degrees, cx, cy float64) Matrix {
	return Translate(cx, cy).Multiply(RotateDegrees(degrees)).Multiply(Translate(-cx, -cy))
}

// ScaleAround returns a scale matrix about an arbitrary pivot:
// T(cx,cy) * S(sx,sy) * T(-cx,-cy).
func ScaleAround(sx, sy, cx, cy float64) Matrix {
	return Translate(cx, cy).Multiply(Scale(sx, sy)).Multiply(Translate(-cx, -cy))
}

// Skew returns a skew matrix about the origin (angles in degrees).
func Skew(axDegrees, ayDegrees float64) Matrix {
	return Matrix{1, math.Tan(ayDegrees * math.Pi / 180.0), math.Tan(axDegrees * math.Pi / 180.0), 1, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other.
// This applies 'other' first, then 'm'. Not commutative.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformBounds transforms a bounds box and returns the axis-aligned
// bounding box of its four transformed corners. Under rotation this grows
// the box versus a tight rotated bound, which is acceptable for selection
// and alignment but not for boolean geometry.
func (m Matrix) TransformBounds(b Bounds) Bounds {
	x0, y0 := m.TransformPoint(b.MinX, b.MinY)
	x1, y1 := m.TransformPoint(b.MaxX, b.MinY)
	x2, y2 := m.TransformPoint(b.MaxX, b.MaxY)
	x3, y3 := m.TransformPoint(b.MinX, b.MaxY)

	return Bounds{
		MinX: min(x0, min(x1, min(x2, x3))),
		MinY: min(y0, min(y1, min(y2, y3))),
		MaxX: max(x0, max(x1, max(x2, x3))),
		MaxY: max(y0, max(y1, max(y2, y3))),
	}
}

// Determinant returns the determinant of the matrix.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix. The second return value is
// false when the matrix is singular (degenerate scale of zero); callers
// must treat that as "no local coordinate mapping" and fall back to
// identity rather than dividing through.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if det == 0 {
		return Identity(), false
	}

	invDet := 1.0 / det
	return Matrix{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}, true
}

// FromRecord creates a matrix from a transform record.
// Composes Translate(tx, ty) * Rotate(r) * Scale(sx, sy).
func FromRecord(tx, ty, rDegrees, sx, sy float64) Matrix {
	rad := rDegrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	return Matrix{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		tx,
		ty,
	}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// NearlyEqual compares two matrices within epsilon.
func (m Matrix) NearlyEqual(other Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}
