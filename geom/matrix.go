package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix4 is a 4x4 affine transformation matrix in row-major order,
// matching f64.Mat4:
//
//	| a  b  c  x |
//	| d  e  f  y |
//	| g  h  i  z |
//	| 0  0  0  1 |
//
// A point p is transformed as M·p, so in a product A.Multiply(B) the
// transform B is applied first.
type Matrix4 f64.Mat4

// Identity returns the identity transformation matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Affine builds a matrix from a translation and the nine rotation/scale
// values in the order they appear on a reference line.
func Affine(x, y, z, a, b, c, d, e, f, g, h, i float64) Matrix4 {
	return Matrix4{
		a, b, c, x,
		d, e, f, y,
		g, h, i, z,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(x, y, z float64) Matrix4 {
	m := Identity()
	m[3], m[7], m[11] = x, y, z
	return m
}

// Scale creates a scaling matrix.
func Scale(x, y, z float64) Matrix4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateX creates a rotation about the X axis (angle in degrees).
func RotateX(degrees float64) Matrix4 {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Matrix4{
		1, 0, 0, 0,
		0, cos, -sin, 0,
		0, sin, cos, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation about the Y axis (angle in degrees).
func RotateY(degrees float64) Matrix4 {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Matrix4{
		cos, 0, sin, 0,
		0, 1, 0, 0,
		-sin, 0, cos, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation about the Z axis (angle in degrees).
func RotateZ(degrees float64) Matrix4 {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Matrix4{
		cos, -sin, 0, 0,
		sin, cos, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotationXYZ combines three axis rotations the way the reference viewer
// does for step rotations: Z is applied first, then Y, then X, and the Y and
// Z angles are negated relative to X.
func RotationXYZ(x, y, z float64) Matrix4 {
	return RotateX(x).Multiply(RotateY(-y)).Multiply(RotateZ(-z))
}

// Multiply returns m·other (other is applied first).
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * other[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// TransformPoint applies the transformation to a point.
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	return Vector3{
		m[0]*p[0] + m[1]*p[1] + m[2]*p[2] + m[3],
		m[4]*p[0] + m[5]*p[1] + m[6]*p[2] + m[7],
		m[8]*p[0] + m[9]*p[1] + m[10]*p[2] + m[11],
	}
}

// TransformVector applies the transformation to a direction (no translation).
func (m Matrix4) TransformVector(v Vector3) Vector3 {
	return Vector3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// Translation returns the translation component.
func (m Matrix4) Translation() Vector3 {
	return Vector3{m[3], m[7], m[11]}
}

// Determinant returns the determinant of the upper-left 3x3 part.
// A negative value means the transform mirrors geometry and so inverts
// its winding.
func (m Matrix4) Determinant() float64 {
	return m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[1]*(m[4]*m[10]-m[6]*m[8]) +
		m[2]*(m[4]*m[9]-m[5]*m[8])
}

// IsSingular reports whether the 3x3 part cannot be inverted.
func (m Matrix4) IsSingular() bool {
	return m.Determinant() == 0
}

// IsIdentity returns true if the matrix is exactly the identity matrix.
func (m Matrix4) IsIdentity() bool {
	return m == Identity()
}
