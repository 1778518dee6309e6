package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Vector3 represents a point or displacement in 3D space.
type Vector3 f64.Vec3

// V3 is a convenience function to create a Vector3.
func V3(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

// X returns the x component.
func (v Vector3) X() float64 { return v[0] }

// Y returns the y component.
func (v Vector3) Y() float64 { return v[1] }

// Z returns the z component.
func (v Vector3) Z() float64 { return v[2] }

// Add returns the sum of two vectors.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns the difference of two vectors.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Mul returns the vector scaled by a scalar.
func (v Vector3) Mul(s float64) Vector3 {
	return Vector3{v[0] * s, v[1] * s, v[2] * s}
}

// Neg returns the negation of the vector.
func (v Vector3) Neg() Vector3 {
	return Vector3{-v[0], -v[1], -v[2]}
}

// Dot returns the dot product of two vectors.
func (v Vector3) Dot(w Vector3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns the cross product v × w.
func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Length returns the length (magnitude) of the vector.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq returns the squared length of the vector.
// Use it instead of Length for exact zero tests.
func (v Vector3) LengthSq() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector if the original vector has zero length.
func (v Vector3) Normalize() Vector3 {
	length := v.Length()
	if length == 0 {
		return Vector3{}
	}
	return Vector3{v[0] / length, v[1] / length, v[2] / length}
}

// IsZero reports whether all components are exactly zero.
func (v Vector3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Approx reports whether v and w are equal within epsilon per component.
func (v Vector3) Approx(w Vector3, epsilon float64) bool {
	return math.Abs(v[0]-w[0]) <= epsilon &&
		math.Abs(v[1]-w[1]) <= epsilon &&
		math.Abs(v[2]-w[2]) <= epsilon
}

// Min returns the component-wise minimum of v and w.
func (v Vector3) Min(w Vector3) Vector3 {
	return Vector3{min(v[0], w[0]), min(v[1], w[1]), min(v[2], w[2])}
}

// Max returns the component-wise maximum of v and w.
func (v Vector3) Max(w Vector3) Vector3 {
	return Vector3{max(v[0], w[0]), max(v[1], w[1]), max(v[2], w[2])}
}
