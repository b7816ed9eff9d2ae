package types

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

const (
	// Tolerance used when classifying vertices against planes.
	Epsilon float32 = 0.001

	// Tolerance used for near-coincident box faces and backface tests.
	SmallEpsilon float32 = 0.000001

	floatCmpEpsilon float32 = 1e-6
)

type Vec2 f32.Vec2
type Vec3 f32.Vec3

// An axis index into a Vec3.
type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Return the axis name.
func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return "?"
}

// Define a 2 component vector.
func XY(x, y float32) Vec2 {
	return Vec2{x, y}
}

// Define a 3 component vector.
func XYZ(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// Add a vector.
func (v Vec2) Add(v2 Vec2) Vec2 {
	return Vec2{v[0] + v2[0], v[1] + v2[1]}
}

// Subtract a vector.
func (v Vec2) Sub(v2 Vec2) Vec2 {
	return Vec2{v[0] - v2[0], v[1] - v2[1]}
}

// Multiply a 2 component vector with a scalar.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

// Calculate dot product of 2 vectors
func (v Vec2) Dot(v2 Vec2) float32 {
	return v[0]*v2[0] + v[1]*v2[1]
}

// Calculate the z component of the cross product of 2 vectors.
func (v Vec2) Cross(v2 Vec2) float32 {
	return v[0]*v2[1] - v[1]*v2[0]
}

// Expand a 2 component vector to a Vec3 lying on an axis aligned plane.
// The two components are mapped to the remaining axes in ascending order.
func (v Vec2) OnPlane(axis Axis, pos float32) Vec3 {
	switch axis {
	case XAxis:
		return Vec3{pos, v[0], v[1]}
	case YAxis:
		return Vec3{v[0], pos, v[1]}
	}
	return Vec3{v[0], v[1], pos}
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Get 3 component vector length.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize 3 component vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	l = 1.0 / l
	return Vec3{v[0] * l, v[1] * l, v[2] * l}
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float32 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}

// Drop the component along axis and return the remaining two in ascending
// axis order.
func (v Vec3) Project(axis Axis) Vec2 {
	switch axis {
	case XAxis:
		return Vec2{v[1], v[2]}
	case YAxis:
		return Vec2{v[0], v[2]}
	}
	return Vec2{v[0], v[1]}
}

// Return true if all components of v and v2 are within eps of each other.
func (v Vec3) ApproxEqual(v2 Vec3, eps float32) bool {
	return math32.Abs(v[0]-v2[0]) < eps &&
		math32.Abs(v[1]-v2[1]) < eps &&
		math32.Abs(v[2]-v2[2]) < eps
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] < out[0] {
		out[0] = v2[0]
	}
	if v2[1] < out[1] {
		out[1] = v2[1]
	}
	if v2[2] < out[2] {
		out[2] = v2[2]
	}
	return out
}

// Calc maxcomponent from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] > out[0] {
		out[0] = v2[0]
	}
	if v2[1] > out[1] {
		out[1] = v2[1]
	}
	if v2[2] > out[2] {
		out[2] = v2[2]
	}
	return out
}
