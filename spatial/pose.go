// Package spatial holds the small amount of pose math the capture core
// needs: a position+quaternion pair and a vector rotation helper.
package spatial

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a rotation followed by a translation.
type Pose struct {
	Position r3.Vector
	Rotation quat.Number
}

// NewZeroPose returns the identity pose (no rotation, origin position).
func NewZeroPose() Pose {
	return Pose{Rotation: quat.Number{Real: 1}}
}

// NewPose assembles a pose from a position and a rotation.
func NewPose(position r3.Vector, rotation quat.Number) Pose {
	return Pose{Position: position, Rotation: rotation}
}

// RotateVec rotates v by q, i.e. computes q * v * q'.
func RotateVec(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Forward returns the gaze/view direction of a pose, which by convention
// looks down local -Z.
func Forward(q quat.Number) r3.Vector {
	return RotateVec(q, r3.Vector{Z: -1})
}
