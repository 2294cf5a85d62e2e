package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPoseIsIdentity(t *testing.T) {
	pose := NewZeroPose()
	test.That(t, pose.Position, test.ShouldResemble, r3.Vector{})

	v := r3.Vector{X: 1, Y: 2, Z: 3}
	got := RotateVec(pose.Rotation, v)
	test.That(t, got.X, test.ShouldAlmostEqual, v.X, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, v.Y, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, v.Z, 1e-12)
}

func TestRotateVecQuarterTurn(t *testing.T) {
	// 90 degrees about Y takes -Z to -X
	s := math.Sqrt(0.5)
	q := quat.Number{Real: s, Jmag: s}
	got := RotateVec(q, r3.Vector{Z: -1})
	test.That(t, got.X, test.ShouldAlmostEqual, -1, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestForwardHalfTurn(t *testing.T) {
	// identity looks down -Z; a half turn about Y looks down +Z
	fwd := Forward(quat.Number{Real: 1})
	test.That(t, fwd.Z, test.ShouldAlmostEqual, -1, 1e-12)

	flipped := Forward(quat.Number{Jmag: 1})
	test.That(t, flipped.Z, test.ShouldAlmostEqual, 1, 1e-12)
}
