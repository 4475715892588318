// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.24
//

// Attitude representation primitives: Euler angles (aerospace roll, pitch,
// yaw), unit quaternions and direction cosine matrices for the body to
// local-level (NED) rotation.

package goins

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rotation-vector magnitude below which the first-order quaternion
// exponential is used instead of the exact sine/cosine form [rad]
const SMALL_ANGLE = 1e-5

// Quat is a unit quaternion (scalar first). Represents the body to
// local-level rotation; the equivalent DCM is always derived from it.
type Quat struct {
	W float64
	X float64
	Y float64
	Z float64
}

func (q *Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

func (q *Quat) Normalize() {
	n := q.Norm()
	q.W /= n
	q.X /= n
	q.Y /= n
	q.Z /= n
}

// EulerToQuat converts aerospace Euler angles [rad] (ZYX rotation order:
// yaw, then pitch, then roll) to a body-to-NED quaternion.
func EulerToQuat(roll, pitch, yaw float64) Quat {
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)
	return Quat{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// QuatToEuler converts a body-to-NED quaternion to aerospace Euler angles
// [rad]. Pitch is limited to +-pi/2 by the asin branch.
func QuatToEuler(q Quat) (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), q.W*q.W-q.X*q.X-q.Y*q.Y+q.Z*q.Z)
	pitch = math.Asin(2 * (q.W*q.Y - q.X*q.Z))
	yaw = math.Atan2(2*(q.W*q.Z+q.X*q.Y), q.W*q.W+q.X*q.X-q.Y*q.Y-q.Z*q.Z)
	return
}

// QuatToDCM returns the 3x3 direction cosine matrix equivalent to q.
func QuatToDCM(q Quat) *mat.Dense {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return mat.NewDense(3, 3, []float64{
		w*w + x*x - y*y - z*z, 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), w*w - x*x + y*y - z*z, 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), w*w - x*x - y*y + z*z,
	})
}

// DCMToQuat converts a rotation matrix to a quaternion. The branch on the
// largest diagonal term keeps the divisor away from zero.
func DCMToQuat(C *mat.Dense) Quat {
	c11, c12, c13 := C.At(0, 0), C.At(0, 1), C.At(0, 2)
	c21, c22, c23 := C.At(1, 0), C.At(1, 1), C.At(1, 2)
	c31, c32, c33 := C.At(2, 0), C.At(2, 1), C.At(2, 2)

	var q Quat
	tr := c11 + c22 + c33
	switch {
	case tr > c11 && tr > c22 && tr > c33:
		s := 2 * math.Sqrt(1+tr)
		q = Quat{W: s / 4, X: (c32 - c23) / s, Y: (c13 - c31) / s, Z: (c21 - c12) / s}
	case c11 > c22 && c11 > c33:
		s := 2 * math.Sqrt(1+c11-c22-c33)
		q = Quat{W: (c32 - c23) / s, X: s / 4, Y: (c12 + c21) / s, Z: (c13 + c31) / s}
	case c22 > c33:
		s := 2 * math.Sqrt(1+c22-c11-c33)
		q = Quat{W: (c13 - c31) / s, X: (c12 + c21) / s, Y: s / 4, Z: (c23 + c32) / s}
	default:
		s := 2 * math.Sqrt(1+c33-c11-c22)
		q = Quat{W: (c21 - c12) / s, X: (c13 + c31) / s, Y: (c23 + c32) / s, Z: s / 4}
	}
	q.Normalize()
	return q
}

// rotateQuat applies the rotation-vector increment psi [rad] to q and
// renormalizes. Below SMALL_ANGLE (half magnitude) the linearized quaternion
// exponential is used; otherwise the exact sine/cosine form. Both branches
// agree to first order at the threshold.
func rotateQuat(q Quat, psi [3]float64) Quat {
	gamma := 0.5 * math.Sqrt(psi[0]*psi[0]+psi[1]*psi[1]+psi[2]*psi[2])
	cgamma := math.Cos(gamma)
	var k float64
	if gamma < SMALL_ANGLE {
		k = 0.5
	} else {
		k = 0.5 * math.Sin(gamma) / gamma
	}
	p0 := psi[0] * k
	p1 := psi[1] * k
	p2 := psi[2] * k

	q2 := Quat{
		W: cgamma*q.W - p0*q.X - p1*q.Y - p2*q.Z,
		X: p0*q.W + cgamma*q.X + p2*q.Y - p1*q.Z,
		Y: p1*q.W - p2*q.X + cgamma*q.Y + p0*q.Z,
		Z: p2*q.W + p1*q.X - p0*q.Y + cgamma*q.Z,
	}
	q2.Normalize()
	return q2
}
