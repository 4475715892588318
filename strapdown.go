// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

// Implements strapdown inertial mechanization in the local-level (NED) frame
// over the rotating WGS-84 ellipsoid.

package goins

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Strapdown integrates body-frame angular rate and specific force samples
// into geodetic position, NED velocity and body-to-NED attitude. It is a
// pure kinematic integrator: no statistics, no bias correction. The caller
// (normally Ins) removes estimated sensor biases before calling Mechanize.
//
// The attitude quaternion QBL is the single source of truth; the DCM CBL is
// re-derived from it after every update, never integrated independently.
type Strapdown struct {
	Phi float64    // Latitude [rad]
	Lam float64    // Longitude [rad]
	Hgt float64    // Ellipsoidal height [m]
	Vn  float64    // North velocity [m/s]
	Ve  float64    // East velocity [m/s]
	Vd  float64    // Down velocity [m/s]
	QBL Quat       // Body-to-NED attitude quaternion
	CBL *mat.Dense // Body-to-NED DCM, derived from QBL

	// Latitude terms cached by the last Mechanize call. Propagate reuses
	// them so the covariance model sees the same Earth-rate and
	// transport-rate values as the mechanization of the same epoch.
	sL, cL, tL, sLsq float64
	re, rn, he, hn   float64
	g0               float64
	g                [3]float64 // Local gravity vector (NED)
	wEN              [3]float64 // Transport rate (NED)
	wIE              [3]float64 // Earth rotation rate (NED)
}

// NewStrapdown creates a strapdown integrator at the given position [rad,
// rad, m], NED velocity [m/s] and attitude [rad].
func NewStrapdown(lat, lon, alt, veln, vele, veld, roll, pitch, yaw float64) *Strapdown {
	s := &Strapdown{
		Phi: lat,
		Lam: lon,
		Hgt: alt,
		Vn:  veln,
		Ve:  vele,
		Vd:  veld,
	}
	s.SetAttitude(roll, pitch, yaw)
	s.updateLatTerms()
	return s
}

// SetPosition overrides the geodetic position [rad, rad, m].
func (s *Strapdown) SetPosition(lat, lon, alt float64) {
	s.Phi = lat
	s.Lam = lon
	s.Hgt = alt
}

// SetVelocity overrides the NED velocity [m/s].
func (s *Strapdown) SetVelocity(veln, vele, veld float64) {
	s.Vn = veln
	s.Ve = vele
	s.Vd = veld
}

// SetAttitude overrides the attitude from Euler angles [rad].
func (s *Strapdown) SetAttitude(roll, pitch, yaw float64) {
	s.QBL = EulerToQuat(roll, pitch, yaw)
	s.CBL = QuatToDCM(s.QBL)
}

// SetAttitudeDCM overrides the attitude from a body-to-NED rotation matrix.
func (s *Strapdown) SetAttitudeDCM(C *mat.Dense) {
	s.QBL = DCMToQuat(C)
	s.CBL = QuatToDCM(s.QBL) // re-derive so CBL is exactly orthonormal
}

// Attitude returns the current Euler angles [rad].
func (s *Strapdown) Attitude() (roll, pitch, yaw float64) {
	return QuatToEuler(s.QBL)
}

// Mechanize advances the navigation state by one inertial sample.
//
// Parameters:
//   - wb: angular rate in the body frame [rad/s]
//   - fb: specific force in the body frame [m/s^2]
//   - dt: sample interval [s], must be positive
//
// Near the poles cos(latitude) vanishes and the longitude-rate integration
// is undefined; this is an inherent singularity of the local-level
// mechanization and is not special-cased.
func (s *Strapdown) Mechanize(wb, fb [3]float64, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("non-positive sample interval: %g", dt)
	}

	// Latitude trigonometry, radii of curvature, gravity and frame rates
	s.updateLatTerms()
	we := [3]float64{
		s.wIE[0] + 2.0*s.wEN[0],
		s.wIE[1] + 2.0*s.wEN[1],
		s.wIE[2] + 2.0*s.wEN[2],
	}

	// --- Attitude Integration ---
	// psi = (wb - C^T (w_ie + w_en)) dt
	win := [3]float64{
		s.wIE[0] + s.wEN[0],
		s.wIE[1] + s.wEN[1],
		s.wIE[2] + s.wEN[2],
	}
	var psi [3]float64
	for i := 0; i < 3; i++ {
		ct := s.CBL.At(0, i)*win[0] + s.CBL.At(1, i)*win[1] + s.CBL.At(2, i)*win[2]
		psi[i] = (wb[i] - ct) * dt
	}
	q := rotateQuat(s.QBL, psi)

	// --- Velocity Integration ---
	// Specific force rotated with the attitude before this step's update
	var fn [3]float64
	for i := 0; i < 3; i++ {
		fn[i] = s.CBL.At(i, 0)*fb[0] + s.CBL.At(i, 1)*fb[1] + s.CBL.At(i, 2)*fb[2]
	}
	dvn := (fn[0] + s.g[0] - (we[1]*s.Vd - we[2]*s.Ve)) * dt
	dve := (fn[1] + s.g[1] - (we[0]*s.Vd - we[2]*s.Vn)) * dt
	dvd := (fn[2] + s.g[2] - (we[0]*s.Ve - we[1]*s.Vn)) * dt

	// --- Position Integration ---
	s.Phi += (s.Vn + 0.5*dvn) / s.hn * dt
	s.Lam += (s.Ve + 0.5*dve) / (s.he * s.cL) * dt
	s.Hgt -= (s.Vd + 0.5*dvd) * dt

	// Save integration result
	s.QBL = q
	s.CBL = QuatToDCM(s.QBL)
	s.Vn += dvn
	s.Ve += dve
	s.Vd += dvd

	return nil
}

// updateLatTerms refreshes the cached latitude trigonometry, curvature
// radii, gravity vector, Earth-rate and transport-rate vectors from the
// current state.
func (s *Strapdown) updateLatTerms() {
	s.sL = math.Sin(s.Phi)
	s.cL = math.Cos(s.Phi)
	s.tL = s.sL / s.cL
	s.sLsq = s.sL * s.sL

	t := 1.0 - E2*s.sLsq
	sqt := math.Sqrt(t)
	s.re = Re / sqt
	s.rn = Re * (1.0 - E2) / (t * t / sqt)
	s.he = s.re + s.Hgt
	s.hn = s.rn + s.Hgt

	s.g0 = G0 * (1.0 + GK*s.sLsq) / sqt
	s.gravityVector()
	s.earthRateVector()
	s.transportRateVector()
}

// gravityVector evaluates the Somigliana gravity model with altitude
// correction. The north component is the small latitude coupling term; the
// east component is zero.
func (s *Strapdown) gravityVector() {
	hR0 := s.Hgt / Re
	wR0sqRpMu := OmegaE * OmegaE * Re * Re * Rp / MuE
	s.g[0] = -8.08e-9 * s.Hgt * math.Sin(2.0*s.Phi)
	s.g[1] = 0.0
	s.g[2] = s.g0 * (1.0 -
		(2.0*s.Hgt/Re)*(1.0+Fe*(1.0-2.0*s.sLsq)+wR0sqRpMu) +
		3.0*hR0*hR0)
}

// earthRateVector evaluates the Earth rotation rate in the local-level
// frame.
func (s *Strapdown) earthRateVector() {
	s.wIE[0] = OmegaE * s.cL
	s.wIE[1] = 0.0
	s.wIE[2] = OmegaE * s.sL
}

// transportRateVector evaluates the local-level frame rotation caused by
// motion over the curved Earth.
func (s *Strapdown) transportRateVector() {
	s.wEN[0] = s.Ve / s.he
	s.wEN[1] = -s.Vn / s.hn
	s.wEN[2] = -s.wEN[0] * s.tL
}

// LocalGravity returns the magnitude of the plumb-bob gravity at the given
// latitude [rad] and ellipsoidal height [m].
func LocalGravity(lat, alt float64) float64 {
	sLsq := SQ(math.Sin(lat))
	g0 := G0 * (1.0 + GK*sLsq) / math.Sqrt(1.0-E2*sLsq)
	hR0 := alt / Re
	wR0sqRpMu := OmegaE * OmegaE * Re * Re * Rp / MuE
	return g0 * (1.0 -
		(2.0*alt/Re)*(1.0+Fe*(1.0-2.0*sLsq)+wR0sqRpMu) +
		3.0*hR0*hR0)
}
