// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

// Implements the error-state navigation filter that fuses strapdown
// mechanization with satellite pseudorange/pseudorange-rate measurements.

package goins

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Number of error states and block offsets within the state vector:
// attitude (3), NED velocity (3), NED position in meters (3), accelerometer
// bias (3), gyroscope bias (3), clock bias and drift in meters (2).
const (
	NX_INS = 17
	IX_ATT = 0
	IX_VEL = 3
	IX_POS = 6
	IX_BA  = 9
	IX_BG  = 12
	IX_CLK = 15
)

// Ins is the error-state GNSS/INS filter. It owns the full navigation state
// (embedded Strapdown kinematics plus receiver clock and estimated IMU
// biases) and the error covariance. All operations mutate the filter in
// place; a single Ins instance must not be shared across goroutines.
//
// Per-epoch call order is Mechanize, Propagate, then (when satellite data
// is available) GnssUpdate.
type Ins struct {
	Strapdown
	Cb float64 // Receiver clock bias [m]
	Cd float64 // Receiver clock drift [m/s]

	P *mat.Dense // Error covariance (NX_INS x NX_INS, symmetric PSD)

	ba [3]float64 // Estimated accelerometer bias [m/s^2]
	bg [3]float64 // Estimated gyroscope bias [rad/s]

	// IMU noise model (SetImuSpec)
	accBiasRW float64 // Accel bias random-walk intensity [m/s^2/sqrt(s)]
	accNoise  float64 // Accel noise density [m/s^2/sqrt(Hz)]
	gyrBiasRW float64 // Gyro bias random-walk intensity [rad/s/sqrt(s)]
	gyrNoise  float64 // Gyro noise density [rad/s/sqrt(Hz)]

	// Clock noise model, derived from the h-parameters (SetClockSpec)
	sb float64 // Clock bias spectral density [m^2/s]
	sd float64 // Clock drift spectral density [m^2/s^3]
}

// NewIns creates a filter with zero state and a diagonal prior covariance
// reflecting coarse initial uncertainty. Callers initialize the state with
// the Set* methods or seed it from a GaussNewton solution.
func NewIns() *Ins {
	ins := &Ins{
		Strapdown: *NewStrapdown(0, 0, 0, 0, 0, 0, 0, 0, 0),
		P:         mat.NewDense(NX_INS, NX_INS, nil),
	}

	// Prior standard deviations per error state
	p0 := [NX_INS]float64{
		0.035, 0.035, 0.035, // attitude [rad] (~2 deg)
		0.1, 0.1, 0.1, // velocity [m/s]
		3.0, 3.0, 3.0, // position [m]
		0.1, 0.1, 0.1, // accel bias [m/s^2]
		1e-3, 1e-3, 1e-3, // gyro bias [rad/s]
		10.0, 1.0, // clock bias [m], drift [m/s]
	}
	for j, s := range p0 {
		ins.P.Set(j, j, s*s)
	}

	// Default noise model (typical MEMS IMU, TCXO clock)
	ins.SetImuSpec(1e-4, 1e-3, 1e-7, 1e-5)
	ins.SetClockSpec(1e-21, 1e-22, 2e-23)

	return ins
}

// SetClock initializes the receiver clock bias [m] and drift [m/s].
func (ins *Ins) SetClock(cb, cd float64) {
	ins.Cb = cb
	ins.Cd = cd
}

// SetClockSpec configures the power-law clock noise model from Allan
// variance h-parameters. The flicker term h1 has no exact state-space
// equivalent and is neglected; h0 drives the bias state and h2 the drift
// state.
func (ins *Ins) SetClockSpec(h0, h1, h2 float64) {
	_ = h1
	ins.sb = C * C * h0 / 2.0
	ins.sd = C * C * 2.0 * PI * PI * h2
}

// SetImuSpec configures the IMU noise model used to build process noise:
// bias random-walk intensities and white-noise densities for the
// accelerometer [m/s^2] and gyroscope [rad/s] triads.
func (ins *Ins) SetImuSpec(accBias, accNoise, gyrBias, gyrNoise float64) {
	ins.accBiasRW = accBias
	ins.accNoise = accNoise
	ins.gyrBiasRW = gyrBias
	ins.gyrNoise = gyrNoise
}

// SetCovariance replaces the error covariance. The matrix is copied.
func (ins *Ins) SetCovariance(P *mat.Dense) error {
	r, c := P.Dims()
	if r != NX_INS || c != NX_INS {
		return fmt.Errorf("invalid covariance size: %d x %d != %d x %d", r, c, NX_INS, NX_INS)
	}
	ins.P.Copy(P)
	return nil
}

// AccelBias returns the current accelerometer bias estimate [m/s^2].
func (ins *Ins) AccelBias() [3]float64 {
	return ins.ba
}

// GyroBias returns the current gyroscope bias estimate [rad/s].
func (ins *Ins) GyroBias() [3]float64 {
	return ins.bg
}

// Mechanize removes the estimated sensor biases from the raw sample and
// advances the kinematic state per the strapdown equations.
func (ins *Ins) Mechanize(wb, fb [3]float64, dt float64) error {
	wc, fc := ins.correctImu(wb, fb)
	return ins.Strapdown.Mechanize(wc, fc, dt)
}

func (ins *Ins) correctImu(wb, fb [3]float64) (wc, fc [3]float64) {
	for i := 0; i < 3; i++ {
		wc[i] = wb[i] - ins.bg[i]
		fc[i] = fb[i] - ins.ba[i]
	}
	return
}

// Propagate advances the error covariance through the linearized
// error-state dynamics: P <- Phi P Phi^T + Q with Phi = I + F dt. It reuses
// the Earth-rate and transport-rate terms cached by Mechanize so that both
// see identical values for the epoch.
func (ins *Ins) Propagate(wb, fb [3]float64, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("non-positive sample interval: %g", dt)
	}

	_, fc := ins.correctImu(wb, fb)
	F := ins.makeF(fc)

	// Phi = I + F dt
	Phi := mat.NewDense(NX_INS, NX_INS, nil)
	for j := 0; j < NX_INS; j++ {
		for k := 0; k < NX_INS; k++ {
			v := F.At(j, k) * dt
			if j == k {
				v += 1.0
			}
			Phi.Set(j, k, v)
		}
	}

	Q := ins.makeQ(dt)

	// P = Phi P Phi^T + Q
	var A, B mat.Dense
	A.Mul(Phi, ins.P)
	B.Mul(&A, Phi.T())
	B.Add(&B, Q)
	symmetrize(&B)
	ins.P.Copy(&B)

	if DBG_ >= 4 {
		PrintA("P after propagation ")
		PrintMat(ins.P)
	}

	return nil
}

// makeF builds the continuous-time error-state dynamics matrix from the
// mechanization terms of the current epoch (Earth rate, transport rate,
// curvature radii, gravity) and the bias-corrected specific force.
//
// The model is the standard local-navigation-frame error-state INS/GNSS
// model (Groves, 2nd ed., ch. 14) with position error expressed in meters
// NED. Second-order curvature terms in the velocity and position blocks and
// the horizontal gravity gradient are omitted; at inertial sample rates
// their contribution is far below the retained first-order terms.
func (ins *Ins) makeF(fb [3]float64) *mat.Dense {
	s := &ins.Strapdown
	F := mat.NewDense(NX_INS, NX_INS, nil)

	win := [3]float64{s.wIE[0] + s.wEN[0], s.wIE[1] + s.wEN[1], s.wIE[2] + s.wEN[2]}
	w2 := [3]float64{2.0*s.wIE[0] + s.wEN[0], 2.0*s.wIE[1] + s.wEN[1], 2.0*s.wIE[2] + s.wEN[2]}

	// Specific force in the local-level frame
	var fn [3]float64
	for i := 0; i < 3; i++ {
		fn[i] = s.CBL.At(i, 0)*fb[0] + s.CBL.At(i, 1)*fb[1] + s.CBL.At(i, 2)*fb[2]
	}

	// Attitude error dynamics
	setSkew(F, IX_ATT, IX_ATT, win, -1)
	F.Set(IX_ATT+0, IX_VEL+1, 1.0/s.he)
	F.Set(IX_ATT+1, IX_VEL+0, -1.0/s.hn)
	F.Set(IX_ATT+2, IX_VEL+1, -s.tL/s.he)
	F.Set(IX_ATT+0, IX_POS+0, -OmegaE*s.sL/s.hn)
	F.Set(IX_ATT+0, IX_POS+2, s.Ve/SQ(s.he))
	F.Set(IX_ATT+1, IX_POS+2, -s.Vn/SQ(s.hn))
	F.Set(IX_ATT+2, IX_POS+0, -(OmegaE*s.cL+s.Ve/(s.he*SQ(s.cL)))/s.hn)
	F.Set(IX_ATT+2, IX_POS+2, -s.Ve*s.tL/SQ(s.he))
	setBlock(F, IX_ATT, IX_BG, s.CBL, -1)

	// Velocity error dynamics
	setSkew(F, IX_VEL, IX_ATT, fn, -1)
	setSkew(F, IX_VEL, IX_VEL, w2, -1)
	F.Set(IX_VEL+2, IX_POS+2, 2.0*s.g0/Re)
	setBlock(F, IX_VEL, IX_BA, s.CBL, -1)

	// Position error dynamics
	for i := 0; i < 3; i++ {
		F.Set(IX_POS+i, IX_VEL+i, 1.0)
	}

	// Clock: bias integrates drift, both random walks
	F.Set(IX_CLK, IX_CLK+1, 1.0)

	return F
}

// makeQ builds the discrete process noise accumulated over dt:
// white-noise terms for attitude and velocity, velocity-position coupling,
// random-walk bias terms, and the standard two-state clock block.
func (ins *Ins) makeQ(dt float64) *mat.Dense {
	Q := mat.NewDense(NX_INS, NX_INS, nil)

	qa := SQ(ins.gyrNoise) * dt
	qv := SQ(ins.accNoise) * dt
	qr := SQ(ins.accNoise) * dt * dt * dt / 3.0
	qvr := SQ(ins.accNoise) * dt * dt / 2.0
	qba := SQ(ins.accBiasRW) * dt
	qbg := SQ(ins.gyrBiasRW) * dt

	for i := 0; i < 3; i++ {
		Q.Set(IX_ATT+i, IX_ATT+i, qa)
		Q.Set(IX_VEL+i, IX_VEL+i, qv)
		Q.Set(IX_POS+i, IX_POS+i, qr)
		Q.Set(IX_VEL+i, IX_POS+i, qvr)
		Q.Set(IX_POS+i, IX_VEL+i, qvr)
		Q.Set(IX_BA+i, IX_BA+i, qba)
		Q.Set(IX_BG+i, IX_BG+i, qbg)
	}

	Q.Set(IX_CLK, IX_CLK, ins.sb*dt+ins.sd*dt*dt*dt/3.0)
	Q.Set(IX_CLK, IX_CLK+1, ins.sd*dt*dt/2.0)
	Q.Set(IX_CLK+1, IX_CLK, ins.sd*dt*dt/2.0)
	Q.Set(IX_CLK+1, IX_CLK+1, ins.sd*dt)

	return Q
}

// GnssUpdate corrects the navigation state and covariance with one epoch of
// satellite observations. Predicted observables come from the same
// RangeAndRate primitive as GaussNewton.
//
// On a singular or near-singular innovation covariance the update is
// skipped entirely: the returned error is non-nil and state and covariance
// are left at their pre-update values.
func (ins *Ins) GnssUpdate(obs *Obs) error {
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("obs.Validate() failed, err=%v", err)
	}

	// Refresh cached curvature radii in case no Mechanize ran yet
	s := &ins.Strapdown
	s.updateLatTerms()

	// Current state in ECEF
	llh := PosLLH{Lat: s.Phi, Lon: s.Lam, Hei: s.Hgt}
	pos := llh.ToXYZ()
	vel := NedToEcefVec([3]float64{s.Vn, s.Ve, s.Vd}, &llh)

	n := obs.Len()
	nv := 2 * n

	// Observation Jacobian, innovation vector and measurement covariance
	H := mat.NewDense(nv, NX_INS, nil)
	dy := mat.NewVecDense(nv, nil)
	rdiag := make([]float64, nv)
	for i := 0; i < n; i++ {
		u, udot, psr, psrdot := RangeAndRate(pos, vel, ins.Cb, ins.Cd, obs.SvPos[i], obs.SvVel[i])
		uned := EcefToNedVec(u, &llh)
		udned := EcefToNedVec(udot, &llh)

		// Pseudorange row: position error and clock bias
		for k := 0; k < 3; k++ {
			H.Set(i, IX_POS+k, -uned[k])
		}
		H.Set(i, IX_CLK, 1.0)

		// Pseudorange-rate row: velocity error, line-of-sight rate and
		// clock drift
		for k := 0; k < 3; k++ {
			H.Set(n+i, IX_VEL+k, -uned[k])
			H.Set(n+i, IX_POS+k, -udned[k])
		}
		H.Set(n+i, IX_CLK+1, 1.0)

		dy.SetVec(i, obs.Psr[i]-psr)
		dy.SetVec(n+i, obs.PsrDot[i]-psrdot)
		rdiag[i] = obs.PsrVar[i]
		rdiag[n+i] = obs.PsrDotVar[i]
	}
	R := mat.NewDiagDense(nv, rdiag)

	// Innovation covariance S = H P H^T + R
	var HP, S mat.Dense
	HP.Mul(H, ins.P)
	S.Mul(&HP, H.T())
	S.Add(&S, R)

	// A singular S means the geometry cannot support a correction; skip
	// the update and leave the filter untouched
	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		PrintD(2, "\tGnssUpdate skipped, err= %s\n", err.Error())
		return fmt.Errorf("singular innovation covariance, err=%v", err)
	}

	// Kalman gain K = P H^T S^-1
	var PHt, K mat.Dense
	PHt.Mul(ins.P, H.T())
	K.Mul(&PHt, &Sinv)

	// Error-state estimate dx = K dy
	var dx mat.VecDense
	dx.MulVec(&K, dy)

	// Closed-loop correction: attitude by small-angle rotation, position
	// through the curvature radii, the rest additively
	psi := [3]float64{dx.AtVec(IX_ATT), dx.AtVec(IX_ATT + 1), dx.AtVec(IX_ATT + 2)}
	s.QBL = rotateQuat(s.QBL, psi)
	s.CBL = QuatToDCM(s.QBL)

	s.Vn += dx.AtVec(IX_VEL)
	s.Ve += dx.AtVec(IX_VEL + 1)
	s.Vd += dx.AtVec(IX_VEL + 2)

	s.Phi += dx.AtVec(IX_POS) / s.hn
	s.Lam += dx.AtVec(IX_POS+1) / (s.he * s.cL)
	s.Hgt -= dx.AtVec(IX_POS + 2)

	for i := 0; i < 3; i++ {
		ins.ba[i] += dx.AtVec(IX_BA + i)
		ins.bg[i] += dx.AtVec(IX_BG + i)
	}
	ins.Cb += dx.AtVec(IX_CLK)
	ins.Cd += dx.AtVec(IX_CLK + 1)

	// Joseph-form covariance update preserves symmetry and positive
	// semi-definiteness: P = (I-KH) P (I-KH)^T + K R K^T
	var KH mat.Dense
	KH.Mul(&K, H)
	IKH := mat.NewDense(NX_INS, NX_INS, nil)
	for j := 0; j < NX_INS; j++ {
		for k := 0; k < NX_INS; k++ {
			v := -KH.At(j, k)
			if j == k {
				v += 1.0
			}
			IKH.Set(j, k, v)
		}
	}
	var A, B, KR, KRKt mat.Dense
	A.Mul(IKH, ins.P)
	B.Mul(&A, IKH.T())
	KR.Mul(&K, R)
	KRKt.Mul(&KR, K.T())
	B.Add(&B, &KRKt)
	symmetrize(&B)
	ins.P.Copy(&B)

	if DBG_ >= 4 {
		PrintA("K ")
		PrintMat(&K)
		PrintA("P after update ")
		PrintMat(ins.P)
	}

	return nil
}

// setSkew writes sgn * skew(v) into the 3x3 block of F at (r, c).
func setSkew(F *mat.Dense, r, c int, v [3]float64, sgn float64) {
	F.Set(r+0, c+1, -sgn*v[2])
	F.Set(r+0, c+2, sgn*v[1])
	F.Set(r+1, c+0, sgn*v[2])
	F.Set(r+1, c+2, -sgn*v[0])
	F.Set(r+2, c+0, -sgn*v[1])
	F.Set(r+2, c+1, sgn*v[0])
}

// setBlock writes sgn * M into the 3x3 block of F at (r, c).
func setBlock(F *mat.Dense, r, c int, M *mat.Dense, sgn float64) {
	for j := 0; j < 3; j++ {
		for k := 0; k < 3; k++ {
			F.Set(r+j, c+k, sgn*M.At(j, k))
		}
	}
}

// symmetrize forces exact symmetry on a square matrix, averaging the
// off-diagonal pairs.
func symmetrize(M *mat.Dense) {
	n, _ := M.Dims()
	for j := 0; j < n; j++ {
		for k := j + 1; k < n; k++ {
			v := 0.5 * (M.At(j, k) + M.At(k, j))
			M.Set(j, k, v)
			M.Set(k, j, v)
		}
	}
}
