// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

// Implements the iterative weighted nonlinear least squares solver used to
// cold-start the navigation filter from raw satellite observables.

package goins

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Calculation constants for the Gauss-Newton solver
const (
	MAX_LOOP_COUNT        = 10   // Maximum number of iteration loops
	CONVERGENCE_THRESHOLD = 1e-6 // Convergence threshold for the correction norm
)

// Number of solved states: position (3), clock bias (1), velocity (3),
// clock drift (1)
const NX_LSQ = 8

// GaussNewton solves for user ECEF position, velocity, clock bias and clock
// drift that best explain one epoch of pseudorange and pseudorange-rate
// observations, by iterative weighted least squares.
//
// Parameters:
//   - x: state vector [x y z cb vx vy vz cd], holds the initial guess and is
//     updated in place
//   - P: 8x8 estimation error covariance, overwritten with (G^T W G)^-1 on
//     success
//   - obs: single epoch observation set
//
// A non-nil error means the solver did not converge (iteration cap reached
// or singular normal equations from poor geometry); x and P must not be
// trusted in that case.
func GaussNewton(x *mat.VecDense, P *mat.Dense, obs *Obs) error {

	if x.Len() != NX_LSQ {
		return fmt.Errorf("invalid state size: %d != %d", x.Len(), NX_LSQ)
	}
	if r, c := P.Dims(); r != NX_LSQ || c != NX_LSQ {
		return fmt.Errorf("invalid covariance size: %d x %d", r, c)
	}
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("obs.Validate() failed, err=%v", err)
	}

	n := obs.Len()
	nv := 2 * n

	// Design matrix, residual vector and weights (weights are fixed by the
	// measurement variances, so they are built once)
	G := mat.NewDense(nv, NX_LSQ, nil)
	dr := mat.NewVecDense(nv, nil)
	w := make([]float64, nv)
	for i := 0; i < n; i++ {
		w[i] = 1.0 / obs.PsrVar[i]
		w[n+i] = 1.0 / obs.PsrDotVar[i]
	}
	W := mat.NewDiagDense(nv, w)

	// Solve observation equations iteratively
	for loop := 0; loop < MAX_LOOP_COUNT; loop++ {

		PrintD(3, "\t--- LOOP: %d ---\n", loop+1)

		pos := PosXYZ{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
		vel := PosXYZ{X: x.AtVec(4), Y: x.AtVec(5), Z: x.AtVec(6)}
		cb := x.AtVec(3)
		cd := x.AtVec(7)

		// Set design matrix and residual vector for each satellite
		for i := 0; i < n; i++ {
			u, udot, psr, psrdot := RangeAndRate(pos, vel, cb, cd, obs.SvPos[i], obs.SvVel[i])

			// Pseudorange row: line-of-sight partials and clock bias
			G.Set(i, 0, -u.X)
			G.Set(i, 1, -u.Y)
			G.Set(i, 2, -u.Z)
			G.Set(i, 3, 1)

			// Pseudorange-rate row: line-of-sight rate partials for
			// position, line-of-sight partials for velocity, clock drift
			G.Set(n+i, 0, -udot.X)
			G.Set(n+i, 1, -udot.Y)
			G.Set(n+i, 2, -udot.Z)
			G.Set(n+i, 4, -u.X)
			G.Set(n+i, 5, -u.Y)
			G.Set(n+i, 6, -u.Z)
			G.Set(n+i, 7, 1)

			dr.SetVec(i, obs.Psr[i]-psr)
			dr.SetVec(n+i, obs.PsrDot[i]-psrdot)
		}

		// Solve the weighted normal equations for the state correction
		dx, cov, err := SolveLS(G, dr, W)
		if err != nil {
			PrintD(2, "\tSolveLS() failed., err= %s\n", err.Error())
			return fmt.Errorf("SolveLS() failed, err=%v", err)
		}

		// Apply the correction
		for j := 0; j < NX_LSQ; j++ {
			x.SetVec(j, x.AtVec(j)+dx.AtVec(j))
		}

		if DBG_ >= 2 {
			xyz := NewPosXYZ(x.AtVec(0), x.AtVec(1), x.AtVec(2))
			llh := xyz.ToLLH()
			PrintA("\tLOOP %d: LLH= %.9f %.9f %.4f, cb=%.3f, cd=%.4f, |dx|=%g\n",
				loop+1, ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei, x.AtVec(3), x.AtVec(7), mat.Norm(dx, 2))
		}

		// Check convergence
		if mat.Norm(dx, 2) < CONVERGENCE_THRESHOLD {
			P.Copy(cov)
			return nil
		}
	}

	return fmt.Errorf("number of loop reached max: %d", MAX_LOOP_COUNT)
}

// Dop computes dilution of precision values ('gdop', 'pdop', 'hdop',
// 'vdop') for an observation geometry as seen from the given user position.
func Dop(user PosXYZ, obs *Obs) (map[string]float64, error) {
	n := obs.Len()
	llh := user.ToLLH()

	// Unweighted position/clock design matrix in the NED frame
	G := mat.NewDense(n, 4, nil)
	for i := 0; i < n; i++ {
		u, _, _, _ := RangeAndRate(user, PosXYZ{}, 0, 0, obs.SvPos[i], obs.SvVel[i])
		uned := EcefToNedVec(u, &llh)
		G.Set(i, 0, -uned[0])
		G.Set(i, 1, -uned[1])
		G.Set(i, 2, -uned[2])
		G.Set(i, 3, 1)
	}

	var GtG mat.Dense
	GtG.Mul(G.T(), G)
	var cov mat.Dense
	if err := cov.Inverse(&GtG); err != nil {
		return nil, fmt.Errorf("failed to calculate inverse of matrix, G^T G")
	}
	return map[string]float64{
		"gdop": math.Sqrt(cov.At(0, 0) + cov.At(1, 1) + cov.At(2, 2) + cov.At(3, 3)),
		"pdop": math.Sqrt(cov.At(0, 0) + cov.At(1, 1) + cov.At(2, 2)),
		"hdop": math.Sqrt(cov.At(0, 0) + cov.At(1, 1)),
		"vdop": math.Sqrt(cov.At(2, 2)),
	}, nil
}
