// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package goins

// RangeAndRate predicts the pseudorange and pseudorange-rate from a user
// state to one satellite. It is the single geometric primitive shared by
// GaussNewton and Ins.GnssUpdate so both linearize against identical values.
//
// Parameters:
//   - pos: user ECEF position [m]
//   - vel: user ECEF velocity [m/s]
//   - cb: user clock bias [m]
//   - cd: user clock drift [m/s]
//   - svPos: satellite ECEF position [m]
//   - svVel: satellite ECEF velocity [m/s]
//
// Returns:
//   - u: unit line-of-sight vector from user to satellite
//   - udot: rate of change of the line-of-sight unit vector [1/s]
//   - psr: predicted pseudorange [m]
//   - psrdot: predicted pseudorange-rate [m/s]
func RangeAndRate(pos, vel PosXYZ, cb, cd float64, svPos, svVel PosXYZ) (u, udot PosXYZ, psr, psrdot float64) {
	r := EucDist(&svPos, &pos)
	u = PosXYZ{
		X: (svPos.X - pos.X) / r,
		Y: (svPos.Y - pos.Y) / r,
		Z: (svPos.Z - pos.Z) / r,
	}
	psr = r + cb

	dvx := svVel.X - vel.X
	dvy := svVel.Y - vel.Y
	dvz := svVel.Z - vel.Z
	rdot := u.X*dvx + u.Y*dvy + u.Z*dvz
	psrdot = rdot + cd

	udot = PosXYZ{
		X: (dvx - u.X*rdot) / r,
		Y: (dvy - u.Y*rdot) / r,
		Z: (dvz - u.Z*rdot) / r,
	}
	return
}
