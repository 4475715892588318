// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

package goins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeAndRateStatic(t *testing.T) {
	pos := PosXYZ{X: Re, Y: 0, Z: 0}
	sat := PosXYZ{X: Re + 2.0e7, Y: 0, Z: 0}
	cb, cd := 1234.5, 6.7

	u, udot, psr, psrdot := RangeAndRate(pos, PosXYZ{}, cb, cd, sat, PosXYZ{})

	assert.InDelta(t, 2.0e7+cb, psr, 1e-6)
	assert.InDelta(t, cd, psrdot, 1e-9)
	assert.InDelta(t, 1.0, u.X, 1e-12)
	assert.InDelta(t, 0.0, u.Y, 1e-12)
	assert.InDelta(t, 0.0, u.Z, 1e-12)
	assert.InDelta(t, 0.0, udot.X, 1e-15)
	assert.InDelta(t, 0.0, udot.Y, 1e-15)
	assert.InDelta(t, 0.0, udot.Z, 1e-15)
}

func TestRangeAndRateClosingVelocity(t *testing.T) {
	pos := PosXYZ{X: Re, Y: 0, Z: 0}
	sat := PosXYZ{X: Re + 2.0e7, Y: 0, Z: 0}

	// User moving straight at the satellite: range rate is -speed
	vel := PosXYZ{X: 250, Y: 0, Z: 0}
	_, _, _, psrdot := RangeAndRate(pos, vel, 0, 0, sat, PosXYZ{})
	assert.InDelta(t, -250.0, psrdot, 1e-9)

	// Satellite receding at 800 m/s on the same line
	_, _, _, psrdot = RangeAndRate(pos, vel, 0, 0, sat, PosXYZ{X: 800})
	assert.InDelta(t, 550.0, psrdot, 1e-9)
}

func TestRangeAndRateLosGeometry(t *testing.T) {
	pos := PosXYZ{X: -3.96e6, Y: 3.3e6, Z: 3.7e6}
	vel := PosXYZ{X: 12, Y: -7, Z: 3}
	sat := PosXYZ{X: 1.2e7, Y: -8.0e6, Z: 2.2e7}
	svv := PosXYZ{X: -2200, Y: 1500, Z: 900}

	u, udot, psr, _ := RangeAndRate(pos, vel, 0, 0, sat, svv)

	// u is unit length and points at the satellite
	assert.InDelta(t, 1.0, u.X*u.X+u.Y*u.Y+u.Z*u.Z, 1e-12)
	r := EucDist(&sat, &pos)
	assert.InDelta(t, r, psr, 1e-6)
	assert.InDelta(t, (sat.X-pos.X)/r, u.X, 1e-12)

	// udot is perpendicular to u: a unit vector only changes direction
	assert.InDelta(t, 0.0, u.X*udot.X+u.Y*udot.Y+u.Z*udot.Z, 1e-15)
}
