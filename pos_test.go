// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

package goins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLHToXYZRoundTrip(t *testing.T) {
	cases := []PosLLH{
		{Lat: tstLat, Lon: tstLon, Hei: tstAlt},
		{Lat: ToRad(-33.5), Lon: ToRad(-70.7), Hei: 520},
		{Lat: ToRad(0.0), Lon: ToRad(0.0), Hei: 0},
		{Lat: ToRad(65.0), Lon: ToRad(-18.0), Hei: -30},
	}
	for _, llh := range cases {
		xyz := llh.ToXYZ()
		got := xyz.ToLLH()
		assert.InDelta(t, llh.Lat, got.Lat, 1e-11)
		assert.InDelta(t, llh.Lon, got.Lon, 1e-11)
		assert.InDelta(t, llh.Hei, got.Hei, 1e-4)
	}
}

func TestXYZAtOrigin(t *testing.T) {
	xyz := PosXYZ{}
	llh := xyz.ToLLH()
	assert.Equal(t, -Re, llh.Hei)
}

func TestEquatorXYZ(t *testing.T) {
	llh := PosLLH{Lat: 0, Lon: 0, Hei: 0}
	xyz := llh.ToXYZ()
	assert.InDelta(t, Re, xyz.X, 1e-6)
	assert.InDelta(t, 0.0, xyz.Y, 1e-6)
	assert.InDelta(t, 0.0, xyz.Z, 1e-6)
}

func TestENURoundTrip(t *testing.T) {
	base := NewPosLLH(tstLat, tstLon, tstAlt).ToXYZ()
	enu := NewPosENU(1200, -800, 50)

	xyz := enu.ToXYZ(base)
	got := xyz.ToENU(base)
	assert.InDelta(t, enu.E, got.E, 1e-6)
	assert.InDelta(t, enu.N, got.N, 1e-6)
	assert.InDelta(t, enu.U, got.U, 1e-6)
}

func TestElevationAzimuth(t *testing.T) {
	base := NewPosLLH(tstLat, tstLon, tstAlt).ToXYZ()

	// Due east, 45 deg up
	enu := PosENU{E: 1e6, N: 0, U: 1e6}
	sat := enu.ToXYZ(base)
	assert.InDelta(t, ToRad(45), base.Elevation(sat), 1e-6)
	assert.InDelta(t, ToRad(90), base.Azimuth(sat), 1e-6)

	// Due north on the horizon
	enu = PosENU{E: 0, N: 1e6, U: 0}
	sat = enu.ToXYZ(base)
	assert.InDelta(t, 0.0, base.Elevation(sat), 1e-6)
	assert.InDelta(t, 0.0, base.Azimuth(sat), 1e-6)
}

func TestNedEcefVecRoundTrip(t *testing.T) {
	llh := NewPosLLH(tstLat, tstLon, tstAlt)
	v := [3]float64{12.5, -3.25, 0.75}

	xyz := NedToEcefVec(v, llh)
	got := EcefToNedVec(xyz, llh)
	assert.InDelta(t, v[0], got[0], 1e-12)
	assert.InDelta(t, v[1], got[1], 1e-12)
	assert.InDelta(t, v[2], got[2], 1e-12)

	// Rotation preserves length
	n1 := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	n2 := math.Sqrt(xyz.X*xyz.X + xyz.Y*xyz.Y + xyz.Z*xyz.Z)
	assert.InDelta(t, n1, n2, 1e-12)
}

func TestNedToEcefVecUpIsRadial(t *testing.T) {
	// A pure down vector at the equator points along -X in ECEF
	llh := NewPosLLH(0, 0, 0)
	xyz := NedToEcefVec([3]float64{0, 0, 1}, llh)
	assert.InDelta(t, -1.0, xyz.X, 1e-12)
	assert.InDelta(t, 0.0, xyz.Y, 1e-12)
	assert.InDelta(t, 0.0, xyz.Z, 1e-12)

	// A pure north vector at the equator points along +Z
	xyz = NedToEcefVec([3]float64{1, 0, 0}, llh)
	assert.InDelta(t, 0.0, xyz.X, 1e-12)
	assert.InDelta(t, 1.0, xyz.Z, 1e-12)
}

func TestPosLLHSet(t *testing.T) {
	var llh PosLLH
	assert.NoError(t, llh.Set("35.0 140.0 100.0"))
	assert.InDelta(t, ToRad(35.0), llh.Lat, 1e-12)
	assert.InDelta(t, ToRad(140.0), llh.Lon, 1e-12)
	assert.Equal(t, 100.0, llh.Hei)

	assert.Error(t, llh.Set("35.0 140.0"))
	assert.Error(t, llh.Set("abc 140.0 100.0"))
}
