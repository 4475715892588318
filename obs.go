// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package goins

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Minimum number of satellites for a 3D position + clock fix
const MIN_SATS = 4

// Obs is one epoch of satellite ranging observables. Satellite positions
// and velocities arrive already computed (ephemeris handling is outside
// this package). Observations are transient: built per epoch, consumed by
// GaussNewton or Ins.GnssUpdate, then discarded.
type Obs struct {
	SvPos     []PosXYZ  // Satellite ECEF positions [m]
	SvVel     []PosXYZ  // Satellite ECEF velocities [m/s]
	Psr       []float64 // Measured pseudoranges [m]
	PsrDot    []float64 // Measured pseudorange-rates [m/s]
	PsrVar    []float64 // Pseudorange measurement variances [m^2]
	PsrDotVar []float64 // Pseudorange-rate measurement variances [(m/s)^2]
}

// NewObs allocates an epoch observation set for n satellites.
func NewObs(n int) *Obs {
	return &Obs{
		SvPos:     make([]PosXYZ, 0, n),
		SvVel:     make([]PosXYZ, 0, n),
		Psr:       make([]float64, 0, n),
		PsrDot:    make([]float64, 0, n),
		PsrVar:    make([]float64, 0, n),
		PsrDotVar: make([]float64, 0, n),
	}
}

// Append adds one satellite's observables to the epoch.
func (o *Obs) Append(svPos, svVel PosXYZ, psr, psrdot, psrVar, psrdotVar float64) {
	o.SvPos = append(o.SvPos, svPos)
	o.SvVel = append(o.SvVel, svVel)
	o.Psr = append(o.Psr, psr)
	o.PsrDot = append(o.PsrDot, psrdot)
	o.PsrVar = append(o.PsrVar, psrVar)
	o.PsrDotVar = append(o.PsrDotVar, psrdotVar)
}

func (o *Obs) Len() int {
	return len(o.SvPos)
}

// Validate checks the observation set for mismatched slice lengths and a
// usable satellite count. Length mismatch is a caller defect and fatal to
// the epoch.
func (o *Obs) Validate() error {
	n := len(o.SvPos)
	if len(o.SvVel) != n || len(o.Psr) != n || len(o.PsrDot) != n ||
		len(o.PsrVar) != n || len(o.PsrDotVar) != n {
		return fmt.Errorf("mismatched observation lengths: pos=%d, vel=%d, psr=%d, psrdot=%d, psrvar=%d, psrdotvar=%d",
			n, len(o.SvVel), len(o.Psr), len(o.PsrDot), len(o.PsrVar), len(o.PsrDotVar))
	}
	if n < MIN_SATS {
		return fmt.Errorf("not enough satellites: %d < %d", n, MIN_SATS)
	}
	return nil
}

// Exclude returns a copy of the epoch without the satellites at the given
// indices.
func (o *Obs) Exclude(xs []int) *Obs {
	o2 := NewObs(o.Len())
	for i := range o.SvPos {
		if slices.Contains(xs, i) {
			PrintD(3, "\tsv %d: excluded\n", i)
			continue
		}
		o2.Append(o.SvPos[i], o.SvVel[i], o.Psr[i], o.PsrDot[i], o.PsrVar[i], o.PsrDotVar[i])
	}
	return o2
}

// MaskElevation returns a copy of the epoch without satellites below the
// elevation mask [deg] as seen from the given user ECEF position.
func (o *Obs) MaskElevation(user PosXYZ, elMaskDeg float64) *Obs {
	if elMaskDeg <= 0 {
		return o
	}
	xs := []int{}
	for i := range o.SvPos {
		elv := ToDeg(user.Elevation(o.SvPos[i]))
		if elv < elMaskDeg {
			PrintD(3, "\tsv %d: elev=%f < %f\n", i, elv, elMaskDeg)
			xs = append(xs, i)
		}
	}
	if len(xs) == 0 {
		return o
	}
	return o.Exclude(xs)
}
