// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

// Fixed-layout binary records for truth trajectories and filter results.
// These are post-processing artifacts, little-endian float64 throughout.

package goins

import (
	"encoding/binary"
	"io"
)

// TruthRecord is one sample of a reference trajectory with the inertial
// measurements that produced it. Angles are in degrees, IMU samples in the
// body frame.
type TruthRecord struct {
	Lat   float64 // Latitude [deg]
	Lon   float64 // Longitude [deg]
	Hgt   float64 // Ellipsoidal height [m]
	Vn    float64 // North velocity [m/s]
	Ve    float64 // East velocity [m/s]
	Vd    float64 // Down velocity [m/s]
	Roll  float64 // [deg]
	Pitch float64 // [deg]
	Yaw   float64 // [deg]
	Fx    float64 // Specific force [m/s^2]
	Fy    float64
	Fz    float64
	Wx    float64 // Angular rate [rad/s]
	Wy    float64
	Wz    float64
}

// ResultRecord is one epoch of estimated navigation state. Angles are in
// degrees, clock terms in distance units.
type ResultRecord struct {
	T     float64 // Time since start [s]
	Lat   float64 // Latitude [deg]
	Lon   float64 // Longitude [deg]
	Hgt   float64 // Ellipsoidal height [m]
	Vn    float64 // North velocity [m/s]
	Ve    float64 // East velocity [m/s]
	Vd    float64 // Down velocity [m/s]
	Roll  float64 // [deg]
	Pitch float64 // [deg]
	Yaw   float64 // [deg]
	Cb    float64 // Clock bias [m]
	Cd    float64 // Clock drift [m/s]
}

// ReadTruthRecord reads the next truth sample. io.EOF marks the end of the
// file.
func ReadTruthRecord(r io.Reader, rec *TruthRecord) error {
	return binary.Read(r, binary.LittleEndian, rec)
}

// WriteTruthRecord appends one truth sample.
func WriteTruthRecord(w io.Writer, rec *TruthRecord) error {
	return binary.Write(w, binary.LittleEndian, rec)
}

// ReadResultRecord reads the next result epoch. io.EOF marks the end of
// the file.
func ReadResultRecord(r io.Reader, rec *ResultRecord) error {
	return binary.Read(r, binary.LittleEndian, rec)
}

// WriteResultRecord appends one result epoch.
func WriteResultRecord(w io.Writer, rec *ResultRecord) error {
	return binary.Write(w, binary.LittleEndian, rec)
}
