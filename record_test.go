// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

package goins

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthRecordStream(t *testing.T) {
	var buf bytes.Buffer

	recs := []TruthRecord{
		{Lat: 35.0, Lon: 140.0, Hgt: 100.0, Vn: 1.5, Ve: -0.5, Vd: 0.01,
			Roll: 0.1, Pitch: -0.2, Yaw: 45.0,
			Fx: 0.01, Fy: -0.02, Fz: -9.8, Wx: 1e-4, Wy: -2e-4, Wz: 0.05},
		{Lat: 35.0001, Lon: 140.0001, Hgt: 100.1},
	}
	for i := range recs {
		assert.NoError(t, WriteTruthRecord(&buf, &recs[i]))
	}

	var got TruthRecord
	for i := range recs {
		assert.NoError(t, ReadTruthRecord(&buf, &got))
		assert.Equal(t, recs[i], got)
	}
	assert.Equal(t, io.EOF, ReadTruthRecord(&buf, &got))
}

func TestResultRecordStream(t *testing.T) {
	var buf bytes.Buffer

	rec := ResultRecord{T: 12.5, Lat: 35.0, Lon: 140.0, Hgt: 99.7,
		Vn: 1.49, Ve: -0.48, Vd: 0.02, Roll: 0.09, Pitch: -0.21, Yaw: 44.8,
		Cb: 123.4, Cd: 1.02}
	assert.NoError(t, WriteResultRecord(&buf, &rec))

	// 12 float64 fields
	assert.Equal(t, 12*8, buf.Len())

	var got ResultRecord
	assert.NoError(t, ReadResultRecord(&buf, &got))
	assert.Equal(t, rec, got)
	assert.Equal(t, io.EOF, ReadResultRecord(&buf, &got))
}

func TestTruthRecordTruncated(t *testing.T) {
	var buf bytes.Buffer
	rec := TruthRecord{Lat: 35.0}
	assert.NoError(t, WriteTruthRecord(&buf, &rec))
	buf.Truncate(buf.Len() - 8)

	var got TruthRecord
	err := ReadTruthRecord(&buf, &got)
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
