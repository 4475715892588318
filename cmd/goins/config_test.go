// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const minimalSats = `
sats:
  - { pos: [15600000, 7540000, 20140000], vel: [100, -200, 300] }
  - { pos: [18760000, 2750000, 18610000], vel: [-300, 100, 200] }
  - { pos: [17610000, 14630000, 13480000], vel: [200, 300, -100] }
  - { pos: [19170000, 610000, 18390000], vel: [-100, -300, 200] }
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(fn, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, minimalSats))
	assert.NoError(t, err)

	assert.Equal(t, 1e-4, cfg.Imu.AccelBias)
	assert.Equal(t, 1e-3, cfg.Imu.AccelNoise)
	assert.Equal(t, 1e-7, cfg.Imu.GyroBias)
	assert.Equal(t, 1e-5, cfg.Imu.GyroNoise)
	assert.Equal(t, 1e-21, cfg.Clock.H0)
	assert.Equal(t, 2e-23, cfg.Clock.H2)
	assert.Equal(t, 100.0, cfg.Rates.ImuHz)
	assert.Equal(t, 20, cfg.Rates.GnssEvery)
	assert.Equal(t, 5.48, cfg.Meas.PsrStd)
	assert.Equal(t, 0.1, cfg.Meas.PsrDotStd)
	assert.Equal(t, 30.0, cfg.Meas.PsrVar)
	assert.Equal(t, 0.01, cfg.Meas.PsrDotVar)
	assert.Len(t, cfg.Sats, 4)
}

func TestLoadConfigOverrides(t *testing.T) {
	body := `
imu:
  accel_bias: 2.0e-4
  gyro_noise: 3.0e-5
  sim_accel_bias: [0.01, -0.02, 0.03]
clock:
  h0: 2.0e-21
rates:
  imu_hz: 200
  gnss_every: 10
measurement:
  psr_std: 3.0
  psr_var: 9.0
` + minimalSats

	cfg, err := LoadConfig(writeTempConfig(t, body))
	assert.NoError(t, err)

	assert.Equal(t, 2.0e-4, cfg.Imu.AccelBias)
	assert.Equal(t, 3.0e-5, cfg.Imu.GyroNoise)
	assert.Equal(t, []float64{0.01, -0.02, 0.03}, cfg.Imu.SimAccelBias)
	assert.Equal(t, 2.0e-21, cfg.Clock.H0)
	assert.Equal(t, 200.0, cfg.Rates.ImuHz)
	assert.Equal(t, 10, cfg.Rates.GnssEvery)
	assert.Equal(t, 3.0, cfg.Meas.PsrStd)
	assert.Equal(t, 9.0, cfg.Meas.PsrVar)

	// Untouched fields still get defaults
	assert.Equal(t, 1e-3, cfg.Imu.AccelNoise)
	assert.Equal(t, 0.1, cfg.Meas.PsrDotStd)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYaml(t *testing.T) {
	_, err := LoadConfig(writeTempConfig(t, "rates: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoadConfigTooFewSats(t *testing.T) {
	body := `
sats:
  - { pos: [15600000, 7540000, 20140000], vel: [100, -200, 300] }
`
	_, err := LoadConfig(writeTempConfig(t, body))
	assert.Error(t, err)
}

func TestLoadConfigBadSatVector(t *testing.T) {
	body := `
sats:
  - { pos: [15600000, 7540000], vel: [100, -200, 300] }
  - { pos: [18760000, 2750000, 18610000], vel: [-300, 100, 200] }
  - { pos: [17610000, 14630000, 13480000], vel: [200, 300, -100] }
  - { pos: [19170000, 610000, 18390000], vel: [-100, -300, 200] }
`
	_, err := LoadConfig(writeTempConfig(t, body))
	assert.Error(t, err)
}

func TestLoadConfigBadSimBias(t *testing.T) {
	body := `
imu:
  sim_gyro_bias: [0.001]
` + minimalSats
	_, err := LoadConfig(writeTempConfig(t, body))
	assert.Error(t, err)
}

func TestLoadConfigBadRates(t *testing.T) {
	body := `
rates:
  imu_hz: -100
` + minimalSats
	_, err := LoadConfig(writeTempConfig(t, body))
	assert.Error(t, err)
}
