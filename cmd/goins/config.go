// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package main

import (
	"fmt"
	"os"

	m "github.com/mkhts/goins"
	"gopkg.in/yaml.v3"
)

// Config is the processing configuration for a replay run: the filter noise
// models, the replay cadence and the synthetic measurement setup.
type Config struct {
	Imu   ImuConfig   `yaml:"imu"`
	Clock ClockConfig `yaml:"clock"`
	Rates RatesConfig `yaml:"rates"`
	Meas  MeasConfig  `yaml:"measurement"`
	Sats  []SatConfig `yaml:"sats"`
}

// ImuConfig holds the IMU error model passed to Ins.SetImuSpec, plus the
// simulated sensor errors applied to the replayed truth samples.
type ImuConfig struct {
	AccelBias  float64 `yaml:"accel_bias"`  // [m/s^2/sqrt(s)]
	AccelNoise float64 `yaml:"accel_noise"` // [m/s^2/sqrt(Hz)]
	GyroBias   float64 `yaml:"gyro_bias"`   // [rad/s/sqrt(s)]
	GyroNoise  float64 `yaml:"gyro_noise"`  // [rad/s/sqrt(Hz)]

	SimAccelBias []float64 `yaml:"sim_accel_bias"` // Constant bias added to fb [m/s^2]
	SimGyroBias  []float64 `yaml:"sim_gyro_bias"`  // Constant bias added to wb [rad/s]
}

// ClockConfig holds the Allan-variance h-parameters of the receiver clock.
type ClockConfig struct {
	H0 float64 `yaml:"h0"`
	H1 float64 `yaml:"h1"`
	H2 float64 `yaml:"h2"`
}

// RatesConfig sets the replay cadence.
type RatesConfig struct {
	ImuHz     float64 `yaml:"imu_hz"`     // Inertial sample rate [Hz]
	GnssEvery int     `yaml:"gnss_every"` // Measurement update every N inertial samples
}

// MeasConfig sets the synthetic measurement noise and the variances handed
// to the filter.
type MeasConfig struct {
	PsrStd    float64 `yaml:"psr_std"`    // Synthetic pseudorange noise [m]
	PsrDotStd float64 `yaml:"psrdot_std"` // Synthetic pseudorange-rate noise [m/s]
	PsrVar    float64 `yaml:"psr_var"`    // Variance given to the filter [m^2]
	PsrDotVar float64 `yaml:"psrdot_var"` // Variance given to the filter [(m/s)^2]
}

// SatConfig is one satellite of the synthetic constellation (ECEF).
type SatConfig struct {
	Pos []float64 `yaml:"pos"` // [m]
	Vel []float64 `yaml:"vel"` // [m/s]
}

// LoadConfig reads and validates a YAML processing configuration, applying
// defaults for omitted fields.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	// Defaults
	if cfg.Imu.AccelBias == 0 {
		cfg.Imu.AccelBias = 1e-4
	}
	if cfg.Imu.AccelNoise == 0 {
		cfg.Imu.AccelNoise = 1e-3
	}
	if cfg.Imu.GyroBias == 0 {
		cfg.Imu.GyroBias = 1e-7
	}
	if cfg.Imu.GyroNoise == 0 {
		cfg.Imu.GyroNoise = 1e-5
	}
	if cfg.Clock.H0 == 0 {
		cfg.Clock.H0 = 1e-21
	}
	if cfg.Clock.H2 == 0 {
		cfg.Clock.H2 = 2e-23
	}
	if cfg.Rates.ImuHz == 0 {
		cfg.Rates.ImuHz = 100
	}
	if cfg.Rates.GnssEvery == 0 {
		cfg.Rates.GnssEvery = 20
	}
	if cfg.Meas.PsrStd == 0 {
		cfg.Meas.PsrStd = 5.48
	}
	if cfg.Meas.PsrDotStd == 0 {
		cfg.Meas.PsrDotStd = 0.1
	}
	if cfg.Meas.PsrVar == 0 {
		cfg.Meas.PsrVar = 30.0
	}
	if cfg.Meas.PsrDotVar == 0 {
		cfg.Meas.PsrDotVar = 0.01
	}

	// Validation
	if cfg.Rates.ImuHz <= 0 {
		return Config{}, fmt.Errorf("rates.imu_hz must be positive")
	}
	if cfg.Rates.GnssEvery < 1 {
		return Config{}, fmt.Errorf("rates.gnss_every must be >= 1")
	}
	if len(cfg.Sats) < m.MIN_SATS {
		return Config{}, fmt.Errorf("need at least %d sats, got %d", m.MIN_SATS, len(cfg.Sats))
	}
	for i, sv := range cfg.Sats {
		if len(sv.Pos) != 3 || len(sv.Vel) != 3 {
			return Config{}, fmt.Errorf("sats[%d]: pos and vel must have 3 components", i)
		}
	}
	if b := cfg.Imu.SimAccelBias; len(b) != 0 && len(b) != 3 {
		return Config{}, fmt.Errorf("imu.sim_accel_bias must have 3 components")
	}
	if b := cfg.Imu.SimGyroBias; len(b) != 0 && len(b) != 3 {
		return Config{}, fmt.Errorf("imu.sim_gyro_bias must have 3 components")
	}

	return cfg, nil
}
