// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

// Replays a recorded truth trajectory through the GNSS/INS filter:
// inertial samples drive mechanization and covariance propagation at the
// IMU rate, and synthetic satellite observables generated from the truth
// state trigger measurement updates at the configured cadence.

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	m "github.com/mkhts/goins"
	"gonum.org/v1/gonum/mat"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

type cmdOpt struct {
	cfgFn    string
	truthFn  string
	resultFn string
	exSats   idxVar
	elMask   float64
	cold     bool
	seed     int64
	quiet    bool
}

// Parse command line arguments
func parseArgs() (cmdOpt, error) {
	var a cmdOpt
	var dbg int

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] -c config.yaml -i truth.bin\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&a.cfgFn, "c", "", "Processing configuration file (YAML).")
	flag.StringVar(&a.truthFn, "i", "", "Input truth trajectory file (binary records).")
	flag.StringVar(&a.resultFn, "o", "", "Output result file path. If not specified, no binary output is written.")
	flag.Var(&a.exSats, "ex", "List of satellite indices to exclude. Comma-separated without spaces like 1,3.")
	flag.Float64Var(&a.elMask, "m", 0, "Elevation mask [deg]. Set to 0 for no mask.")
	flag.BoolVar(&a.cold, "cold", false, "Cold start: initialize position/velocity/clock from a Gauss-Newton fix instead of the first truth record.")
	flag.Int64Var(&a.seed, "seed", 1, "Seed for the synthetic measurement noise.")
	flag.BoolVar(&a.quiet, "q", false, "Do not print the text solution stream to stdout.")
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()

	m.DBG_ = dbg

	if a.cfgFn == "" || a.truthFn == "" {
		return a, fmt.Errorf("both -c and -i are required")
	}
	return a, nil
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Load configuration
	cfg, err := LoadConfig(args.cfgFn)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Open input file
	fin, err := os.Open(args.truthFn)
	if err != nil {
		return fmt.Errorf("failed to open truth file: %w", err)
	}
	defer fin.Close()

	// Prepare output file
	var fout *os.File
	if args.resultFn != "" {
		fout, err = os.Create(args.resultFn)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer fout.Close()
	}

	return processEpochs(args, cfg, fin, fout)
}

// Process all truth samples
func processEpochs(args cmdOpt, cfg Config, fin io.Reader, fout io.Writer) error {

	filt := m.NewIns()
	filt.SetImuSpec(cfg.Imu.AccelBias, cfg.Imu.AccelNoise, cfg.Imu.GyroBias, cfg.Imu.GyroNoise)
	filt.SetClockSpec(cfg.Clock.H0, cfg.Clock.H1, cfg.Clock.H2)

	sim := newGnssSim(cfg, args.seed)
	dt := 1.0 / cfg.Rates.ImuHz

	var rec m.TruthRecord
	i := 0
	t := 0.0
	for {
		if err := m.ReadTruthRecord(fin, &rec); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read truth record %d: %w", i, err)
		}

		// Initialize the filter from the first sample
		if i == 0 {
			if err := initFilter(filt, &rec, sim, args.cold); err != nil {
				return fmt.Errorf("initFilter() failed, err=%w", err)
			}
		}

		// Simulated sensor errors on the replayed IMU sample
		wb, fb := sim.imuSample(&rec, dt)

		// Simulated receiver clock
		sim.clockStep(dt)

		// Propagate filter
		if err := filt.Mechanize(wb, fb, dt); err != nil {
			return fmt.Errorf("Mechanize() failed at t=%.3f, err=%w", t, err)
		}
		if err := filt.Propagate(wb, fb, dt); err != nil {
			return fmt.Errorf("Propagate() failed at t=%.3f, err=%w", t, err)
		}

		// Measurement update at the GNSS cadence
		if i%cfg.Rates.GnssEvery == 0 {
			obs := sim.observe(&rec)

			// Apply elevation mask and manual exclusions
			llh := m.NewPosLLH(m.ToRad(rec.Lat), m.ToRad(rec.Lon), rec.Hgt)
			obs = obs.MaskElevation(llh.ToXYZ(), args.elMask)
			if len(args.exSats) > 0 {
				obs = obs.Exclude(args.exSats)
			}

			if err := filt.GnssUpdate(obs); err != nil {
				// Skipped update: filter state is untouched, keep going
				m.PrintD(1, "t=%.3f: GnssUpdate() skipped, err=%v\n", t, err)
			}

			if err := writeResult(fout, filt, t); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			if !args.quiet {
				printSol(filt, &rec, t)
			}
		}

		t += dt
		i++
	}

	m.PrintD(1, "processed %d samples (%.1f s)\n", i, t)
	return nil
}

// Initialize filter state from the first truth record, or from a
// Gauss-Newton fix on the first synthetic measurement epoch
func initFilter(filt *m.Ins, rec *m.TruthRecord, sim *gnssSim, cold bool) error {

	// Attitude always comes from the record: ranging observables cannot
	// observe it
	filt.SetAttitude(m.ToRad(rec.Roll), m.ToRad(rec.Pitch), m.ToRad(rec.Yaw))

	if !cold {
		filt.SetPosition(m.ToRad(rec.Lat), m.ToRad(rec.Lon), rec.Hgt)
		filt.SetVelocity(rec.Vn, rec.Ve, rec.Vd)
		filt.SetClock(sim.cb, sim.cd)
		return nil
	}

	// Cold start: solve position, velocity and clock from one epoch
	obs := sim.observe(rec)
	x := mat.NewVecDense(m.NX_LSQ, nil)
	P := mat.NewDense(m.NX_LSQ, m.NX_LSQ, nil)
	if err := m.GaussNewton(x, P, obs); err != nil {
		return fmt.Errorf("GaussNewton() failed, err=%w", err)
	}

	xyz := m.NewPosXYZ(x.AtVec(0), x.AtVec(1), x.AtVec(2))
	llh := xyz.ToLLH()
	vned := m.EcefToNedVec(m.PosXYZ{X: x.AtVec(4), Y: x.AtVec(5), Z: x.AtVec(6)}, &llh)
	filt.SetPosition(llh.Lat, llh.Lon, llh.Hei)
	filt.SetVelocity(vned[0], vned[1], vned[2])
	filt.SetClock(x.AtVec(3), x.AtVec(7))

	m.PrintD(1, "cold start: LLH= %.8f %.8f %.3f, cb=%.3f, cd=%.4f\n",
		m.ToDeg(llh.Lat), m.ToDeg(llh.Lon), llh.Hei, x.AtVec(3), x.AtVec(7))
	return nil
}

// Write one binary result epoch
func writeResult(fout io.Writer, filt *m.Ins, t float64) error {
	if fout == nil {
		return nil
	}
	roll, pitch, yaw := filt.Attitude()
	return m.WriteResultRecord(fout, &m.ResultRecord{
		T:     t,
		Lat:   m.ToDeg(filt.Phi),
		Lon:   m.ToDeg(filt.Lam),
		Hgt:   filt.Hgt,
		Vn:    filt.Vn,
		Ve:    filt.Ve,
		Vd:    filt.Vd,
		Roll:  m.ToDeg(roll),
		Pitch: m.ToDeg(pitch),
		Yaw:   m.ToDeg(yaw),
		Cb:    filt.Cb,
		Cd:    filt.Cd,
	})
}

// Print one text solution line (estimate and truth)
func printSol(filt *m.Ins, rec *m.TruthRecord, t float64) {
	fmt.Printf("%10.3f  %.9f %.9f %9.4f  %8.4f %8.4f %8.4f  %10.3f %8.4f  | %.9f %.9f %9.4f\n",
		t, m.ToDeg(filt.Phi), m.ToDeg(filt.Lam), filt.Hgt,
		filt.Vn, filt.Ve, filt.Vd, filt.Cb, filt.Cd,
		rec.Lat, rec.Lon, rec.Hgt)
}

//-------------------------------------------------------------------
// Synthetic GNSS/IMU error simulation
//-------------------------------------------------------------------

// gnssSim generates satellite observables from the truth state and carries
// the simulated receiver clock and IMU error states across samples.
type gnssSim struct {
	cfg Config
	rng *rand.Rand
	cb  float64 // Simulated clock bias [m]
	cd  float64 // Simulated clock drift [m/s]
	sb  float64 // Clock bias noise spectral density [m^2/s]
	sd  float64 // Clock drift noise spectral density [m^2/s^3]
}

func newGnssSim(cfg Config, seed int64) *gnssSim {
	return &gnssSim{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		sb:  m.C * m.C * cfg.Clock.H0 / 2.0,
		sd:  m.C * m.C * 2.0 * m.PI * m.PI * cfg.Clock.H2,
	}
}

// imuSample applies the configured constant biases and white noise to one
// truth IMU sample.
func (g *gnssSim) imuSample(rec *m.TruthRecord, dt float64) (wb, fb [3]float64) {
	wb = [3]float64{rec.Wx, rec.Wy, rec.Wz}
	fb = [3]float64{rec.Fx, rec.Fy, rec.Fz}
	sw := g.cfg.Imu.GyroNoise / math.Sqrt(dt)
	sf := g.cfg.Imu.AccelNoise / math.Sqrt(dt)
	for i := 0; i < 3; i++ {
		if len(g.cfg.Imu.SimGyroBias) == 3 {
			wb[i] += g.cfg.Imu.SimGyroBias[i]
		}
		if len(g.cfg.Imu.SimAccelBias) == 3 {
			fb[i] += g.cfg.Imu.SimAccelBias[i]
		}
		wb[i] += g.rng.NormFloat64() * sw
		fb[i] += g.rng.NormFloat64() * sf
	}
	return
}

// clockStep advances the simulated two-state receiver clock by dt.
func (g *gnssSim) clockStep(dt float64) {
	g.cb += g.cd*dt + g.rng.NormFloat64()*math.Sqrt(g.sb*dt)
	g.cd += g.rng.NormFloat64() * math.Sqrt(g.sd*dt)
}

// observe builds one epoch of noisy observables from the truth state and
// the configured constellation.
func (g *gnssSim) observe(rec *m.TruthRecord) *m.Obs {
	llh := m.NewPosLLH(m.ToRad(rec.Lat), m.ToRad(rec.Lon), rec.Hgt)
	pos := llh.ToXYZ()
	vel := m.NedToEcefVec([3]float64{rec.Vn, rec.Ve, rec.Vd}, llh)

	obs := m.NewObs(len(g.cfg.Sats))
	for _, sv := range g.cfg.Sats {
		svPos := m.PosXYZ{X: sv.Pos[0], Y: sv.Pos[1], Z: sv.Pos[2]}
		svVel := m.PosXYZ{X: sv.Vel[0], Y: sv.Vel[1], Z: sv.Vel[2]}
		_, _, psr, psrdot := m.RangeAndRate(pos, vel, g.cb, g.cd, svPos, svVel)
		psr += g.rng.NormFloat64() * g.cfg.Meas.PsrStd
		psrdot += g.rng.NormFloat64() * g.cfg.Meas.PsrDotStd
		obs.Append(svPos, svVel, psr, psrdot, g.cfg.Meas.PsrVar, g.cfg.Meas.PsrDotVar)
	}
	return obs
}

//-------------------------------------------------------------------
// For command argument parsing
//-------------------------------------------------------------------

type idxVar []int

func (p *idxVar) Set(s string) error {
	*p = []int{}
	for _, a := range strings.Split(s, ",") {
		i, err := strconv.Atoi(a)
		if err != nil {
			return err
		}
		*p = append(*p, i)
	}
	return nil
}

func (p *idxVar) String() string {
	return ""
}
