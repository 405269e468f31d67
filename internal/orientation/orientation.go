// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation tracks the swimmer's heading and decides whether it has
// drifted away from the heading at the start of the session.
package orientation

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/swim_computer/internal/angle"
)

const (
	DefaultYawChangeThresholdDeg   = 20.0
	DefaultDeviationCountThreshold = 3
)

// Policy decides how gyro integration and absolute heading fixes share the
// current heading estimate.
type Policy int

const (
	// LastWriteWins lets both sources overwrite the estimate; an absolute fix
	// replaces any integrated value.
	LastWriteWins Policy = iota
	// AbsolutePreferred ignores gyro rotation once the session has received an
	// absolute fix. Gyro samples still advance the integration baseline.
	AbsolutePreferred
	// Complementary keeps integrating the gyro and pulls the estimate toward
	// each absolute fix by a blend factor.
	Complementary
)

func (p Policy) String() string {
	switch p {
	case LastWriteWins:
		return "last_write_wins"
	case AbsolutePreferred:
		return "absolute_preferred"
	case Complementary:
		return "complementary"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the names produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last_write_wins":
		return LastWriteWins, nil
	case "absolute_preferred":
		return AbsolutePreferred, nil
	case "complementary":
		return Complementary, nil
	default:
		return 0, fmt.Errorf("unknown heading policy %q", s)
	}
}

// Deviation is the outcome of an Evaluate call.
type Deviation int

const (
	DeviationConfirmed Deviation = iota + 1
	DeviationCleared
)

func (d Deviation) String() string {
	switch d {
	case DeviationConfirmed:
		return "confirmed"
	case DeviationCleared:
		return "cleared"
	default:
		return fmt.Sprintf("deviation(%d)", int(d))
	}
}

// Settings configures a Tracker.
type Settings struct {
	YawChangeThresholdDeg   float64
	DeviationCountThreshold int
	Policy                  Policy
	// Blend is the weight of an absolute fix under Complementary, in (0,1].
	Blend float64
}

// Tracker integrates yaw and evaluates course deviation with hysteresis.
// It is not safe for concurrent use.
type Tracker struct {
	cfg Settings

	initialYaw  float64
	haveInitial bool
	currentYaw  float64

	lastGyro     int64
	haveLastGyro bool

	// absolute fix seen this session (AbsolutePreferred / Complementary)
	haveAbsolute bool

	deviationCount int
}

// NewTracker builds a tracker. Zero thresholds select the defaults.
func NewTracker(cfg Settings) *Tracker {
	if cfg.YawChangeThresholdDeg <= 0 {
		cfg.YawChangeThresholdDeg = DefaultYawChangeThresholdDeg
	}
	if cfg.DeviationCountThreshold <= 0 {
		cfg.DeviationCountThreshold = DefaultDeviationCountThreshold
	}
	if cfg.Blend <= 0 || cfg.Blend > 1 {
		cfg.Blend = 1
	}
	return &Tracker{cfg: cfg}
}

// CurrentYaw returns the heading estimate in [0,360).
func (t *Tracker) CurrentYaw() float64 { return t.currentYaw }

// InitialYaw returns the session baseline and whether it has been set.
func (t *Tracker) InitialYaw() (float64, bool) { return t.initialYaw, t.haveInitial }

// DeviationCount returns the number of consecutive exceeding evaluations.
func (t *Tracker) DeviationCount() int { return t.deviationCount }

// OnAngularVelocity integrates a yaw-axis rate (rad/s) sampled at now (ns).
// The first sample only establishes the time baseline. A timestamp older than
// the previous one integrates over zero seconds.
func (t *Tracker) OnAngularVelocity(rateZ float64, now int64) {
	if t.haveLastGyro {
		dt := float64(now-t.lastGyro) * 1e-9
		if dt < 0 {
			dt = 0
		}
		if !(t.cfg.Policy == AbsolutePreferred && t.haveAbsolute) {
			deltaDeg := rateZ * dt * (180 / math.Pi)
			t.currentYaw = angle.Normalize(t.currentYaw + deltaDeg)
			t.setInitialIfUnset()
		}
	}
	t.lastGyro = now
	t.haveLastGyro = true
}

// OnAbsoluteOrientation applies a heading fix in degrees (any range).
func (t *Tracker) OnAbsoluteOrientation(yawDeg float64) {
	fix := angle.Normalize(yawDeg)

	if t.cfg.Policy == Complementary && t.haveInitial {
		t.currentYaw = angle.Normalize(t.currentYaw + t.cfg.Blend*angle.SignedArc(t.currentYaw, fix))
	} else {
		t.currentYaw = fix
	}
	t.haveAbsolute = true
	t.setInitialIfUnset()
}

// Evaluate compares the current heading against the baseline.
// Confirmed is reported on every evaluation once the counter has reached the
// threshold; Cleared is reported once, on the first calm evaluation.
func (t *Tracker) Evaluate() (Deviation, bool) {
	if !t.haveInitial {
		return 0, false
	}
	diff := angle.ShortestArc(t.initialYaw, t.currentYaw)
	if diff > t.cfg.YawChangeThresholdDeg {
		t.deviationCount++
		if t.deviationCount >= t.cfg.DeviationCountThreshold {
			return DeviationConfirmed, true
		}
		return 0, false
	}
	if t.deviationCount > 0 {
		t.deviationCount = 0
		return DeviationCleared, true
	}
	return 0, false
}

// Diff returns the current distance from the baseline, or 0 without one.
func (t *Tracker) Diff() float64 {
	if !t.haveInitial {
		return 0
	}
	return angle.ShortestArc(t.initialYaw, t.currentYaw)
}

// Reset forgets the baseline, the estimate, the gyro time base and the counter.
func (t *Tracker) Reset() {
	t.initialYaw = 0
	t.haveInitial = false
	t.currentYaw = 0
	t.lastGyro = 0
	t.haveLastGyro = false
	t.haveAbsolute = false
	t.deviationCount = 0
}

func (t *Tracker) setInitialIfUnset() {
	if !t.haveInitial {
		t.initialYaw = t.currentYaw
		t.haveInitial = true
	}
}
