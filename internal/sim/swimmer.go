// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim generates synthetic wrist samples for a swimmer, used by the
// mock producer and the offline console.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/relabs-tech/swim_computer/internal/angle"
	"github.com/relabs-tech/swim_computer/internal/sample"
)

// Profile describes the simulated swim.
type Profile struct {
	StrokeRate float64 `yaml:"stroke_rate"` // strokes per second
	PeakAccel  float64 `yaml:"peak_accel"`  // m/s² at the top of a stroke
	Noise      float64 `yaml:"noise"`       // m/s², uniform

	StartHeading   float64 `yaml:"start_heading"`     // degrees
	DriftDegPerSec float64 `yaml:"drift_deg_per_sec"` // slow yaw drift

	// A course change of TurnDeg degrees spread over TurnDuration, starting at TurnAt.
	TurnAt       time.Duration `yaml:"turn_at"`
	TurnDeg      float64       `yaml:"turn_deg"`
	TurnDuration time.Duration `yaml:"turn_duration"`

	// Swimming stops (wrist goes quiet) at RestAt; zero means never.
	RestAt time.Duration `yaml:"rest_at"`

	// Absolute heading fixes every FixEvery; zero disables them.
	FixEvery time.Duration `yaml:"fix_every"`

	Seed int64 `yaml:"seed"`
}

// DefaultProfile is a steady crawl with a 45° course change after 40 s.
func DefaultProfile() Profile {
	return Profile{
		StrokeRate:     0.8,
		PeakAccel:      4.0,
		Noise:          0.2,
		StartHeading:   90,
		DriftDegPerSec: 0.05,
		TurnAt:         40 * time.Second,
		TurnDeg:        45,
		TurnDuration:   3 * time.Second,
		FixEvery:       5 * time.Second,
		Seed:           1,
	}
}

// Swimmer produces samples at caller-chosen instants.
type Swimmer struct {
	p   Profile
	rng *rand.Rand

	heading float64
	last    time.Duration
	started bool
	lastFix time.Duration
	haveFix bool
}

// NewSwimmer builds a swimmer at the start of its profile.
func NewSwimmer(p Profile) *Swimmer {
	return &Swimmer{
		p:       p,
		rng:     rand.New(rand.NewSource(p.Seed)),
		heading: angle.Normalize(p.StartHeading),
	}
}

// Heading returns the true heading at the last Step.
func (s *Swimmer) Heading() float64 { return s.heading }

// YawRate returns the true yaw rate (rad/s) at offset at.
func (s *Swimmer) YawRate(at time.Duration) float64 {
	deg := s.p.DriftDegPerSec
	if s.p.TurnDuration > 0 && at >= s.p.TurnAt && at < s.p.TurnAt+s.p.TurnDuration {
		deg += s.p.TurnDeg / s.p.TurnDuration.Seconds()
	}
	return deg * math.Pi / 180
}

// Magnitude returns the noiseless acceleration magnitude at offset at.
func (s *Swimmer) Magnitude(at time.Duration) float64 {
	if s.p.RestAt > 0 && at >= s.p.RestAt {
		return 0
	}
	phase := math.Sin(2 * math.Pi * s.p.StrokeRate * at.Seconds())
	if phase <= 0 {
		return 0
	}
	return s.p.PeakAccel * math.Pow(phase, 4)
}

// Step advances the swimmer to offset at (from the start of the swim) and
// returns the samples a wrist would report there. epoch is added to every
// timestamp. Steps must not go backwards.
func (s *Swimmer) Step(epoch int64, at time.Duration) []sample.Sample {
	rate := s.YawRate(at)
	if s.started {
		dt := (at - s.last).Seconds()
		s.heading = angle.Normalize(s.heading + rate*dt*180/math.Pi)
	}
	s.last = at
	s.started = true

	ts := epoch + at.Nanoseconds()
	mag := s.Magnitude(at) + s.p.Noise*s.rng.Float64()
	// Most of a crawl stroke is along the forearm (device X).
	out := []sample.Sample{
		sample.LinearAcceleration{At: ts, X: mag * 0.9, Y: mag * 0.3, Z: mag * math.Sqrt(1-0.81-0.09)},
		sample.AngularVelocityZ{At: ts, Z: rate},
	}

	if s.p.FixEvery > 0 && (!s.haveFix || at-s.lastFix >= s.p.FixEvery) {
		s.lastFix = at
		s.haveFix = true
		out = append(out, sample.AbsoluteOrientation{At: ts, YawDeg: s.heading})
	}
	return out
}
