// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion decides whether the wrist is idle or actively swimming and
// which sampling-rate class the sensor feed should run at.
package motion

import (
	"fmt"
	"time"
)

// Mode is the duty-cycle mode of the sensor feed.
type Mode int

const (
	Idle Mode = iota
	Active
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Rate is the sampling-rate class requested from the sensor collaborator.
type Rate string

const (
	RateIdle   Rate = "idle"   // low rate, enough to notice motion
	RateActive Rate = "active" // high rate for stroke peak detection
)

// RateFor returns the rate class that belongs to a mode.
func RateFor(m Mode) Rate {
	if m == Active {
		return RateActive
	}
	return RateIdle
}

// Request is emitted when the scheduler changes mode.
type Request struct {
	Mode Mode
	Rate Rate
}

// Scheduler classifies linear-acceleration magnitudes into Idle/Active.
// It is not safe for concurrent use.
type Scheduler struct {
	threshold   float64
	idleTimeout int64 // ns

	mode       Mode
	lastMotion int64
}

// NewScheduler builds a scheduler starting in Idle.
func NewScheduler(threshold float64, idleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		threshold:   threshold,
		idleTimeout: idleTimeout.Nanoseconds(),
	}
}

// Mode returns the mode currently in effect.
func (s *Scheduler) Mode() Mode { return s.mode }

// OnAcceleration feeds one magnitude sample (m/s²) taken at now (ns).
// It returns a request only when the mode actually changes.
func (s *Scheduler) OnAcceleration(magnitude float64, now int64) (Request, bool) {
	if magnitude > s.threshold {
		s.lastMotion = now
		return s.switchTo(Active)
	}

	if s.mode != Active {
		return Request{}, false
	}
	if now-s.lastMotion > s.idleTimeout {
		return s.switchTo(Idle)
	}
	return Request{}, false
}

// Reset returns the scheduler to Idle with no motion history.
func (s *Scheduler) Reset() {
	s.mode = Idle
	s.lastMotion = 0
}

func (s *Scheduler) switchTo(m Mode) (Request, bool) {
	if s.mode == m {
		return Request{}, false
	}
	s.mode = m
	return Request{Mode: m, Rate: RateFor(m)}, true
}
