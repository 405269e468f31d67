// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fusion composes the motion scheduler, the stroke detector and the
// heading tracker into one synchronous sample pipeline.
//
// Core is single-owner: callers must deliver samples from one goroutine (or
// serialize externally). Nothing in here blocks.
package fusion

import (
	"io"
	"log"

	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/orientation"
	"github.com/relabs-tech/swim_computer/internal/sample"
	"github.com/relabs-tech/swim_computer/internal/stroke"
)

// Core owns all per-session state.
type Core struct {
	cfg Config

	scheduler *motion.Scheduler
	strokes   *stroke.Detector
	heading   *orientation.Tracker

	rates     RateController
	logger    *log.Logger
	recording bool
}

// Option configures a Core.
type Option func(*Core)

// WithRateController routes sampling-rate requests to rc.
func WithRateController(rc RateController) Option {
	return func(c *Core) {
		if rc != nil {
			c.rates = rc
		}
	}
}

// WithLogger replaces the standard logger. A nil logger silences the core.
func WithLogger(l *log.Logger) Option {
	return func(c *Core) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		c.logger = l
	}
}

// New builds an idle, non-recording core.
func New(cfg Config, opts ...Option) *Core {
	c := &Core{
		cfg:       cfg,
		scheduler: motion.NewScheduler(cfg.MotionThreshold, cfg.IdleTimeout),
		strokes:   stroke.NewDetector(cfg.PeakThreshold, cfg.MinPeakInterval, cfg.StrokesPerCycle),
		heading: orientation.NewTracker(orientation.Settings{
			YawChangeThresholdDeg:   cfg.YawChangeThresholdDeg,
			DeviationCountThreshold: cfg.DeviationCountThreshold,
			Policy:                  cfg.HeadingPolicy,
			Blend:                   cfg.HeadingBlend,
		}),
		rates:  noRates{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recording reports whether a session is running.
func (c *Core) Recording() bool { return c.recording }

// StartRecording resets every component and begins a session at the idle rate.
func (c *Core) StartRecording() {
	c.resetSession()
	c.recording = true
	c.rates.RequestSamplingRate(motion.RateIdle)
	c.logger.Printf("fusion: recording started (policy=%s, strokes/cycle=%d)",
		c.cfg.HeadingPolicy, c.cfg.StrokesPerCycle)
}

// StopRecording ends the session. The deviation flag is always cleared so the
// presentation layer never keeps a stale warning, and an Active session drops
// back to the idle rate.
func (c *Core) StopRecording() []Event {
	wasActive := c.scheduler.Mode() == motion.Active
	c.recording = false
	c.resetSession()
	if wasActive {
		c.rates.RequestSamplingRate(motion.RateIdle)
	}
	c.logger.Printf("fusion: recording stopped")
	return []Event{CourseDeviationChanged{Deviated: false}}
}

// Dispatch routes one sample. Outside a session samples are ignored.
func (c *Core) Dispatch(s sample.Sample) []Event {
	if !c.recording {
		return nil
	}
	switch v := s.(type) {
	case sample.LinearAcceleration:
		return c.onAcceleration(v)
	case sample.AngularVelocityZ:
		c.heading.OnAngularVelocity(v.Z, v.At)
	case sample.AbsoluteOrientation:
		c.heading.OnAbsoluteOrientation(v.YawDeg)
	}
	return nil
}

func (c *Core) onAcceleration(s sample.LinearAcceleration) []Event {
	magnitude := s.Magnitude()

	if req, changed := c.scheduler.OnAcceleration(magnitude, s.At); changed {
		c.logger.Printf("fusion: mode %s, requesting %s rate", req.Mode, req.Rate)
		c.rates.RequestSamplingRate(req.Rate)
	}
	if c.scheduler.Mode() != motion.Active {
		return nil
	}

	var out []Event
	for _, ev := range c.strokes.Process(magnitude, s.At) {
		switch e := ev.(type) {
		case stroke.Counted:
			out = append(out, StrokeCountChanged{Count: e.Count})
		case stroke.CycleCompleted:
			out = append(out, c.evaluateHeading()...)
		}
	}
	return out
}

func (c *Core) evaluateHeading() []Event {
	dev, ok := c.heading.Evaluate()
	if _, haveBaseline := c.heading.InitialYaw(); !haveBaseline {
		c.logger.Printf("fusion: stroke cycle done, no heading baseline yet")
		return nil
	}
	c.logger.Printf("fusion: stroke cycle done, heading diff %.1f°", c.heading.Diff())
	if !ok {
		return nil
	}
	switch dev {
	case orientation.DeviationConfirmed:
		c.logger.Printf("fusion: course deviation confirmed (%d cycles)", c.heading.DeviationCount())
		return []Event{CourseDeviationChanged{Deviated: true}}
	case orientation.DeviationCleared:
		c.logger.Printf("fusion: course deviation cleared")
		return []Event{CourseDeviationChanged{Deviated: false}}
	}
	return nil
}

func (c *Core) resetSession() {
	c.strokes.Reset()
	c.heading.Reset()
	c.scheduler.Reset()
}

// Snapshot is a read-only view of the session state.
type Snapshot struct {
	Recording      bool        `json:"recording"`
	Mode           motion.Mode `json:"-"`
	ModeName       string      `json:"mode"`
	StrokeCount    int         `json:"stroke_count"`
	CurrentYaw     float64     `json:"current_yaw"`
	InitialYaw     float64     `json:"initial_yaw"`
	HasInitialYaw  bool        `json:"has_initial_yaw"`
	DeviationCount int         `json:"deviation_count"`
}

// Snapshot returns the current session state.
func (c *Core) Snapshot() Snapshot {
	initial, ok := c.heading.InitialYaw()
	mode := c.scheduler.Mode()
	return Snapshot{
		Recording:      c.recording,
		Mode:           mode,
		ModeName:       mode.String(),
		StrokeCount:    c.strokes.Count(),
		CurrentYaw:     c.heading.CurrentYaw(),
		InitialYaw:     initial,
		HasInitialYaw:  ok,
		DeviationCount: c.heading.DeviationCount(),
	}
}
