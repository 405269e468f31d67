// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stroke counts swim strokes by peak-detecting acceleration magnitude.
package stroke

import "time"

// DefaultStrokesPerCycle is the number of strokes after which the heading is
// re-evaluated and the counter wraps.
const DefaultStrokesPerCycle = 7

// Event is produced by Detector.Process.
type Event interface {
	strokeEvent()
}

// Counted reports the stroke counter after a change.
type Counted struct {
	Count int
}

// CycleCompleted reports that StrokesPerCycle strokes were counted.
type CycleCompleted struct{}

func (Counted) strokeEvent()        {}
func (CycleCompleted) strokeEvent() {}

// Detector is a rising-edge peak detector with a refractory period.
// A single threshold arms and disarms it; samples exactly at the threshold
// do nothing. It is not safe for concurrent use.
type Detector struct {
	threshold       float64
	minPeakInterval int64 // ns
	strokesPerCycle int

	count      int
	inProgress bool
	lastPeak   int64
	havePeak   bool
}

// NewDetector builds a detector. strokesPerCycle <= 0 selects the default.
func NewDetector(threshold float64, minPeakInterval time.Duration, strokesPerCycle int) *Detector {
	if strokesPerCycle <= 0 {
		strokesPerCycle = DefaultStrokesPerCycle
	}
	return &Detector{
		threshold:       threshold,
		minPeakInterval: minPeakInterval.Nanoseconds(),
		strokesPerCycle: strokesPerCycle,
	}
}

// Count returns the strokes counted in the current cycle.
func (d *Detector) Count() int { return d.count }

// InProgress reports whether the detector is waiting for the magnitude to
// drop below the threshold before it can count again.
func (d *Detector) InProgress() bool { return d.inProgress }

// Process feeds one magnitude sample taken at now (ns).
// On the last stroke of a cycle it returns Counted(n), CycleCompleted, Counted(0).
func (d *Detector) Process(magnitude float64, now int64) []Event {
	switch {
	case magnitude > d.threshold && !d.inProgress:
		if d.havePeak && now-d.lastPeak <= d.minPeakInterval {
			// refractory period
			return nil
		}
		d.count++
		d.inProgress = true
		d.lastPeak = now
		d.havePeak = true

		events := []Event{Counted{Count: d.count}}
		if d.count >= d.strokesPerCycle {
			d.count = 0
			events = append(events, CycleCompleted{}, Counted{Count: 0})
		}
		return events

	case magnitude < d.threshold && d.inProgress:
		d.inProgress = false
	}
	return nil
}

// Reset zeroes the counter, the arming flag and the peak history.
func (d *Detector) Reset() {
	d.count = 0
	d.inProgress = false
	d.lastPeak = 0
	d.havePeak = false
}
