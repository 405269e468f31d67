// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package angle holds the heading arithmetic shared by the orientation tracker.
// All angles are in degrees.
package angle

import "math"

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// A tiny negative remainder plus 360 rounds to exactly 360.
	if a >= 360 {
		a = 0
	}
	return a
}

// ShortestArc returns the unsigned distance between two headings, in [0, 180].
func ShortestArc(a, b float64) float64 {
	d := math.Abs(Normalize(b) - Normalize(a))
	if d > 180 {
		return 360 - d
	}
	return d
}

// SignedArc returns the signed rotation that takes heading a to heading b,
// in (-180, 180]. Positive means counter-clockwise (increasing yaw).
func SignedArc(a, b float64) float64 {
	d := Normalize(b) - Normalize(a)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}
