// Package sample defines the timestamped sensor samples consumed by the
// fusion core and their JSON wire form on MQTT.
package sample

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Sample is one of LinearAcceleration, AngularVelocityZ or AbsoluteOrientation.
// Timestamps are nanoseconds on a monotonic clock, non-decreasing per type.
type Sample interface {
	Timestamp() int64
	sample()
}

// LinearAcceleration is gravity-compensated acceleration in device axes (m/s²).
type LinearAcceleration struct {
	At      int64
	X, Y, Z float64
}

// AngularVelocityZ is the yaw-axis rate from a gyroscope (rad/s).
type AngularVelocityZ struct {
	At int64
	Z  float64
}

// AbsoluteOrientation is a heading fix already resolved by whoever owns the
// fusion hardware (degrees, any range).
type AbsoluteOrientation struct {
	At     int64
	YawDeg float64
}

func (s LinearAcceleration) Timestamp() int64  { return s.At }
func (s AngularVelocityZ) Timestamp() int64    { return s.At }
func (s AbsoluteOrientation) Timestamp() int64 { return s.At }

func (LinearAcceleration) sample()  {}
func (AngularVelocityZ) sample()    {}
func (AbsoluteOrientation) sample() {}

// Magnitude is the Euclidean norm of the acceleration vector.
func (s LinearAcceleration) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// Wire type tags.
const (
	TypeLinearAcceleration  = "linear_acceleration"
	TypeAngularVelocityZ    = "angular_velocity_z"
	TypeAbsoluteOrientation = "absolute_orientation"
)

// TypeOf returns the wire type tag of s, or "" for an unknown sample.
func TypeOf(s Sample) string {
	switch s.(type) {
	case LinearAcceleration:
		return TypeLinearAcceleration
	case AngularVelocityZ:
		return TypeAngularVelocityZ
	case AbsoluteOrientation:
		return TypeAbsoluteOrientation
	default:
		return ""
	}
}

// ErrUnknownType is returned by Unmarshal for an unrecognised type tag.
var ErrUnknownType = errors.New("sample: unknown type")

type wire struct {
	Type string   `json:"type"`
	TS   int64    `json:"ts"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Z    *float64 `json:"z,omitempty"`
	Yaw  *float64 `json:"yaw_deg,omitempty"`
}

// Marshal encodes a sample as a JSON object with a "type" tag.
func Marshal(s Sample) ([]byte, error) {
	var w wire
	switch v := s.(type) {
	case LinearAcceleration:
		w = wire{Type: TypeLinearAcceleration, TS: v.At, X: &v.X, Y: &v.Y, Z: &v.Z}
	case AngularVelocityZ:
		w = wire{Type: TypeAngularVelocityZ, TS: v.At, Z: &v.Z}
	case AbsoluteOrientation:
		w = wire{Type: TypeAbsoluteOrientation, TS: v.At, Yaw: &v.YawDeg}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, s)
	}
	return json.Marshal(w)
}

// Unmarshal decodes a payload produced by Marshal. Missing value fields are
// rejected rather than read as zero.
func Unmarshal(data []byte) (Sample, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("sample: decode: %w", err)
	}
	switch w.Type {
	case TypeLinearAcceleration:
		if w.X == nil || w.Y == nil || w.Z == nil {
			return nil, fmt.Errorf("sample: %s needs x, y and z", w.Type)
		}
		return LinearAcceleration{At: w.TS, X: *w.X, Y: *w.Y, Z: *w.Z}, nil
	case TypeAngularVelocityZ:
		if w.Z == nil {
			return nil, fmt.Errorf("sample: %s needs z", w.Type)
		}
		return AngularVelocityZ{At: w.TS, Z: *w.Z}, nil
	case TypeAbsoluteOrientation:
		if w.Yaw == nil {
			return nil, fmt.Errorf("sample: %s needs yaw_deg", w.Type)
		}
		return AbsoluteOrientation{At: w.TS, YawDeg: *w.Yaw}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, w.Type)
	}
}
