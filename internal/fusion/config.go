package fusion

import (
	"time"

	"github.com/relabs-tech/swim_computer/internal/orientation"
	"github.com/relabs-tech/swim_computer/internal/stroke"
)

// Config is fixed for the lifetime of a Core.
type Config struct {
	MotionThreshold float64       // m/s², Idle -> Active
	IdleTimeout     time.Duration // quiet time before Active -> Idle

	PeakThreshold   float64 // m/s², stroke peak
	MinPeakInterval time.Duration
	StrokesPerCycle int

	YawChangeThresholdDeg   float64
	DeviationCountThreshold int
	HeadingPolicy           orientation.Policy
	HeadingBlend            float64 // Complementary only
}

// DefaultConfig returns the thresholds tuned on the wrist prototype.
func DefaultConfig() Config {
	return Config{
		MotionThreshold:         1.5,
		IdleTimeout:             3 * time.Second,
		PeakThreshold:           2.5,
		MinPeakInterval:         300 * time.Millisecond,
		StrokesPerCycle:         stroke.DefaultStrokesPerCycle,
		YawChangeThresholdDeg:   orientation.DefaultYawChangeThresholdDeg,
		DeviationCountThreshold: orientation.DefaultDeviationCountThreshold,
		HeadingPolicy:           orientation.LastWriteWins,
		HeadingBlend:            1,
	}
}
