package sensors

import "math"

const standardGravity = 9.80665 // m/s²

// AccelToMS2 converts an MPU9250 accelerometer count to m/s².
// rangeSel is the ACCEL_FS_SEL value (0=±2g … 3=±16g).
func AccelToMS2(count int16, rangeSel byte) float64 {
	lsbPerG := 16384.0 / float64(int(1)<<(rangeSel&0x3))
	return float64(count) / lsbPerG * standardGravity
}

// GyroToRadPerSec converts an MPU9250 gyroscope count to rad/s.
// rangeSel is the GYRO_FS_SEL value (0=±250°/s … 3=±2000°/s).
func GyroToRadPerSec(count int16, rangeSel byte) float64 {
	lsbPerDeg := 131.0 / float64(int(1)<<(rangeSel&0x3))
	return float64(count) / lsbPerDeg * math.Pi / 180
}

// GravityFilter splits raw acceleration into a slowly moving gravity estimate
// and the remaining linear acceleration (first-order low-pass on gravity).
type GravityFilter struct {
	alpha   float64
	gravity [3]float64
	primed  bool
}

// NewGravityFilter builds a filter; alpha close to 1 means a slow gravity estimate.
func NewGravityFilter(alpha float64) *GravityFilter {
	return &GravityFilter{alpha: alpha}
}

// Apply returns raw minus the gravity estimate. The first call seeds the
// estimate with the raw value, so it reports zero linear acceleration.
func (f *GravityFilter) Apply(raw [3]float64) [3]float64 {
	if !f.primed {
		f.gravity = raw
		f.primed = true
		return [3]float64{}
	}
	var linear [3]float64
	for i := range raw {
		f.gravity[i] = f.alpha*f.gravity[i] + (1-f.alpha)*raw[i]
		linear[i] = raw[i] - f.gravity[i]
	}
	return linear
}

// Reset forgets the gravity estimate.
func (f *GravityFilter) Reset() {
	f.gravity = [3]float64{}
	f.primed = false
}
