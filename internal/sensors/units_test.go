package sensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccelToMS2(t *testing.T) {
	assert.InDelta(t, standardGravity, AccelToMS2(16384, 0), 1e-9)
	assert.InDelta(t, standardGravity, AccelToMS2(8192, 1), 1e-9)
	assert.InDelta(t, -2*standardGravity, AccelToMS2(-4096, 3), 1e-9)
}

func TestGyroToRadPerSec(t *testing.T) {
	assert.InDelta(t, math.Pi/180, GyroToRadPerSec(131, 0), 1e-12)
	assert.InDelta(t, 90*math.Pi/180, GyroToRadPerSec(2948, 2), 1e-3)
}

func TestGravityFilter(t *testing.T) {
	f := NewGravityFilter(0.8)
	still := [3]float64{0, 0, standardGravity}

	assert.Equal(t, [3]float64{}, f.Apply(still))
	for i := 0; i < 5; i++ {
		lin := f.Apply(still)
		assert.InDelta(t, 0, lin[2], 1e-9)
	}

	// A sudden push along X shows up as linear acceleration.
	lin := f.Apply([3]float64{5, 0, standardGravity})
	assert.InDelta(t, 4, lin[0], 1e-9)
	assert.InDelta(t, 0, lin[2], 1e-9)

	f.Reset()
	assert.Equal(t, [3]float64{}, f.Apply([3]float64{1, 2, 3}))
}

func TestGravityFilter_Reset(t *testing.T) {
	f := NewGravityFilter(0.5)
	f.Apply([3]float64{0, 0, 9.8})
	assert.NotZero(t, f.Apply([3]float64{4, 0, 9.8})[0])

	f.Reset()
	assert.Equal(t, [3]float64{}, f.Apply([3]float64{4, 0, 9.8}))
	assert.InDelta(t, 0, f.Apply([3]float64{4, 0, 9.8})[0], 1e-12)
}
