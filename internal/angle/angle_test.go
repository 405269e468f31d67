package angle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{10, 10},
		{370, 10},
		{-10, 350},
		{360, 0},
		{720, 0},
		{-360, 0},
		{-725, 355},
		{359.5, 359.5},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Normalize(c.in), 1e-9, "Normalize(%v)", c.in)
	}
}

func TestNormalize_IdempotentAndInRange(t *testing.T) {
	for a := -1000.0; a <= 1000; a += 7.3 {
		n := Normalize(a)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.Less(t, n, 360.0)
		assert.Equal(t, n, Normalize(n))
	}
	assert.Less(t, Normalize(-1e-15), 360.0)
}

func TestNormalize_InRangeUnchanged(t *testing.T) {
	for i := 0; i < 3600; i++ {
		a := float64(i) * 0.1
		if got := Normalize(a); got != a {
			t.Fatalf("Normalize(%v) = %v, want input unchanged", a, got)
		}
	}
	assert.Equal(t, 0.1, Normalize(360.1-360))
}

func TestShortestArc(t *testing.T) {
	assert.InDelta(t, 20, ShortestArc(350, 10), 1e-9)
	assert.InDelta(t, 180, ShortestArc(10, 190), 1e-9)
	assert.InDelta(t, 0, ShortestArc(45, 45), 1e-9)
	assert.InDelta(t, 5, ShortestArc(-5, 0), 1e-9)

	for a := 0.0; a < 360; a += 17 {
		for b := 0.0; b < 360; b += 23 {
			d := ShortestArc(a, b)
			assert.InDelta(t, d, ShortestArc(b, a), 1e-9)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 180.0)
		}
	}
}

func TestSignedArc(t *testing.T) {
	assert.InDelta(t, 20, SignedArc(350, 10), 1e-9)
	assert.InDelta(t, -20, SignedArc(10, 350), 1e-9)
	assert.InDelta(t, 180, SignedArc(10, 190), 1e-9)
	assert.InDelta(t, 180, SignedArc(190, 10), 1e-9)
}
