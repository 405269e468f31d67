package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sec = int64(1_000_000_000)

// degPerSec converts a yaw rate in °/s to rad/s.
func degPerSec(d float64) float64 { return d * math.Pi / 180 }

func TestTracker_GyroFirstSampleOnlySetsBaseline(t *testing.T) {
	tr := NewTracker(Settings{})
	tr.OnAngularVelocity(degPerSec(90), 5*sec)

	assert.Equal(t, 0.0, tr.CurrentYaw())
	_, ok := tr.InitialYaw()
	assert.False(t, ok)

	tr.OnAngularVelocity(degPerSec(10), 6*sec)
	assert.InDelta(t, 10, tr.CurrentYaw(), 1e-9)
	initial, ok := tr.InitialYaw()
	require.True(t, ok)
	assert.InDelta(t, 10, initial, 1e-9)
}

func TestTracker_GyroIntegrationWraps(t *testing.T) {
	tr := NewTracker(Settings{})
	tr.OnAngularVelocity(0, 0)
	tr.OnAngularVelocity(degPerSec(-30), sec)
	assert.InDelta(t, 330, tr.CurrentYaw(), 1e-9)

	tr.OnAngularVelocity(degPerSec(60), 2*sec)
	assert.InDelta(t, 30, tr.CurrentYaw(), 1e-9)

	// Baseline stays at the first integrated value.
	initial, _ := tr.InitialYaw()
	assert.InDelta(t, 330, initial, 1e-9)
}

func TestTracker_NegativeDtIntegratesNothing(t *testing.T) {
	tr := NewTracker(Settings{})
	tr.OnAngularVelocity(0, 10*sec)
	tr.OnAngularVelocity(degPerSec(45), 9*sec)
	assert.Equal(t, 0.0, tr.CurrentYaw())

	tr.OnAngularVelocity(degPerSec(45), 10*sec)
	assert.InDelta(t, 45, tr.CurrentYaw(), 1e-9)
}

func TestTracker_AbsoluteSetsBaselineAndNormalizes(t *testing.T) {
	tr := NewTracker(Settings{})
	tr.OnAbsoluteOrientation(-90)
	assert.InDelta(t, 270, tr.CurrentYaw(), 1e-9)
	initial, ok := tr.InitialYaw()
	require.True(t, ok)
	assert.InDelta(t, 270, initial, 1e-9)

	tr.OnAbsoluteOrientation(400)
	assert.InDelta(t, 40, tr.CurrentYaw(), 1e-9)
	initial, _ = tr.InitialYaw()
	assert.InDelta(t, 270, initial, 1e-9)
}

func TestTracker_LastWriteWins(t *testing.T) {
	tr := NewTracker(Settings{Policy: LastWriteWins})
	tr.OnAngularVelocity(0, 0)
	tr.OnAngularVelocity(degPerSec(10), sec)
	tr.OnAbsoluteOrientation(100)
	assert.InDelta(t, 100, tr.CurrentYaw(), 1e-9)

	tr.OnAngularVelocity(degPerSec(5), 2*sec)
	assert.InDelta(t, 105, tr.CurrentYaw(), 1e-9)
}

func TestTracker_AbsolutePreferredFreezesGyro(t *testing.T) {
	tr := NewTracker(Settings{Policy: AbsolutePreferred})
	tr.OnAngularVelocity(0, 0)
	tr.OnAngularVelocity(degPerSec(10), sec)
	assert.InDelta(t, 10, tr.CurrentYaw(), 1e-9)

	tr.OnAbsoluteOrientation(100)
	tr.OnAngularVelocity(degPerSec(50), 2*sec)
	tr.OnAngularVelocity(degPerSec(50), 3*sec)
	assert.InDelta(t, 100, tr.CurrentYaw(), 1e-9)

	initial, _ := tr.InitialYaw()
	assert.InDelta(t, 10, initial, 1e-9)
}

func TestTracker_ComplementaryBlends(t *testing.T) {
	tr := NewTracker(Settings{Policy: Complementary, Blend: 0.25})

	// First heading of the session is taken as-is.
	tr.OnAbsoluteOrientation(350)
	assert.InDelta(t, 350, tr.CurrentYaw(), 1e-9)

	// Pulled a quarter of the way along the short arc (350 -> 30 is +40).
	tr.OnAbsoluteOrientation(30)
	assert.InDelta(t, 0, tr.CurrentYaw(), 1e-9)

	tr.OnAngularVelocity(0, 0)
	tr.OnAngularVelocity(degPerSec(20), sec)
	assert.InDelta(t, 20, tr.CurrentYaw(), 1e-9)
}

func TestTracker_EvaluateWithoutBaseline(t *testing.T) {
	tr := NewTracker(Settings{})
	for i := 0; i < 5; i++ {
		_, ok := tr.Evaluate()
		assert.False(t, ok)
	}
	assert.Equal(t, 0, tr.DeviationCount())
}

func TestTracker_DeviationHysteresis(t *testing.T) {
	tr := NewTracker(Settings{YawChangeThresholdDeg: 20, DeviationCountThreshold: 3})
	tr.OnAbsoluteOrientation(0)
	tr.OnAbsoluteOrientation(45)

	_, ok := tr.Evaluate()
	assert.False(t, ok)
	_, ok = tr.Evaluate()
	assert.False(t, ok)
	ev, ok := tr.Evaluate()
	require.True(t, ok)
	assert.Equal(t, DeviationConfirmed, ev)

	// Level-triggered past the threshold.
	ev, ok = tr.Evaluate()
	require.True(t, ok)
	assert.Equal(t, DeviationConfirmed, ev)
	assert.Equal(t, 4, tr.DeviationCount())

	tr.OnAbsoluteOrientation(5)
	ev, ok = tr.Evaluate()
	require.True(t, ok)
	assert.Equal(t, DeviationCleared, ev)
	assert.Equal(t, 0, tr.DeviationCount())

	// Edge-triggered on recovery.
	_, ok = tr.Evaluate()
	assert.False(t, ok)
}

func TestTracker_DeviationUsesShortestArc(t *testing.T) {
	tr := NewTracker(Settings{YawChangeThresholdDeg: 20, DeviationCountThreshold: 1})
	tr.OnAbsoluteOrientation(350)
	tr.OnAbsoluteOrientation(5)
	_, ok := tr.Evaluate()
	assert.False(t, ok)
	assert.InDelta(t, 15, tr.Diff(), 1e-9)

	tr.OnAbsoluteOrientation(20)
	ev, ok := tr.Evaluate()
	require.True(t, ok)
	assert.Equal(t, DeviationConfirmed, ev)
}

func TestTracker_DiffAtThresholdIsCalm(t *testing.T) {
	tr := NewTracker(Settings{YawChangeThresholdDeg: 20, DeviationCountThreshold: 1})
	tr.OnAbsoluteOrientation(0)
	tr.OnAbsoluteOrientation(20)
	_, ok := tr.Evaluate()
	assert.False(t, ok)
}

func TestTracker_ResetIsIdempotent(t *testing.T) {
	cfg := Settings{Policy: Complementary, Blend: 0.5}
	tr := NewTracker(cfg)
	tr.OnAngularVelocity(1, 0)
	tr.OnAngularVelocity(1, sec)
	tr.OnAbsoluteOrientation(200)
	tr.Evaluate()
	tr.Evaluate()

	tr.Reset()
	tr.Reset()
	assert.Equal(t, *NewTracker(cfg), *tr)
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{LastWriteWins, AbsolutePreferred, Complementary} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, LastWriteWins, got)

	_, err = ParsePolicy("kalman")
	assert.Error(t, err)
}
