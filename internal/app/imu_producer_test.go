package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/sample"
	"github.com/relabs-tech/swim_computer/internal/sensors"
)

type scriptedIMU struct {
	readings []sensors.Reading
	err      error
}

func (s *scriptedIMU) Read() (sensors.Reading, error) {
	if s.err != nil {
		return sensors.Reading{}, s.err
	}
	r := s.readings[0]
	s.readings = s.readings[1:]
	return r, nil
}

func TestIntervalFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 20*time.Millisecond, intervalFor(cfg, motion.RateActive))
	assert.Equal(t, 200*time.Millisecond, intervalFor(cfg, motion.RateIdle))
}

func TestIMUPump_PublishesGravityFreeSamples(t *testing.T) {
	cfg := testConfig()
	pub := &fakePublisher{}
	var now int64
	pump := &imuPump{
		reader: &scriptedIMU{readings: []sensors.Reading{
			{Accel: [3]float64{0, 0, 9.8}, GyroZ: 0.1},
			{Accel: [3]float64{5, 0, 9.8}, GyroZ: 0.2},
		}},
		gravity: sensors.NewGravityFilter(0.8),
		pub:     pub,
		cfg:     cfg,
		clock:   func() int64 { now += 10; return now },
	}

	require.NoError(t, pump.tick())
	require.NoError(t, pump.tick())

	accel := pub.on(cfg.TopicAccel)
	require.Len(t, accel, 2)
	s, err := sample.Unmarshal([]byte(accel[1]))
	require.NoError(t, err)
	lin := s.(sample.LinearAcceleration)
	assert.Equal(t, int64(20), lin.At)
	assert.InDelta(t, 4, lin.X, 1e-9)
	assert.InDelta(t, 0, lin.Z, 1e-9)

	gyro := pub.on(cfg.TopicGyro)
	require.Len(t, gyro, 2)
	assert.JSONEq(t, `{"type":"angular_velocity_z","ts":20,"z":0.2}`, gyro[1])
}

func TestIMUPump_ReadErrorPublishesNothing(t *testing.T) {
	pub := &fakePublisher{}
	pump := &imuPump{
		reader:  &scriptedIMU{err: errors.New("spi timeout")},
		gravity: sensors.NewGravityFilter(0.8),
		pub:     pub,
		cfg:     testConfig(),
		clock:   func() int64 { return 0 },
	}
	assert.Error(t, pump.tick())
	assert.Empty(t, pub.msgs)
}

func TestIMUPump_RetuneReseedsGravity(t *testing.T) {
	cfg := testConfig()
	pub := &fakePublisher{}
	pump := &imuPump{
		reader: &scriptedIMU{readings: []sensors.Reading{
			{Accel: [3]float64{0, 0, 9.8}},
			{Accel: [3]float64{5, 0, 9.8}},
			{Accel: [3]float64{5, 0, 9.8}},
		}},
		gravity: sensors.NewGravityFilter(0.8),
		pub:     pub,
		cfg:     cfg,
		clock:   func() int64 { return 0 },
	}

	require.NoError(t, pump.tick())
	require.NoError(t, pump.tick())
	pump.retune()
	require.NoError(t, pump.tick())

	accel := pub.on(cfg.TopicAccel)
	require.Len(t, accel, 3)
	before, err := sample.Unmarshal([]byte(accel[1]))
	require.NoError(t, err)
	assert.NotZero(t, before.(sample.LinearAcceleration).X)
	after, err := sample.Unmarshal([]byte(accel[2]))
	require.NoError(t, err)
	assert.Zero(t, after.(sample.LinearAcceleration).X)
}
