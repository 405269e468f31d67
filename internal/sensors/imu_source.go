// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// Reading is one IMU read converted to physical units.
type Reading struct {
	Accel [3]float64 // m/s², gravity included
	GyroZ float64    // rad/s
}

// IMUReader defines the interface for reading the wrist IMU.
type IMUReader interface {
	Read() (Reading, error)
}

type imuSource struct {
	imu        *mpu9250.MPU9250
	accelRange byte
	gyroRange  byte
}

// NewIMUSource initializes the MPU9250 over SPI with the given ranges.
func NewIMUSource(spiDev, csPin string, accelRange, gyroRange byte) (IMUReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("imu: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("imu: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("imu: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("imu: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("imu: initialization: %w", err)
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("imu: set accel range: %w", err)
	}
	log.Printf("imu: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange&0x3])

	if err := dev.SetGyroRange(gyroRange); err != nil {
		return nil, fmt.Errorf("imu: set gyro range: %w", err)
	}
	log.Printf("imu: gyroscope range set to %d (±%d°/s)", gyroRange, []int{250, 500, 1000, 2000}[gyroRange&0x3])

	// Self-test and calibration failures are not fatal; the stroke detector
	// tolerates a small bias.
	if _, err := dev.SelfTest(); err != nil {
		log.Printf("imu: WARNING: self-test failed: %v", err)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("imu: WARNING: calibration failed: %v", err)
	} else {
		log.Printf("imu: calibration complete")
	}

	return &imuSource{imu: dev, accelRange: accelRange, gyroRange: gyroRange}, nil
}

// Read reads the accelerometer and the yaw-axis gyro.
func (s *imuSource) Read() (Reading, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return Reading{}, fmt.Errorf("imu accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return Reading{}, fmt.Errorf("imu accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return Reading{}, fmt.Errorf("imu accel Z: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return Reading{}, fmt.Errorf("imu gyro Z: %w", err)
	}

	return Reading{
		Accel: [3]float64{
			AccelToMS2(ax, s.accelRange),
			AccelToMS2(ay, s.accelRange),
			AccelToMS2(az, s.accelRange),
		},
		GyroZ: GyroToRadPerSec(gz, s.gyroRange),
	}, nil
}
