package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/orientation"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDCore      string
	MQTTClientIDIMU       string
	MQTTClientIDGPS       string
	MQTTClientIDWeb       string
	MQTTClientIDDisplay   string
	MQTTClientIDConsole   string
	MQTTClientIDSimulator string

	// Topics
	TopicAccel        string // sample.LinearAcceleration
	TopicGyro         string // sample.AngularVelocityZ
	TopicHeading      string // sample.AbsoluteOrientation
	TopicSession      string // "start" / "stop"
	TopicSessionState string // retained {"recording":bool}
	TopicStrokes      string
	TopicDeviation    string
	TopicSamplingRate string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// IMU sampling per rate class, milliseconds
	IMUIdleInterval   int
	IMUActiveInterval int
	// Low-pass weight of the gravity estimate (0..1)
	IMUGravityAlpha float64

	// GPS
	GPSSerialPort    string
	GPSBaudRate      int
	GPSMinSpeedKnots float64 // course over ground is noise below this

	// Web Server
	WebServerPort int

	// Prometheus /metrics on the core node; 0 disables it
	CoreMetricsPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Stroke / heading pipeline
	MotionThreshold         float64
	IdleTimeoutMS           int
	AccelPeakThreshold      float64
	MinPeakIntervalMS       int
	StrokesPerCycle         int
	YawChangeThresholdDeg   float64
	DeviationCountThreshold int
	HeadingPolicy           orientation.Policy
	HeadingBlend            float64
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal() and Get().
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key filled in. The required
// keys (see validate) are left empty.
func Default() *Config {
	f := fusion.DefaultConfig()
	return &Config{
		MQTTClientIDCore:      "swim-core",
		MQTTClientIDIMU:       "swim-imu-producer",
		MQTTClientIDGPS:       "swim-gps-producer",
		MQTTClientIDWeb:       "swim-web",
		MQTTClientIDDisplay:   "swim-display",
		MQTTClientIDConsole:   "swim-console",
		MQTTClientIDSimulator: "swim-simulator",

		TopicAccel:        "swim/sample/accel",
		TopicGyro:         "swim/sample/gyro",
		TopicHeading:      "swim/sample/heading",
		TopicSession:      "swim/session",
		TopicSessionState: "swim/session/state",
		TopicStrokes:      "swim/strokes",
		TopicDeviation:    "swim/deviation",
		TopicSamplingRate: "swim/sampling_rate",

		IMUIdleInterval:   200,
		IMUActiveInterval: 20,
		IMUGravityAlpha:   0.8,

		GPSBaudRate:      9600,
		GPSMinSpeedKnots: 0.5,

		WebServerPort:   8080,
		CoreMetricsPort: 9100,

		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 250,

		MotionThreshold:         f.MotionThreshold,
		IdleTimeoutMS:           int(f.IdleTimeout / time.Millisecond),
		AccelPeakThreshold:      f.PeakThreshold,
		MinPeakIntervalMS:       int(f.MinPeakInterval / time.Millisecond),
		StrokesPerCycle:         f.StrokesPerCycle,
		YawChangeThresholdDeg:   f.YawChangeThresholdDeg,
		DeviationCountThreshold: f.DeviationCountThreshold,
		HeadingPolicy:           f.HeadingPolicy,
		HeadingBlend:            f.HeadingBlend,
	}
}

// Load reads the configuration file on top of Default().
func Load(configPath string) (*Config, error) {
	cfg, err := parse(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPipeline reads the file like Load but only checks the pipeline keys,
// for tools that never reach a broker.
func LoadPipeline(configPath string) (*Config, error) {
	cfg, err := parse(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.validatePipeline(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return cfg, nil
}

func parseInt(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

func parsePositiveFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CORE":
		c.MQTTClientIDCore = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_SIMULATOR":
		c.MQTTClientIDSimulator = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_GYRO":
		c.TopicGyro = value
	case "TOPIC_HEADING":
		c.TopicHeading = value
	case "TOPIC_SESSION":
		c.TopicSession = value
	case "TOPIC_SESSION_STATE":
		c.TopicSessionState = value
	case "TOPIC_STROKES":
		c.TopicStrokes = value
	case "TOPIC_DEVIATION":
		c.TopicDeviation = value
	case "TOPIC_SAMPLING_RATE":
		c.TopicSamplingRate = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUAccelRange = byte(v)
		}
	case "IMU_GYRO_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUGyroRange = byte(v)
		}

	// IMU sampling
	case "IMU_IDLE_INTERVAL":
		c.IMUIdleInterval, err = parseInt(key, value, 1, 60000)
	case "IMU_ACTIVE_INTERVAL":
		c.IMUActiveInterval, err = parseInt(key, value, 1, 60000)
	case "IMU_GRAVITY_ALPHA":
		var v float64
		v, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid IMU_GRAVITY_ALPHA %q: %w", value, err)
		}
		if v < 0 || v >= 1 {
			return fmt.Errorf("IMU_GRAVITY_ALPHA must be in [0,1), got %v", v)
		}
		c.IMUGravityAlpha = v

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value, 1, 4_000_000)
	case "GPS_MIN_SPEED_KNOTS":
		var v float64
		v, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid GPS_MIN_SPEED_KNOTS %q: %w", value, err)
		}
		c.GPSMinSpeedKnots = v

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)
	case "CORE_METRICS_PORT":
		c.CoreMetricsPort, err = parseInt(key, value, 0, 65535)

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 1, 60000)

	// Stroke / heading pipeline
	case "MOTION_THRESHOLD":
		c.MotionThreshold, err = parsePositiveFloat(key, value)
	case "IDLE_TIMEOUT_MS":
		c.IdleTimeoutMS, err = parseInt(key, value, 0, 3_600_000)
	case "ACCEL_PEAK_THRESHOLD":
		c.AccelPeakThreshold, err = parsePositiveFloat(key, value)
	case "MIN_PEAK_INTERVAL_MS":
		c.MinPeakIntervalMS, err = parseInt(key, value, 0, 60000)
	case "STROKES_PER_CYCLE":
		c.StrokesPerCycle, err = parseInt(key, value, 1, 1000)
	case "YAW_CHANGE_THRESHOLD_DEG":
		var v float64
		if v, err = parsePositiveFloat(key, value); err == nil && v >= 180 {
			err = fmt.Errorf("YAW_CHANGE_THRESHOLD_DEG must be below 180, got %v", v)
		}
		c.YawChangeThresholdDeg = v
	case "DEVIATION_COUNT_THRESHOLD":
		c.DeviationCountThreshold, err = parseInt(key, value, 1, 1000)
	case "HEADING_POLICY":
		c.HeadingPolicy, err = orientation.ParsePolicy(value)
	case "HEADING_BLEND":
		var v float64
		if v, err = parsePositiveFloat(key, value); err == nil && v > 1 {
			err = fmt.Errorf("HEADING_BLEND must be in (0,1], got %v", v)
		}
		c.HeadingBlend = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	return c.validatePipeline()
}

func (c *Config) validatePipeline() error {
	if c.IMUActiveInterval > c.IMUIdleInterval {
		return fmt.Errorf("IMU_ACTIVE_INTERVAL (%d) must not exceed IMU_IDLE_INTERVAL (%d)",
			c.IMUActiveInterval, c.IMUIdleInterval)
	}
	return nil
}

// Fusion builds the immutable pipeline configuration.
func (c *Config) Fusion() fusion.Config {
	return fusion.Config{
		MotionThreshold:         c.MotionThreshold,
		IdleTimeout:             time.Duration(c.IdleTimeoutMS) * time.Millisecond,
		PeakThreshold:           c.AccelPeakThreshold,
		MinPeakInterval:         time.Duration(c.MinPeakIntervalMS) * time.Millisecond,
		StrokesPerCycle:         c.StrokesPerCycle,
		YawChangeThresholdDeg:   c.YawChangeThresholdDeg,
		DeviationCountThreshold: c.DeviationCountThreshold,
		HeadingPolicy:           c.HeadingPolicy,
		HeadingBlend:            c.HeadingBlend,
	}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
