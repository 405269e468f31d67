package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/sample"
	"github.com/relabs-tech/swim_computer/internal/sensors"
)

// intervalFor maps a requested rate class to the IMU tick interval.
func intervalFor(cfg *config.Config, rate motion.Rate) time.Duration {
	if rate == motion.RateActive {
		return time.Duration(cfg.IMUActiveInterval) * time.Millisecond
	}
	return time.Duration(cfg.IMUIdleInterval) * time.Millisecond
}

// imuPump turns IMU readings into published samples.
type imuPump struct {
	reader  sensors.IMUReader
	gravity *sensors.GravityFilter
	pub     publisher
	cfg     *config.Config
	clock   func() int64
}

// retune restarts the gravity estimate; its time constant is per sample, so
// it no longer holds once the tick interval changes.
func (p *imuPump) retune() {
	p.gravity.Reset()
}

func (p *imuPump) tick() error {
	r, err := p.reader.Read()
	if err != nil {
		return err
	}
	at := p.clock()
	lin := p.gravity.Apply(r.Accel)

	if err := publishSample(p.pub, p.cfg.TopicAccel, sample.LinearAcceleration{At: at, X: lin[0], Y: lin[1], Z: lin[2]}); err != nil {
		log.Printf("imu: MQTT publish error (accel): %v", err)
	}
	if err := publishSample(p.pub, p.cfg.TopicGyro, sample.AngularVelocityZ{At: at, Z: r.GyroZ}); err != nil {
		log.Printf("imu: MQTT publish error (gyro): %v", err)
	}
	return nil
}

// RunIMUProducer reads the wrist IMU and publishes linear acceleration and
// yaw rate. The tick follows the rate class requested on TOPIC_SAMPLING_RATE.
func RunIMUProducer() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, err := sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		log.Printf("imu: WARNING: sensor not available: %v", err)
		<-ctx.Done()
		return nil
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDIMU)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("imu: connected to MQTT broker at %s", cfg.MQTTBroker)

	var requested atomic.Value
	requested.Store(motion.RateIdle)
	rateChanged := make(chan struct{}, 1)

	err = subscribe(client, cfg.TopicSamplingRate, func(_ mqtt.Client, msg mqtt.Message) {
		rate, err := decodeRate(msg.Payload())
		if err != nil {
			log.Printf("imu: sampling rate payload: %v", err)
			return
		}
		requested.Store(rate)
		select {
		case rateChanged <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	pump := &imuPump{
		reader:  reader,
		gravity: sensors.NewGravityFilter(cfg.IMUGravityAlpha),
		pub:     mqttPublisher{client: client},
		cfg:     cfg,
		clock:   newMonotonicClock().Now,
	}

	current := intervalFor(cfg, motion.RateIdle)
	ticker := time.NewTicker(current)
	defer ticker.Stop()
	log.Printf("imu: publishing every %s", current)

	for {
		select {
		case <-ctx.Done():
			log.Println("imu: shutting down")
			return nil
		case <-rateChanged:
			next := intervalFor(cfg, requested.Load().(motion.Rate))
			if next != current {
				current = next
				ticker.Reset(current)
				pump.retune()
				log.Printf("imu: sampling rate %s, publishing every %s", requested.Load(), current)
			}
		case <-ticker.C:
			if err := pump.tick(); err != nil {
				log.Printf("imu: read error: %v", err)
			}
		}
	}
}
