package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/sample"
	"github.com/relabs-tech/swim_computer/internal/sim"
)

// SimOptions controls a simulated swim.
type SimOptions struct {
	Duration time.Duration // simulated swim length
	Step     time.Duration // simulated time between samples
	Speed    float64       // playback speed; 0 runs as fast as possible
	Profile  sim.Profile
}

// DefaultSimOptions swims the default profile for two minutes at 50 Hz, in real time.
func DefaultSimOptions() SimOptions {
	return SimOptions{
		Duration: 2 * time.Minute,
		Step:     20 * time.Millisecond,
		Speed:    1,
		Profile:  sim.DefaultProfile(),
	}
}

// replaySwim steps a simulated swimmer from 0 to opts.Duration and hands
// every sample to emit. Timestamps are offset by epoch.
func replaySwim(ctx context.Context, opts SimOptions, epoch int64, emit func(sample.Sample)) error {
	if opts.Step <= 0 {
		return errors.New("sim: step must be positive")
	}
	swimmer := sim.NewSwimmer(opts.Profile)

	var tick <-chan time.Time
	if opts.Speed > 0 {
		ticker := time.NewTicker(time.Duration(float64(opts.Step) / opts.Speed))
		defer ticker.Stop()
		tick = ticker.C
	}

	for at := time.Duration(0); at <= opts.Duration; at += opts.Step {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range swimmer.Step(epoch, at) {
			emit(s)
		}
	}
	return nil
}

// sampleTopic returns where a sample is published.
func sampleTopic(cfg *config.Config, s sample.Sample) string {
	switch s.(type) {
	case sample.LinearAcceleration:
		return cfg.TopicAccel
	case sample.AngularVelocityZ:
		return cfg.TopicGyro
	case sample.AbsoluteOrientation:
		return cfg.TopicHeading
	default:
		return ""
	}
}

// runSimulatedSession brackets a replayed swim with session commands.
func runSimulatedSession(ctx context.Context, cfg *config.Config, pub publisher, opts SimOptions) error {
	if err := pub.Publish(cfg.TopicSession, []byte(sessionStart)); err != nil {
		return err
	}
	defer func() {
		if err := pub.Publish(cfg.TopicSession, []byte(sessionStop)); err != nil {
			log.Printf("simulator: MQTT publish error (session stop): %v", err)
		}
	}()

	errCount := 0
	err := replaySwim(ctx, opts, time.Now().UnixNano(), func(s sample.Sample) {
		if err := publishSample(pub, sampleTopic(cfg, s), s); err != nil {
			if errCount == 0 {
				log.Printf("simulator: MQTT publish error: %v", err)
			}
			errCount++
		}
	})
	if errCount > 0 {
		log.Printf("simulator: %d samples failed to publish", errCount)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunSimulator publishes a simulated swim in place of the wrist sensors.
func RunSimulator(opts SimOptions) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDSimulator)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("simulator: connected to MQTT broker at %s", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("simulator: swimming %s at %.1fx", opts.Duration, opts.Speed)
	if err := runSimulatedSession(ctx, cfg, mqttPublisher{client: client}, opts); err != nil {
		return err
	}
	log.Println("simulator: done")
	return nil
}
