package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/sample"
)

// Session commands accepted on TOPIC_SESSION.
const (
	sessionStart = "start"
	sessionStop  = "stop"
)

// sessionState is published retained on TOPIC_SESSION_STATE so late
// subscribers see whether a session is running.
type sessionState struct {
	Recording bool `json:"recording"`
}

func encodeSessionState(recording bool) []byte {
	payload, _ := json.Marshal(sessionState{Recording: recording})
	return payload
}

// ratePayload is published on TOPIC_SAMPLING_RATE.
type ratePayload struct {
	Rate motion.Rate `json:"rate"`
}

// publisher is the part of an MQTT client the producers and the core need.
type publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client   mqtt.Client
	retained bool
}

func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, p.retained, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// connectMQTT connects to the configured broker with the given client ID.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// subscribe subscribes and waits for the broker to acknowledge.
func subscribe(client mqtt.Client, topic string, cb mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, cb)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// encodeEvent maps a fusion event to its topic and JSON payload.
func encodeEvent(cfg *config.Config, ev fusion.Event) (string, []byte, error) {
	var topic string
	switch ev.(type) {
	case fusion.StrokeCountChanged:
		topic = cfg.TopicStrokes
	case fusion.CourseDeviationChanged:
		topic = cfg.TopicDeviation
	default:
		return "", nil, fmt.Errorf("unknown event %T", ev)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", nil, err
	}
	return topic, payload, nil
}

func encodeRate(rate motion.Rate) []byte {
	payload, _ := json.Marshal(ratePayload{Rate: rate})
	return payload
}

func decodeRate(payload []byte) (motion.Rate, error) {
	var p ratePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", err
	}
	switch p.Rate {
	case motion.RateIdle, motion.RateActive:
		return p.Rate, nil
	default:
		return "", fmt.Errorf("unknown rate %q", p.Rate)
	}
}

func parseSessionCommand(payload []byte) (string, error) {
	cmd := strings.ToLower(strings.TrimSpace(string(payload)))
	switch cmd {
	case sessionStart, sessionStop:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown session command %q", cmd)
	}
}

// monotonicClock stamps samples in nanoseconds. It starts at the wall clock
// but advances with the monotonic reading, so it never goes backwards.
type monotonicClock struct {
	start time.Time
	base  int64
}

func newMonotonicClock() monotonicClock {
	now := time.Now()
	return monotonicClock{start: now, base: now.UnixNano()}
}

func (c monotonicClock) Now() int64 {
	return c.base + time.Since(c.start).Nanoseconds()
}

// publishSample marshals and publishes one sample.
func publishSample(pub publisher, topic string, s sample.Sample) error {
	payload, err := sample.Marshal(s)
	if err != nil {
		return err
	}
	return pub.Publish(topic, payload)
}
