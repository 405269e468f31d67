package app

import (
	"sync"

	"github.com/relabs-tech/swim_computer/internal/config"
)

type published struct {
	topic   string
	payload string
}

// fakePublisher records everything published, in order.
type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{topic: topic, payload: string(payload)})
	return f.err
}

func (f *fakePublisher) on(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.msgs {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MQTTBroker = "tcp://localhost:1883"
	return cfg
}
