package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/fusion"
)

// formatEvent renders a core event as one console line.
func formatEvent(ev fusion.Event) string {
	switch e := ev.(type) {
	case fusion.StrokeCountChanged:
		return fmt.Sprintf("[STROKE] count=%d", e.Count)
	case fusion.CourseDeviationChanged:
		if e.Deviated {
			return "[COURSE] deviated"
		}
		return "[COURSE] back on course"
	default:
		return fmt.Sprintf("[?] %T", ev)
	}
}

// formatState renders a swimView update as one console line.
func formatState(topic string, st swimState, cfg *config.Config) string {
	switch topic {
	case cfg.TopicStrokes:
		return formatEvent(fusion.StrokeCountChanged{Count: st.StrokeCount})
	case cfg.TopicDeviation:
		return formatEvent(fusion.CourseDeviationChanged{Deviated: st.Deviated})
	case cfg.TopicSamplingRate:
		return fmt.Sprintf("[RATE  ] %s", st.Rate)
	case cfg.TopicSessionState:
		if st.Recording {
			return "[SESSION] recording"
		}
		return "[SESSION] stopped"
	default:
		return ""
	}
}

// RunConsoleMQTT prints everything the core publishes.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	view := newSwimView(cfg, "console")
	for _, topic := range view.topics() {
		err := subscribe(client, topic, func(_ mqtt.Client, msg mqtt.Message) {
			if st, ok := view.apply(msg.Topic(), msg.Payload()); ok {
				fmt.Println(formatState(msg.Topic(), st, cfg))
			}
		})
		if err != nil {
			return err
		}
		log.Printf("console: subscribed to %s", topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("console: shutting down")
	return nil
}
