// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/metrics"
	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/sample"
)

// coreInput is one item for the core loop: either a sample or a session command.
type coreInput struct {
	sample  sample.Sample
	command string
}

// coreNode owns the fusion core. Only run() touches it.
type coreNode struct {
	cfg  *config.Config
	pub  publisher
	core *fusion.Core
	in   chan coreInput
}

func newCoreNode(cfg *config.Config, pub publisher, logger *log.Logger) *coreNode {
	n := &coreNode{
		cfg: cfg,
		pub: pub,
		in:  make(chan coreInput, 1024),
	}
	n.core = fusion.New(cfg.Fusion(),
		fusion.WithLogger(logger),
		fusion.WithRateController(fusion.RateControllerFunc(n.publishRate)),
	)
	return n
}

// enqueue is called from MQTT callbacks. A full queue drops the input rather
// than blocking the client's router.
func (n *coreNode) enqueue(in coreInput) {
	select {
	case n.in <- in:
	default:
		metrics.IncDropped()
		log.Printf("core: input queue full, dropping %T", in.sample)
	}
}

func (n *coreNode) onSample(_ mqtt.Client, msg mqtt.Message) {
	s, err := sample.Unmarshal(msg.Payload())
	if err != nil {
		log.Printf("core: %s: %v", msg.Topic(), err)
		return
	}
	n.enqueue(coreInput{sample: s})
}

func (n *coreNode) onSession(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := parseSessionCommand(msg.Payload())
	if err != nil {
		log.Printf("core: %v", err)
		return
	}
	n.enqueue(coreInput{command: cmd})
}

// run dispatches inputs until ctx is done. A running session is stopped on
// the way out so subscribers see the deviation cleared.
func (n *coreNode) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n.core.Recording() {
				n.publishEvents(n.core.StopRecording())
				metrics.SetSessionActive(false)
				n.publishSessionState(false)
			}
			return
		case in := <-n.in:
			n.handle(in)
		}
	}
}

func (n *coreNode) handle(in coreInput) {
	switch in.command {
	case sessionStart:
		n.core.StartRecording()
		metrics.SetSessionActive(true)
		n.publishSessionState(true)
		n.publishEvents([]fusion.Event{fusion.StrokeCountChanged{Count: 0}})
		return
	case sessionStop:
		n.publishEvents(n.core.StopRecording())
		metrics.SetSessionActive(false)
		n.publishSessionState(false)
		return
	}
	if in.sample != nil {
		metrics.ObserveSample(sample.TypeOf(in.sample))
		n.publishEvents(n.core.Dispatch(in.sample))
	}
}

func (n *coreNode) publishEvents(events []fusion.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case fusion.StrokeCountChanged:
			metrics.ObserveStroke(e.Count)
		case fusion.CourseDeviationChanged:
			metrics.ObserveDeviation(e.Deviated)
		}
		topic, payload, err := encodeEvent(n.cfg, ev)
		if err != nil {
			log.Printf("core: %v", err)
			continue
		}
		if err := n.pub.Publish(topic, payload); err != nil {
			log.Printf("core: MQTT publish error (%s): %v", topic, err)
		}
	}
}

func (n *coreNode) publishSessionState(recording bool) {
	if err := n.pub.Publish(n.cfg.TopicSessionState, encodeSessionState(recording)); err != nil {
		log.Printf("core: MQTT publish error (%s): %v", n.cfg.TopicSessionState, err)
	}
}

func (n *coreNode) publishRate(rate motion.Rate) {
	metrics.ObserveRate(string(rate))
	if err := n.pub.Publish(n.cfg.TopicSamplingRate, encodeRate(rate)); err != nil {
		log.Printf("core: MQTT publish error (%s): %v", n.cfg.TopicSamplingRate, err)
	}
}

// RunSwimCore subscribes to the sample and session topics and publishes
// stroke, deviation and sampling-rate updates until SIGINT/SIGTERM.
func RunSwimCore() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCore)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("core: connected to MQTT broker at %s", cfg.MQTTBroker)

	node := newCoreNode(cfg, mqttPublisher{client: client, retained: true}, log.Default())

	for _, topic := range []string{cfg.TopicAccel, cfg.TopicGyro, cfg.TopicHeading} {
		if err := subscribe(client, topic, node.onSample); err != nil {
			return err
		}
		log.Printf("core: subscribed to %s", topic)
	}
	if err := subscribe(client, cfg.TopicSession, node.onSession); err != nil {
		return err
	}
	log.Printf("core: subscribed to %s, waiting for %q", cfg.TopicSession, sessionStart)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CoreMetricsPort > 0 {
		go serveMetrics(ctx, cfg.CoreMetricsPort)
	}

	node.run(ctx)
	log.Println("core: shutting down")
	return nil
}

// serveMetrics exposes Prometheus metrics until ctx is done.
func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Printf("core: metrics on %s/metrics", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("core: metrics server: %v", err)
	}
}
