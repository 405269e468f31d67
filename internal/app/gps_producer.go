package app

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/gps"
	"github.com/relabs-tech/swim_computer/internal/sample"
)

// headingReader turns NMEA lines into published heading fixes.
type headingReader struct {
	pub      publisher
	topic    string
	minSpeed float64
	clock    func() int64
	lastFix  bool
}

// handleLine publishes a heading for a usable RMC line and reports whether it did.
func (h *headingReader) handleLine(line string) bool {
	fix, ok := gps.ParseRMC(line)
	if !ok {
		return false
	}
	yaw, ok := fix.Heading(h.minSpeed)
	if !ok {
		if h.lastFix {
			log.Printf("gps: no usable course (validity=%s speed=%.1fkn)", fix.Validity, fix.SpeedKnots)
		}
		h.lastFix = false
		return false
	}
	if !h.lastFix {
		log.Printf("gps: course available, %.1f°", yaw)
	}
	h.lastFix = true

	if err := publishSample(h.pub, h.topic, sample.AbsoluteOrientation{At: h.clock(), YawDeg: yaw}); err != nil {
		log.Printf("gps: MQTT publish error: %v", err)
	}
	return true
}

// run reads lines until the reader fails.
func (h *headingReader) run(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			h.handleLine(line)
		}
		if err != nil {
			return err
		}
	}
}

// RunGPSProducer opens the GPS serial port and publishes the course over
// ground as absolute heading fixes.
func RunGPSProducer() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		log.Printf("gps: WARNING: receiver not available on %s: %v", serialOpts.PortName, err)
		<-ctx.Done()
		return nil
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	h := &headingReader{
		pub:      mqttPublisher{client: client},
		topic:    cfg.TopicHeading,
		minSpeed: cfg.GPSMinSpeedKnots,
		clock:    newMonotonicClock().Now,
	}
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	if err := h.run(port); err != nil && ctx.Err() == nil {
		log.Printf("gps: read error: %v", err)
		return err
	}
	log.Println("gps: shutting down")
	return nil
}
