package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/swim_computer/internal/config"
)

const (
	panelWidth  = 128
	panelHeight = 64
)

// addrBus sends every transaction to addr. The ssd1306 driver always
// talks to 0x3C; panels strapped to 0x3D need the rewrite.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func newPanel() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, panelWidth, panelHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderSwimPanel draws the session status for a 128x64 panel.
func renderSwimPanel(st swimState) *image1bit.VerticalLSB {
	img, d := newPanel()

	if !st.Recording {
		drawLine(d, 0, 13, "Swim: stopped")
		drawLine(d, 0, 39, fmt.Sprintf("Last: %d", st.StrokeCount))
		return img
	}

	drawLine(d, 0, 13, "Swim: recording")
	drawLine(d, 0, 30, fmt.Sprintf("Strokes: %d", st.StrokeCount))
	if st.Deviated {
		drawLine(d, 0, 47, ">> OFF COURSE <<")
	} else {
		drawLine(d, 0, 47, "Course: ok")
	}
	drawLine(d, 0, 62, fmt.Sprintf("IMU: %s", st.Rate))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newPanel()
	drawLine(d, 10, 26, "Swim Computer")
	drawLine(d, 5, 43, "Waiting for")
	drawLine(d, 25, 56, "session")
	return img
}

func drawPanel(dev *ssd1306.Dev, img *image1bit.VerticalLSB) error {
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay shows the session status on the SSD1306 panel.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := drawPanel(dev, renderSplash()); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	view := newSwimView(cfg, "display")
	for _, topic := range view.topics() {
		err := subscribe(client, topic, func(_ mqtt.Client, msg mqtt.Message) {
			view.apply(msg.Topic(), msg.Payload())
		})
		if err != nil {
			return err
		}
		log.Printf("display: subscribed to %s", topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	log.Println("display: starting update loop")

	var last swimState
	drawn := false
	for {
		select {
		case <-ctx.Done():
			log.Println("display: shutting down")
			return dev.Halt()
		case <-ticker.C:
			st := view.snapshot()
			if drawn && st == last {
				continue
			}
			if err := drawPanel(dev, renderSwimPanel(st)); err != nil {
				log.Printf("display: error updating display: %v", err)
				continue
			}
			last, drawn = st, true
		}
	}
}
