package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/swim_computer/internal/config"
)

// dashboard serves a swimView to browsers and relays session commands
// from the browser back onto MQTT.
type dashboard struct {
	cfg  *config.Config
	pub  publisher
	view *swimView
	hub  *wsHub
}

func newDashboard(cfg *config.Config, pub publisher) *dashboard {
	return &dashboard{
		cfg:  cfg,
		pub:  pub,
		view: newSwimView(cfg, "web"),
		hub:  newWSHub(),
	}
}

func (d *dashboard) onMessage(topic string, payload []byte) {
	st, ok := d.view.apply(topic, payload)
	if !ok {
		return
	}
	msg, err := json.Marshal(st)
	if err != nil {
		log.Printf("web: state marshal error: %v", err)
		return
	}
	d.hub.broadcast(msg)
}

func (d *dashboard) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(d.view.snapshot()); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	mux.HandleFunc("POST /api/session/{cmd}", func(w http.ResponseWriter, r *http.Request) {
		cmd, err := parseSessionCommand([]byte(r.PathValue("cmd")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := d.pub.Publish(d.cfg.TopicSession, []byte(cmd)); err != nil {
			log.Printf("web: MQTT publish error (session): %v", err)
			http.Error(w, "broker unavailable", http.StatusBadGateway)
			return
		}
		log.Printf("web: session %s requested from %s", cmd, r.RemoteAddr)
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		initial, err := json.Marshal(d.view.snapshot())
		if err != nil {
			conn.Close()
			return
		}
		d.hub.serve(conn, initial)
	})

	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// RunWeb serves the swim dashboard on WEB_SERVER_PORT.
func RunWeb() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	d := newDashboard(cfg, mqttPublisher{client: client})
	onMsg := func(_ mqtt.Client, msg mqtt.Message) {
		d.onMessage(msg.Topic(), msg.Payload())
	}
	for _, topic := range d.view.topics() {
		if err := subscribe(client, topic, onMsg); err != nil {
			return err
		}
		log.Printf("web: subscribed to %s", topic)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           d.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		d.hub.closeAll()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("web: shutting down")
	return nil
}
