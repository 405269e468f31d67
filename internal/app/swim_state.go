package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/swim_computer/internal/config"
	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/motion"
)

// swimState is the session as seen from the core's published events.
type swimState struct {
	Recording   bool        `json:"recording"`
	StrokeCount int         `json:"stroke_count"`
	Deviated    bool        `json:"deviated"`
	Rate        motion.Rate `json:"rate"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// swimView folds core output topics into a swimState. Safe for concurrent use.
type swimView struct {
	cfg *config.Config
	who string // log prefix

	mu    sync.RWMutex
	state swimState
}

func newSwimView(cfg *config.Config, who string) *swimView {
	return &swimView{cfg: cfg, who: who, state: swimState{Rate: motion.RateIdle}}
}

func (v *swimView) snapshot() swimState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// apply updates the view from one MQTT message. It reports false for
// unrelated topics and unreadable payloads.
func (v *swimView) apply(topic string, payload []byte) (swimState, bool) {
	var fn func(*swimState)

	switch topic {
	case v.cfg.TopicStrokes:
		var ev fusion.StrokeCountChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("%s: strokes payload: %v", v.who, err)
			return swimState{}, false
		}
		fn = func(s *swimState) { s.StrokeCount = ev.Count }
	case v.cfg.TopicDeviation:
		var ev fusion.CourseDeviationChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("%s: deviation payload: %v", v.who, err)
			return swimState{}, false
		}
		fn = func(s *swimState) { s.Deviated = ev.Deviated }
	case v.cfg.TopicSamplingRate:
		rate, err := decodeRate(payload)
		if err != nil {
			log.Printf("%s: sampling rate payload: %v", v.who, err)
			return swimState{}, false
		}
		fn = func(s *swimState) { s.Rate = rate }
	case v.cfg.TopicSessionState:
		var ss sessionState
		if err := json.Unmarshal(payload, &ss); err != nil {
			log.Printf("%s: session state payload: %v", v.who, err)
			return swimState{}, false
		}
		fn = func(s *swimState) {
			s.Recording = ss.Recording
			if !s.Recording {
				s.Deviated = false
			}
		}
	default:
		return swimState{}, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.state)
	v.state.UpdatedAt = time.Now()
	return v.state, true
}

// topics lists what a swimView wants to be subscribed to.
func (v *swimView) topics() []string {
	return []string{v.cfg.TopicStrokes, v.cfg.TopicDeviation, v.cfg.TopicSamplingRate, v.cfg.TopicSessionState}
}
