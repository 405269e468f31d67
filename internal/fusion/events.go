package fusion

import "github.com/relabs-tech/swim_computer/internal/motion"

// Event is emitted by Core towards the presentation layer.
type Event interface {
	fusionEvent()
}

// StrokeCountChanged carries the stroke counter of the current cycle.
type StrokeCountChanged struct {
	Count int `json:"count"`
}

// CourseDeviationChanged reports a confirmed (true) or cleared (false) deviation.
type CourseDeviationChanged struct {
	Deviated bool `json:"deviated"`
}

func (StrokeCountChanged) fusionEvent()     {}
func (CourseDeviationChanged) fusionEvent() {}

// RateController is the sensor-subscription collaborator. The core only asks
// for a rate class; honoring it is up to the implementation.
type RateController interface {
	RequestSamplingRate(rate motion.Rate)
}

// RateControllerFunc adapts a function to RateController.
type RateControllerFunc func(rate motion.Rate)

func (f RateControllerFunc) RequestSamplingRate(rate motion.Rate) { f(rate) }

type noRates struct{}

func (noRates) RequestSamplingRate(motion.Rate) {}
