package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a YAML profile. Keys that are absent keep their
// DefaultProfile value; unknown keys are an error.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("sim: read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile on top of DefaultProfile.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("sim: parse profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) validate() error {
	if p.StrokeRate < 0 {
		return fmt.Errorf("sim: stroke_rate must not be negative, got %v", p.StrokeRate)
	}
	if p.PeakAccel < 0 || p.Noise < 0 {
		return errors.New("sim: peak_accel and noise must not be negative")
	}
	if p.TurnAt < 0 || p.TurnDuration < 0 || p.RestAt < 0 || p.FixEvery < 0 {
		return errors.New("sim: durations must not be negative")
	}
	return nil
}
