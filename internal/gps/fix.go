package gps

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Fix represents a single GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground, true north
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// FixFromRMC copies the fields we use out of an RMC sentence.
func FixFromRMC(m nmea.RMC) Fix {
	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Validity:   m.Validity,
	}
}

// ParseRMC parses one NMEA line and returns the fix if it is an RMC sentence.
// Other sentences, partial lines and checksum failures report ok=false.
func ParseRMC(line string) (Fix, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false
	}
	return FixFromRMC(sentence.(nmea.RMC)), true
}

// Heading returns the course over ground as a heading fix. Course is only
// meaningful while the receiver has a valid fix and is actually moving.
func (f Fix) Heading(minSpeedKnots float64) (float64, bool) {
	if f.Validity != nmea.ValidRMC {
		return 0, false
	}
	if f.SpeedKnots < minSpeedKnots {
		return 0, false
	}
	return f.CourseDeg, true
}
