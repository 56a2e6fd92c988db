package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Verbosity controls how many fields a serialized event carries.
type Verbosity int

const (
	Minimal  Verbosity = iota // time, device, side, message
	Standard                  // plus level and rule
	Full                      // plus the source timestamps
)

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	}
	return Standard, fmt.Errorf("unknown verbosity %q", s)
}

// Line is the serialized form of a classified event.
type Line struct {
	Time         time.Time  `json:"time"`
	Device       string     `json:"device"`
	Side         model.Side `json:"side"`
	Message      string     `json:"message"`
	Level        string     `json:"level,omitempty"`
	Rule         string     `json:"rule,omitempty"`
	Timestamp    string     `json:"timestamp,omitempty"`
	DateReceived string     `json:"dateReceived,omitempty"`
}

// FormatEvent flattens the event, dropping fields according to verbosity.
func FormatEvent(e model.ClassifiedEvent, verbosity Verbosity) Line {
	l := Line{
		Time:    e.Time,
		Device:  e.Record.DeviceName,
		Side:    e.Side,
		Message: e.Record.Message,
	}
	if verbosity >= Standard {
		l.Level = e.Record.Level
		l.Rule = e.Rule
	}
	if verbosity >= Full {
		l.Timestamp = e.Record.Timestamp
		l.DateReceived = e.Record.DateReceived
	}
	return l
}
