package model

import "time"

// Side is a position in the two-device roster.
type Side int

const (
	Unknown Side = iota - 1 // device not in the roster
	Left                    // roster position 0
	Right                   // roster position 1
	Both                    // targets both devices
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left":
		*s = Left
	case "right":
		*s = Right
	case "both":
		*s = Both
	default:
		*s = Unknown
	}
	return nil
}

// Index returns the roster position for Left and Right, -1 otherwise.
func (s Side) Index() int {
	if s == Left || s == Right {
		return int(s)
	}
	return -1
}

// SideOf maps a roster index to a Side.
func SideOf(idx int) Side {
	switch idx {
	case 0:
		return Left
	case 1:
		return Right
	default:
		return Unknown
	}
}

// ClassifiedEvent is a LogRecord after message tagging, bound to a roster side.
type ClassifiedEvent struct {
	Record LogRecord `json:"record"`
	Side   Side      `json:"side"`
	Rule   string    `json:"rule"` // name of the classifier rule that matched
	Time   time.Time `json:"time"`
}
