package model

import "time"

// Log levels emitted by WasmIoT supervisors and the orchestrator.
const (
	LevelInfo    = "INFO"
	LevelError   = "ERROR"
	LevelWarning = "WARNING"
	LevelDebug   = "DEBUG"
)

// LogRecord is a structured log line as served by the orchestrator logging
// endpoint. Only Message is rewritten after receipt (by the classifier).
type LogRecord struct {
	DeviceName   string `json:"deviceName"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`              // ISO-8601
	Level        string `json:"level,omitempty"`        // INFO, ERROR, WARNING, DEBUG
	DateReceived string `json:"dateReceived,omitempty"` // ISO-8601, poll cursor source
}

// isoLayouts covers RFC 3339 plus the zone-less and space-separated forms
// some device supervisors emit.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime parses an ISO-8601 timestamp. Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time returns the record timestamp, falling back to DateReceived.
func (r LogRecord) Time() time.Time {
	if t, ok := ParseTime(r.Timestamp); ok {
		return t
	}
	t, _ := ParseTime(r.DateReceived)
	return t
}
