package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

func baseEvent() model.ClassifiedEvent {
	return model.ClassifiedEvent{
		Record: model.LogRecord{
			DeviceName:   "raspi1",
			Message:      "🚀 Deployment created",
			Level:        "INFO",
			Timestamp:    "2024-06-15T10:20:30.123",
			DateReceived: "2024-06-15T10:20:30.200Z",
		},
		Side: model.Left,
		Rule: "deployment_created",
		Time: time.Date(2024, 6, 15, 10, 20, 30, 123e6, time.UTC),
	}
}

func TestFormatEventMinimal(t *testing.T) {
	l := FormatEvent(baseEvent(), Minimal)

	if l.Level != "" || l.Rule != "" || l.Timestamp != "" {
		t.Fatalf("Minimal should drop level, rule and timestamps: %+v", l)
	}
	if l.Device != "raspi1" || l.Message != "🚀 Deployment created" || l.Side != model.Left {
		t.Fatalf("core fields should be preserved: %+v", l)
	}
}

func TestFormatEventStandard(t *testing.T) {
	l := FormatEvent(baseEvent(), Standard)

	if l.Level != "INFO" || l.Rule != "deployment_created" {
		t.Fatalf("Standard should keep level and rule: %+v", l)
	}
	if l.Timestamp != "" || l.DateReceived != "" {
		t.Fatal("Standard should drop source timestamps")
	}
}

func TestFormatEventFull(t *testing.T) {
	l := FormatEvent(baseEvent(), Full)

	if l.Timestamp == "" || l.DateReceived == "" {
		t.Fatalf("Full should keep source timestamps: %+v", l)
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in   string
		want Verbosity
		err  bool
	}{
		{"minimal", Minimal, false},
		{"", Standard, false},
		{"STANDARD", Standard, false},
		{"full", Full, false},
		{"loud", Standard, true},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestJSONTagNames(t *testing.T) {
	data, err := json.Marshal(FormatEvent(baseEvent(), Full))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"time", "device", "side", "message", "level", "rule", "timestamp", "dateReceived"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected key %q in JSON", key)
		}
	}
	if m["side"] != "left" {
		t.Fatalf("side should marshal as text, got %v", m["side"])
	}
}
