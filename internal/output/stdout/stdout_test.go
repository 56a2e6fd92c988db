package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/output"
)

func testEvent() model.ClassifiedEvent {
	return model.ClassifiedEvent{
		Record: model.LogRecord{DeviceName: "raspi2", Message: "🔴 Execution failed: <oom>", Level: "ERROR"},
		Side:   model.Right,
		Rule:   "execution_failed",
		Time:   time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

// captureStdout redirects os.Stdout to capture output.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestOutputCompactJSON(t *testing.T) {
	result := captureStdout(func() {
		out := New(output.Standard, false)
		out.Write(context.Background(), testEvent())
	})

	// Should be single line (NDJSON).
	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["device"] != "raspi2" || m["side"] != "right" {
		t.Fatalf("unexpected fields: %v", m)
	}
	if !strings.Contains(lines[0], "<oom>") {
		t.Fatal("HTML characters should not be escaped")
	}
}

func TestOutputPrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, true)
	out.Write(context.Background(), testEvent())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected multi-line pretty output, got %d lines", len(lines))
	}
}

func TestOutputMinimalOmitsFields(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Minimal, false)
	out.Write(context.Background(), testEvent())

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := m["rule"]; ok {
		t.Fatal("rule should be omitted at Minimal")
	}
	if _, ok := m["level"]; ok {
		t.Fatal("level should be omitted at Minimal")
	}
	if m["message"] != "🔴 Execution failed: <oom>" {
		t.Fatalf("message should be preserved, got %v", m["message"])
	}
}
