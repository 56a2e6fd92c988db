package multi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	events []model.ClassifiedEvent
	closed bool
	err    error // if set, Write and Close return this error
}

func (m *mockOutput) Write(_ context.Context, event model.ClassifiedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testEvent(device, msg string) model.ClassifiedEvent {
	return model.ClassifiedEvent{
		Record: model.LogRecord{DeviceName: device, Message: msg},
		Side:   model.Left,
		Time:   time.Now(),
	}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b, c := &mockOutput{}, &mockOutput{}, &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), testEvent("raspi1", "Module run")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.events) != 1 {
			t.Fatalf("output %d: got %d events, want 1", i, len(out.events))
		}
		if out.events[0].Record.Message != "Module run" {
			t.Errorf("output %d: got message %q", i, out.events[0].Record.Message)
		}
	}
}

func TestNilOutputsIgnored(t *testing.T) {
	a := &mockOutput{}
	m := New(nil, a, nil)
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
	if err := m.Write(context.Background(), testEvent("raspi1", "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testEvent("raspi2", "Execution failed: boom"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "output 0: disk full") {
		t.Fatalf("error should name the failing output: %v", err)
	}
	if len(healthy.events) != 1 {
		t.Fatalf("healthy output got %d events, want 1", len(healthy.events))
	}
	if len(failing.events) != 1 {
		t.Fatalf("failing output got %d events, want 1", len(failing.events))
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestEmptyMulti(t *testing.T) {
	m := New()
	if err := m.Write(context.Background(), testEvent("raspi1", "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
