package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hejijunhao/edgepair/internal/connector"
	"github.com/hejijunhao/edgepair/internal/engine/classifier"
	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/narrative"
	"github.com/hejijunhao/edgepair/internal/scrollback"
)

// --- mocks ---

// mockConnector is a minimal connector that sends pre-loaded logs.
type mockConnector struct {
	logs     []model.LogRecord
	queryErr error
}

func (m *mockConnector) Stream(_ context.Context, _ connector.ConnectorConfig) (<-chan model.LogRecord, error) {
	ch := make(chan model.LogRecord, len(m.logs))
	for _, rec := range m.logs {
		ch <- rec
	}
	close(ch)
	return ch, nil
}

func (m *mockConnector) Query(_ context.Context, _ connector.ConnectorConfig, _ connector.QueryParams) ([]model.LogRecord, error) {
	return m.logs, m.queryErr
}

type mockOutput struct {
	mu     sync.Mutex
	events []model.ClassifiedEvent
	err    error
	closed bool
}

func (m *mockOutput) Write(_ context.Context, e model.ClassifiedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return nil
}

func (m *mockOutput) Events() []model.ClassifiedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.ClassifiedEvent, len(m.events))
	copy(cp, m.events)
	return cp
}

func rec(device, msg string) model.LogRecord {
	return model.LogRecord{DeviceName: device, Message: msg, Level: "INFO", Timestamp: "2024-06-15T10:00:00.000Z"}
}

type fixture struct {
	sb  *scrollback.Scrollback
	ch  *narrative.Channel
	out *mockOutput
}

func newPipeline(conn connector.Connector) (*Pipeline, fixture) {
	f := fixture{
		sb:  scrollback.New(scrollback.DefaultCapacity),
		ch:  narrative.NewChannel(narrative.DefaultCapacity),
		out: &mockOutput{},
	}
	cls := classifier.New(classifier.Config{
		Roster:   []string{"raspi1", "raspi2"},
		BothName: "orchestrator",
		Labels:   classifier.DefaultLabels(),
	})
	return New(conn, cls, f.sb, f.ch, WithOutput(f.out)), f
}

func TestStreamRoutesByDevice(t *testing.T) {
	conn := &mockConnector{logs: []model.LogRecord{
		rec("raspi1", "Preparing module camera"),
		rec("raspi2", "Module run"),
		rec("raspi1", "Running function take_image"),
	}}
	p, f := newPipeline(conn)

	if err := p.Stream(context.Background(), connector.ConnectorConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.sb.Len(0) != 2 || f.sb.Len(1) != 1 {
		t.Fatalf("scrollback lengths = %d/%d, want 2/1", f.sb.Len(0), f.sb.Len(1))
	}
	left := f.sb.Events(0)
	if !strings.HasSuffix(left[0].Record.Message, "Preparing module camera") ||
		!strings.HasSuffix(left[1].Record.Message, "Running function take_image") {
		t.Fatalf("left scrollback out of order: %+v", left)
	}
	if f.ch.Len() != 2 {
		t.Fatalf("narrative length = %d, want 2", f.ch.Len())
	}
	if len(f.out.Events()) != 3 {
		t.Fatalf("output got %d events, want 3", len(f.out.Events()))
	}
}

func TestUnknownDeviceSkipped(t *testing.T) {
	conn := &mockConnector{logs: []model.LogRecord{
		rec("raspi1", "Preparing module camera"),
		rec("stranger", "Preparing module camera"),
		rec("stranger", "Module run"),
	}}
	p, f := newPipeline(conn)

	if err := p.Stream(context.Background(), connector.ConnectorConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Skipped() != 2 {
		t.Fatalf("expected 2 skipped logs, got %d", p.Skipped())
	}
	if f.ch.Len() != 1 || len(f.out.Events()) != 1 {
		t.Fatal("unknown device records must not reach narrative or output")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}
	if !f.out.closed {
		t.Fatal("output not closed")
	}
}

func TestOrchestratorRecordsReachBothSides(t *testing.T) {
	p, f := newPipeline(nil)

	p.Ingest(context.Background(), rec("orchestrator", "Deployment created"))

	if f.sb.Len(0) != 1 || f.sb.Len(1) != 1 {
		t.Fatalf("expected one event on each side, got %d/%d", f.sb.Len(0), f.sb.Len(1))
	}
}

func TestOutputErrorDoesNotStopRouting(t *testing.T) {
	p, f := newPipeline(nil)
	f.out.err = errors.New("disk full")

	if !p.Ingest(context.Background(), rec("raspi2", "Execution failed: boom")) {
		t.Fatal("record should be routed despite output failure")
	}
	if f.sb.Len(1) != 1 || f.ch.Len() != 1 {
		t.Fatal("scrollback and narrative should still receive the event")
	}
}

func TestQueryBackfill(t *testing.T) {
	conn := &mockConnector{logs: []model.LogRecord{
		rec("raspi1", "Module run"),
		rec("nobody", "Module run"),
	}}
	p, f := newPipeline(conn)

	n, err := p.Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || f.sb.Len(0) != 1 {
		t.Fatalf("routed %d, scrollback %d; want 1, 1", n, f.sb.Len(0))
	}
}

func TestQueryError(t *testing.T) {
	p, _ := newPipeline(&mockConnector{queryErr: errors.New("offline")})
	if _, err := p.Query(context.Background(), connector.ConnectorConfig{}, connector.QueryParams{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStreamWithoutConnector(t *testing.T) {
	p, _ := newPipeline(nil)
	if err := p.Stream(context.Background(), connector.ConnectorConfig{}); err == nil {
		t.Fatal("expected error without connector")
	}
}

func TestStreamContextCancel(t *testing.T) {
	blocking := &blockingConnector{}
	p, _ := newPipeline(blocking)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Stream(ctx, connector.ConnectorConfig{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type blockingConnector struct{}

func (blockingConnector) Stream(context.Context, connector.ConnectorConfig) (<-chan model.LogRecord, error) {
	return make(chan model.LogRecord), nil
}

func (blockingConnector) Query(context.Context, connector.ConnectorConfig, connector.QueryParams) ([]model.LogRecord, error) {
	return nil, nil
}

func TestConcurrentIngestSafe(t *testing.T) {
	p, f := newPipeline(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Ingest(context.Background(), rec("raspi1", "Module run"))
		}()
	}
	wg.Wait()

	if f.sb.Len(0) != 50 {
		t.Fatalf("got %d events, want 50", f.sb.Len(0))
	}
}
