package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hejijunhao/edgepair/internal/connector"
)

const sample = `{"deviceName":"raspi1","message":"Preparing module camera","timestamp":"2024-06-15T10:00:01Z","level":"INFO","dateReceived":"2024-06-15T10:00:01Z"}
not json

{"deviceName":"raspi2","message":"Module run","timestamp":"2024-06-15T10:00:02Z","level":"INFO","dateReceived":"2024-06-15T10:00:02Z"}
{"deviceName":"raspi2","message":"Deployment created","timestamp":"2024-06-15T10:00:03Z","level":"INFO","dateReceived":"2024-06-15T10:00:03Z"}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs.ndjson")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStreamInFileOrder(t *testing.T) {
	c := &Connector{}
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{Endpoint: writeSample(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var msgs []string
	for rec := range ch {
		msgs = append(msgs, rec.Message)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 records (malformed skipped), got %d: %v", len(msgs), msgs)
	}
	if msgs[0] != "Preparing module camera" || msgs[2] != "Deployment created" {
		t.Fatalf("unexpected order: %v", msgs)
	}
}

func TestStreamCancel(t *testing.T) {
	c := &Connector{}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.Stream(ctx, connector.ConnectorConfig{Endpoint: writeSample(t), PollInterval: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-ch
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not stop")
	}
}

func TestQueryAfterAndLimit(t *testing.T) {
	c := &Connector{}
	after := time.Date(2024, 6, 15, 10, 0, 1, 0, time.UTC)
	recs, err := c.Query(context.Background(), connector.ConnectorConfig{Endpoint: writeSample(t)}, connector.QueryParams{After: after, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Message != "Module run" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestMissingFile(t *testing.T) {
	c := &Connector{}
	if _, err := c.Stream(context.Background(), connector.ConnectorConfig{Endpoint: "/nonexistent/logs.ndjson"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.Stream(context.Background(), connector.ConnectorConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
