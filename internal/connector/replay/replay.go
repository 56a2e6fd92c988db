// Package replay streams log records from an NDJSON file, for offline demos.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hejijunhao/edgepair/internal/connector"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
)

const providerName = "replay"

func init() {
	connector.Register(providerName, func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector over a file of one JSON
// LogRecord per line. cfg.Endpoint is the file path; cfg.PollInterval, when
// set, is the pause between records.
type Connector struct{}

func readAll(path string) ([]model.LogRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("replay connector: missing file path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay connector: %w", err)
	}
	defer f.Close()

	var records []model.LogRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec model.LogRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			slog.Warn("skipping malformed record", "connector", providerName, "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay connector: %w", err)
	}
	return records, nil
}

func (c *Connector) Query(_ context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.LogRecord, error) {
	records, err := readAll(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	var out []model.LogRecord
	for _, rec := range records {
		if !params.After.IsZero() {
			if t, ok := model.ParseTime(rec.DateReceived); ok && !t.After(params.After) {
				continue
			}
		}
		out = append(out, rec)
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
	}
	return out, nil
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.LogRecord, error) {
	records, err := readAll(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	ch := make(chan model.LogRecord)
	go func() {
		defer close(ch)
		for i, rec := range records {
			if i > 0 && cfg.PollInterval > 0 {
				t := time.NewTimer(cfg.PollInterval)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case ch <- rec:
				metrics.RecordsPolled.WithLabelValues(providerName).Inc()
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
