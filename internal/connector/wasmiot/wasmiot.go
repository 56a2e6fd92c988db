// Package wasmiot polls the WasmIoT orchestrator logging endpoint.
package wasmiot

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hejijunhao/edgepair/internal/connector"
	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
)

const (
	providerName        = "wasmiot"
	defaultPollInterval = 500 * time.Millisecond
	cursorLayout        = "2006-01-02T15:04:05.000000Z07:00"
)

func init() {
	connector.Register(providerName, func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector for the orchestrator's
// GET <logging endpoint>?after=<ISO-8601> API.
type Connector struct {
	// now is the clock used for the initial cursor.
	now func() time.Time
}

func (c *Connector) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// formatCursor renders t as an ISO-8601 cursor value.
func formatCursor(t time.Time) string {
	return t.UTC().Format(cursorLayout)
}

func newClient(cfg connector.ConnectorConfig) (*httpclient.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("wasmiot connector: missing logging endpoint")
	}
	// Failed polls are retried by the next tick, not by the client.
	return httpclient.New(cfg.Endpoint, cfg.APIKey, httpclient.WithMaxRetries(0), httpclient.WithTimeout(10*time.Second)), nil
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.LogRecord, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	after := params.After
	if after.IsZero() {
		after = c.clock()
	}
	q := url.Values{}
	q.Set("after", formatCursor(after))

	var records []model.LogRecord
	if err := client.GetJSON(ctx, "", q, &records); err != nil {
		return nil, fmt.Errorf("wasmiot connector: %w", err)
	}
	if params.Limit > 0 && len(records) > params.Limit {
		records = records[:params.Limit]
	}
	return records, nil
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.LogRecord, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	cursor := formatCursor(c.clock())
	if raw := cfg.Extra["after"]; raw != "" {
		cursor = raw
	}

	ch := make(chan model.LogRecord, 64)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		cursor = poll(ctx, client, cursor, ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cursor = poll(ctx, client, cursor, ch)
			}
		}
	}()

	return ch, nil
}

// poll fetches records received after cursor, forwards them in order, and
// returns the dateReceived of the last record. Errors are logged and leave
// the cursor unchanged.
func poll(ctx context.Context, client *httpclient.Client, cursor string, ch chan<- model.LogRecord) string {
	q := url.Values{}
	q.Set("after", cursor)

	var records []model.LogRecord
	if err := client.GetJSON(ctx, "", q, &records); err != nil {
		if ctx.Err() == nil {
			metrics.PollErrors.WithLabelValues(providerName).Inc()
			slog.Warn("poll error", "connector", providerName, "error", err)
		}
		return cursor
	}
	if len(records) == 0 {
		return cursor
	}

	slog.Debug("received logs", "connector", providerName, "count", len(records))
	metrics.RecordsPolled.WithLabelValues(providerName).Add(float64(len(records)))

	for _, rec := range records {
		select {
		case ch <- rec:
		case <-ctx.Done():
			return cursor
		}
	}

	return nextCursor(cursor, records[len(records)-1])
}

// nextCursor advances to last.DateReceived, normalized to ISO-8601. An
// unparsable value keeps the previous cursor.
func nextCursor(cursor string, last model.LogRecord) string {
	t, ok := model.ParseTime(last.DateReceived)
	if !ok {
		slog.Warn("unparsable dateReceived, cursor not advanced",
			"connector", providerName, "dateReceived", last.DateReceived)
		return cursor
	}
	return formatCursor(t)
}
