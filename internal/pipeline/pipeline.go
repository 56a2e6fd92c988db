package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hejijunhao/edgepair/internal/connector"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/narrative"
	"github.com/hejijunhao/edgepair/internal/output"
	"github.com/hejijunhao/edgepair/internal/scrollback"
)

// Classifier tags a record and derives its narrative entries.
type Classifier interface {
	Classify(rec model.LogRecord) (model.ClassifiedEvent, []model.NarrativeEntry)
}

// Pipeline feeds records from a connector, and records produced locally,
// through the classifier into the scrollback, the narrative channel and
// an optional mirror output.
type Pipeline struct {
	connector  connector.Connector
	classifier Classifier
	scroll     *scrollback.Scrollback
	narrative  *narrative.Channel
	output     output.Output

	mu          sync.Mutex // serializes Ingest so per-device order is kept
	skippedLogs atomic.Int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutput mirrors every routed event to out.
func WithOutput(out output.Output) Option {
	return func(p *Pipeline) { p.output = out }
}

// New creates a Pipeline from the given components. conn may be nil when
// records only arrive through Ingest.
func New(conn connector.Connector, cls Classifier, sb *scrollback.Scrollback, ch *narrative.Channel, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector:  conn,
		classifier: cls,
		scroll:     sb,
		narrative:  ch,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream ingests records from the connector as they arrive. Blocks until
// the context is cancelled or the connector closes its channel.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	if p.connector == nil {
		return fmt.Errorf("pipeline stream: no connector")
	}
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-ch:
			if !ok {
				return nil
			}
			p.Ingest(ctx, rec)
		}
	}
}

// Query backfills records matching params and returns how many were routed.
func (p *Pipeline) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) (int, error) {
	if p.connector == nil {
		return 0, fmt.Errorf("pipeline query: no connector")
	}
	recs, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		return 0, fmt.Errorf("pipeline query: %w", err)
	}
	n := 0
	for _, rec := range recs {
		if p.Ingest(ctx, rec) {
			n++
		}
	}
	return n, nil
}

// Ingest classifies one record and routes it. Records from devices outside
// the roster are skipped with a warning. Returns whether the record was routed.
func (p *Pipeline) Ingest(ctx context.Context, rec model.LogRecord) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	event, entries := p.classifier.Classify(rec)
	metrics.RecordsClassified.WithLabelValues(event.Rule).Inc()

	switch event.Side {
	case model.Left, model.Right:
		p.scroll.Append(event.Side.Index(), event)
	case model.Both:
		p.scroll.Append(model.Left.Index(), event)
		p.scroll.Append(model.Right.Index(), event)
	default:
		p.skippedLogs.Add(1)
		metrics.RecordsSkipped.WithLabelValues("unknown_device").Inc()
		slog.Warn("skipping log from unknown device", "device", rec.DeviceName, "message", rec.Message)
		return false
	}

	p.narrative.Push(entries...)

	if p.output != nil {
		if err := p.output.Write(ctx, event); err != nil {
			slog.Warn("output write failed", "device", rec.DeviceName, "error", err)
		}
	}
	return true
}

// Skipped returns the number of records dropped for an unknown device.
func (p *Pipeline) Skipped() int64 {
	return p.skippedLogs.Load()
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	if n := p.skippedLogs.Load(); n > 0 {
		slog.Info("pipeline closing", "skipped_logs", n)
	}
	if p.output == nil {
		return nil
	}
	return p.output.Close()
}
