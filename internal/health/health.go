// Package health probes the orchestrator and the roster devices.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
)

// DefaultTimeout bounds each probe.
const DefaultTimeout = 3 * time.Second

// ErrHealthCheckTimeout marks a probe that did not answer in time.
var ErrHealthCheckTimeout = errors.New("health check timed out")

// Target is one probed endpoint. Address is a base URL.
type Target struct {
	Name    string
	Address string
}

// Result is the outcome of a single probe.
type Result struct {
	Target Target `json:"-"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	err    error
}

// Err returns the probe failure, if any.
func (r Result) Err() error { return r.err }

// Report aggregates a round of probes. OK is true only when every probe passed.
type Report struct {
	OK      bool     `json:"ok"`
	Results []Result `json:"results"`
}

// Emitter accepts locally produced log records. Ingest reports whether the
// record was routed to a device.
type Emitter interface {
	Ingest(ctx context.Context, rec model.LogRecord) bool
}

// Checker probes targets concurrently.
type Checker struct {
	emit    Emitter
	timeout time.Duration
	hc      *http.Client
	now     func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) { c.hc = hc }
}

// NewChecker creates a Checker. emit may be nil.
func NewChecker(emit Emitter, opts ...Option) *Checker {
	c := &Checker{emit: emit, timeout: DefaultTimeout, hc: &http.Client{}, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check probes GET {address}/health on every target in parallel. A failed
// or timed-out probe marks only its own result; the report is OK when all
// probes succeed.
func (c *Checker) Check(ctx context.Context, targets []Target) Report {
	results := make([]Result, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.probe(ctx, t)
		}()
	}
	wg.Wait()

	report := Report{OK: true, Results: results}
	for _, r := range results {
		if !r.OK {
			report.OK = false
		}
	}
	slog.Info("health check done", "ok", report.OK, "targets", len(targets))
	return report
}

func (c *Checker) probe(ctx context.Context, t Target) Result {
	url := t.Address + "/health"
	res := Result{Target: t, Name: t.Name, URL: url}
	c.record(ctx, t.Name, model.LevelInfo, "🔍 Health check to "+url)

	if t.Address == "" {
		res.err = errors.New("no address")
		res.Error = res.err.Error()
		metrics.HealthProbes.WithLabelValues(t.Name, "failed").Inc()
		return res
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := httpclient.New(t.Address, "", httpclient.WithHTTPClient(c.hc), httpclient.WithMaxRetries(0))
	err := client.Ping(pctx, "/health")
	switch {
	case err == nil:
		res.OK = true
		metrics.HealthProbes.WithLabelValues(t.Name, "ok").Inc()
		return res
	case isTimeout(err):
		res.err = ErrHealthCheckTimeout
		c.record(ctx, t.Name, model.LevelError, "🤕 Health check failed: Timeout connecting to "+url)
		metrics.HealthProbes.WithLabelValues(t.Name, "timeout").Inc()
	default:
		res.err = err
		c.record(ctx, t.Name, model.LevelError, "🤕 Health check failed: "+err.Error())
		metrics.HealthProbes.WithLabelValues(t.Name, "failed").Inc()
	}
	res.Error = res.err.Error()
	slog.Warn("health probe failed", "target", t.Name, "url", url, "error", res.err)
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Checker) record(ctx context.Context, name, level, msg string) {
	if c.emit == nil {
		return
	}
	ts := c.now().UTC().Format(time.RFC3339Nano)
	c.emit.Ingest(ctx, model.LogRecord{
		DeviceName:   name,
		Message:      msg,
		Level:        level,
		Timestamp:    ts,
		DateReceived: ts,
	})
}
