// Package executor issues deploy and execute requests for a resolved
// deployment and reports progress into the log pipeline.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/edgepair/internal/catalog"
	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/orchestrator"
)

var (
	ErrDeploymentRequestFailed = errors.New("deployment request failed")
	ErrExecutionRequestFailed  = errors.New("execution request failed")
)

// Op names an orchestrator action.
type Op string

const (
	OpDeploy Op = "deploy"
	OpRun    Op = "run"
)

// RequestError is a failed deploy or execute request. Body carries the
// orchestrator's response verbatim; StatusCode is 0 for transport failures.
type RequestError struct {
	Op         Op
	Deployment model.DeploymentID
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Deployment, e.Err)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Op, e.Deployment, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is matches the sentinel for the request's operation.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrDeploymentRequestFailed:
		return e.Op == OpDeploy
	case ErrExecutionRequestFailed:
		return e.Op == OpRun
	}
	return false
}

// Orchestrator is the subset of the orchestrator client the executor needs.
type Orchestrator interface {
	Deploy(ctx context.Context, id model.DeploymentID) (orchestrator.Response, error)
	Execute(ctx context.Context, id model.DeploymentID) (orchestrator.Response, error)
}

// Emitter accepts locally produced log records. Ingest reports whether the
// record was routed to a device.
type Emitter interface {
	Ingest(ctx context.Context, rec model.LogRecord) bool
}

// Executor runs deployments against the orchestrator.
type Executor struct {
	orch Orchestrator
	cat  *catalog.Catalog
	emit Emitter
	now  func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the timestamp source for emitted records.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor.
func New(orch Orchestrator, cat *catalog.Catalog, emit Emitter, opts ...Option) *Executor {
	e := &Executor{orch: orch, cat: cat, emit: emit, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Deploy announces each step on its device, then requests deployment once.
// Failures are returned as *RequestError and never retried.
func (e *Executor) Deploy(ctx context.Context, d model.Deployment) error {
	return e.do(ctx, OpDeploy, d)
}

// Run announces each step's function, then requests execution once.
func (e *Executor) Run(ctx context.Context, d model.Deployment) error {
	return e.do(ctx, OpRun, d)
}

func (e *Executor) do(ctx context.Context, op Op, d model.Deployment) error {
	runID := uuid.NewString()
	log := slog.With("op", string(op), "deployment", d.ID, "run_id", runID)

	for _, s := range d.Sequence {
		e.emitTo(ctx, s.Device, model.LevelInfo, e.announce(op, s))
	}

	log.Info("sending orchestrator request")
	start := time.Now()

	var (
		resp orchestrator.Response
		err  error
	)
	if op == OpDeploy {
		resp, err = e.orch.Deploy(ctx, d.ID)
	} else {
		resp, err = e.orch.Execute(ctx, d.ID)
	}
	if err != nil {
		metrics.OrchestratorRequests.WithLabelValues(string(op), "failed").Inc()
		reqErr := &RequestError{Op: op, Deployment: d.ID, Err: err}
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) {
			reqErr.StatusCode = apiErr.StatusCode
			reqErr.Body = apiErr.Body
		}
		log.Error("orchestrator request failed", "error", reqErr, "duration", time.Since(start))
		return reqErr
	}

	metrics.OrchestratorRequests.WithLabelValues(string(op), "ok").Inc()
	log.Info("orchestrator request done", "device_responses", len(resp.DeviceResponses), "duration", time.Since(start))
	e.acknowledge(ctx, op, d, resp)
	return nil
}

func (e *Executor) announce(op Op, s model.Step) string {
	if op == OpDeploy {
		return "Deploying module " + e.cat.ModuleName(s.Module)
	}
	fn := s.Func
	if fn == "" {
		fn = e.cat.ModuleName(s.Module)
	}
	return "Running function " + fn
}

// acknowledge emits one status line per device response, in sequence order.
// Responses without per-device status get a single line on the first step's device.
func (e *Executor) acknowledge(ctx context.Context, op Op, d model.Deployment, resp orchestrator.Response) {
	verb := "Deployment"
	if op == OpRun {
		verb = "Execution"
	}

	if len(resp.DeviceResponses) == 0 {
		if len(d.Sequence) > 0 {
			e.emitTo(ctx, d.Sequence[0].Device, model.LevelInfo, verb+" requested")
		}
		return
	}

	seen := make(map[model.DeviceID]bool, len(resp.DeviceResponses))
	for _, s := range d.Sequence {
		dr, ok := resp.DeviceResponses[s.Device]
		if !ok || seen[s.Device] {
			continue
		}
		seen[s.Device] = true
		e.emitTo(ctx, s.Device, model.LevelInfo, statusLine(verb, dr))
	}
	for id, dr := range resp.DeviceResponses {
		if !seen[id] {
			e.emitTo(ctx, id, model.LevelInfo, statusLine(verb, dr))
		}
	}
}

func statusLine(verb string, dr orchestrator.DeviceResponse) string {
	status := dr.Data.Status
	if status == "" {
		status = "unknown"
	}
	return verb + " status: " + status
}

func (e *Executor) emitTo(ctx context.Context, dev model.DeviceID, level, msg string) {
	idx := e.cat.IndexOf(dev)
	if idx < 0 {
		slog.Warn("skipping message for device outside roster", "device", dev, "message", msg)
		return
	}
	ts := e.now().UTC().Format(time.RFC3339Nano)
	e.emit.Ingest(ctx, model.LogRecord{
		DeviceName:   e.cat.Roster()[idx].Name,
		Message:      msg,
		Level:        level,
		Timestamp:    ts,
		DateReceived: ts,
	})
}
