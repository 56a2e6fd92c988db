package edgepair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/edgepair/internal/catalog"
	"github.com/hejijunhao/edgepair/internal/config"
	"github.com/hejijunhao/edgepair/internal/connector"
	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
	"github.com/hejijunhao/edgepair/internal/engine/classifier"
	"github.com/hejijunhao/edgepair/internal/executor"
	"github.com/hejijunhao/edgepair/internal/health"
	"github.com/hejijunhao/edgepair/internal/metrics"
	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/narrative"
	"github.com/hejijunhao/edgepair/internal/orchestrator"
	"github.com/hejijunhao/edgepair/internal/pipeline"
	"github.com/hejijunhao/edgepair/internal/resolver"
	"github.com/hejijunhao/edgepair/internal/scrollback"

	// Register connector implementations.
	_ "github.com/hejijunhao/edgepair/internal/connector/replay"
	_ "github.com/hejijunhao/edgepair/internal/connector/wasmiot"
)

var (
	// ErrNoDeploymentMatch is returned when no registered deployment binds
	// the chosen modules to the device pair.
	ErrNoDeploymentMatch = resolver.ErrNoDeploymentMatch
	// ErrDeploymentRequestFailed matches a rejected or failed deploy request.
	ErrDeploymentRequestFailed = executor.ErrDeploymentRequestFailed
	// ErrExecutionRequestFailed matches a rejected or failed execute request.
	ErrExecutionRequestFailed = executor.ErrExecutionRequestFailed
)

// RequestError carries the orchestrator's response to a failed deploy or
// execute request.
type RequestError = executor.RequestError

// Demo wires log ingestion, narration and deployment control for one
// device pair.
type Demo struct {
	opts     options
	catalog  *catalog.Catalog
	orch     *orchestrator.Client
	scroll   *scrollback.Scrollback
	narr     *narrative.Channel
	narrator *narrative.Narrator
	pipe     *pipeline.Pipeline
	resolver *resolver.Resolver
	exec     *executor.Executor
	checker  *health.Checker
}

// New assembles a Demo. It performs no network I/O; call Load to pull the
// orchestrator catalogs and Run to start following device logs.
func New(opts ...Option) (*Demo, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.orchestratorURL = strings.TrimRight(o.orchestratorURL, "/")
	if o.orchestratorURL == "" {
		return nil, errors.New("edgepair: orchestrator URL is required")
	}
	if o.loggingEndpoint == "" {
		o.loggingEndpoint = o.orchestratorURL + "/device/logs"
	}
	if o.source == "" {
		o.source = o.loggingEndpoint
	}
	if len(o.devices) == 0 {
		for _, d := range config.DefaultRoster() {
			o.devices = append(o.devices, deviceFromModel(d))
		}
	}
	if len(o.labels) == 0 {
		o.labels = classifier.DefaultLabels()
	}

	roster := make([]model.Device, len(o.devices))
	names := make([]string, len(o.devices))
	for i, d := range o.devices {
		roster[i] = d.toModel()
		names[i] = d.Name
	}
	cat, err := catalog.New(roster)
	if err != nil {
		return nil, fmt.Errorf("edgepair: %w", err)
	}

	ctor, err := connector.Get(o.connector)
	if err != nil {
		return nil, fmt.Errorf("edgepair: %w", err)
	}

	var clientOpts []httpclient.Option
	var healthOpts []health.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.httpClient))
		healthOpts = append(healthOpts, health.WithHTTPClient(o.httpClient))
	}
	orch := orchestrator.New(o.orchestratorURL, clientOpts...)

	cls := classifier.New(classifier.Config{
		Roster:   names,
		BothName: catalog.OrchestratorName,
		Labels:   o.labels,
		Figures:  classifier.Figures(o.figures),
	})

	scroll := scrollback.New(scrollback.DefaultCapacity)
	narr := narrative.NewChannel(narrative.DefaultCapacity, narrative.WithOnEvict(func(model.NarrativeEntry) {
		metrics.NarrativeDropped.Inc()
	}))
	var narratorOpts []narrative.NarratorOption
	if o.rand != nil {
		narratorOpts = append(narratorOpts, narrative.WithRand(o.rand))
	}

	pipe := pipeline.New(ctor(), cls, scroll, narr, pipeline.WithOutput(o.output))

	return &Demo{
		opts:     o,
		catalog:  cat,
		orch:     orch,
		scroll:   scroll,
		narr:     narr,
		narrator: narrative.NewNarrator(narr, o.narrationDelay, narratorOpts...),
		pipe:     pipe,
		resolver: resolver.New(cat),
		exec:     executor.New(orch, cat, pipe),
		checker:  health.NewChecker(pipe, healthOpts...),
	}, nil
}

// Load pulls devices, modules and deployments from the orchestrator.
// Devices missing from the listing keep their configured address.
func (d *Demo) Load(ctx context.Context) error {
	return d.catalog.Load(ctx, d.orch)
}

// Run follows device logs until ctx is done. Failed polls are logged and
// retried on the next tick.
func (d *Demo) Run(ctx context.Context) error {
	slog.Info("following device logs", "connector", d.opts.connector, "source", d.opts.source, "delay", d.opts.pollDelay)
	return d.pipe.Stream(ctx, connector.ConnectorConfig{
		Provider:     d.opts.connector,
		Endpoint:     d.opts.source,
		PollInterval: d.opts.pollDelay,
	})
}

// Ingest routes a locally produced log line as if it had been polled.
// It reports whether the device belongs to the pair.
func (d *Demo) Ingest(ctx context.Context, l Log) bool {
	ts := l.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.UTC().Format(time.RFC3339Nano)
	return d.pipe.Ingest(ctx, model.LogRecord{
		DeviceName:   l.DeviceName,
		Message:      l.Message,
		Level:        l.Level,
		Timestamp:    stamp,
		DateReceived: stamp,
	})
}

// Render returns the scrollback of device idx (0 left, 1 right), oldest
// line first.
func (d *Demo) Render(idx int) string {
	return d.scroll.Render(idx)
}

// Narrative returns a channel of paced narrative entries. It is closed
// when ctx is done.
func (d *Demo) Narrative(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for e := range d.narrator.Stream(ctx) {
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			select {
			case out <- Entry{ID: id, Left: payloadFromModel(e.Left), Right: payloadFromModel(e.Right)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ResolveAndDeploy finds the deployment binding left and right to the
// device pair and deploys it. Errors match ErrNoDeploymentMatch or
// ErrDeploymentRequestFailed and are never retried.
func (d *Demo) ResolveAndDeploy(ctx context.Context, left, right string) (Deployment, error) {
	dep, err := d.resolver.Resolve(left, right)
	if err != nil {
		slog.Warn("deploy: no deployment", "left", left, "right", right, "error", err)
		return Deployment{}, err
	}
	return deploymentFromModel(dep), d.exec.Deploy(ctx, dep)
}

// ResolveAndRun is ResolveAndDeploy for execution. Failures match
// ErrNoDeploymentMatch or ErrExecutionRequestFailed.
func (d *Demo) ResolveAndRun(ctx context.Context, left, right string) (Deployment, error) {
	dep, err := d.resolver.Resolve(left, right)
	if err != nil {
		slog.Warn("run: no deployment", "left", left, "right", right, "error", err)
		return Deployment{}, err
	}
	return deploymentFromModel(dep), d.exec.Run(ctx, dep)
}

// Reset clears both scrollbacks and pending narrative entries. Catalogs
// are kept.
func (d *Demo) Reset() {
	d.scroll.Reset()
	d.narr.Reset()
	slog.Info("demo reset")
}

// Health probes the orchestrator and both devices concurrently.
func (d *Demo) Health(ctx context.Context) HealthReport {
	roster := d.catalog.Roster()
	targets := make([]health.Target, 0, len(roster)+1)
	for _, dev := range roster {
		targets = append(targets, health.Target{Name: dev.Name, Address: dev.Address})
	}
	targets = append(targets, health.Target{Name: catalog.OrchestratorName, Address: d.orch.BaseURL()})
	return reportFromHealth(d.checker.Check(ctx, targets))
}

// Devices returns the device pair, left first.
func (d *Demo) Devices() []Device {
	roster := d.catalog.Roster()
	out := make([]Device, len(roster))
	for i, dev := range roster {
		out[i] = deviceFromModel(dev)
	}
	return out
}

// Modules returns the module catalog.
func (d *Demo) Modules() []Module {
	mods := d.catalog.Modules()
	out := make([]Module, len(mods))
	for i, m := range mods {
		out[i] = Module{ID: m.ID, Name: m.Name}
	}
	return out
}

// Deployments returns the deployment catalog.
func (d *Demo) Deployments() []Deployment {
	deps := d.catalog.Deployments()
	out := make([]Deployment, len(deps))
	for i, dep := range deps {
		out[i] = deploymentFromModel(dep)
	}
	return out
}

// Close releases the mirror output.
func (d *Demo) Close() error {
	return d.pipe.Close()
}
