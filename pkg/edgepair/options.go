package edgepair

import (
	"net/http"
	"time"

	"github.com/hejijunhao/edgepair/internal/output"
)

type options struct {
	orchestratorURL string
	loggingEndpoint string
	pollDelay       time.Duration
	narrationDelay  time.Duration
	devices         []Device
	labels          []string
	figures         Figures
	connector       string
	source          string
	output          output.Output
	httpClient      *http.Client
	rand            func() float64
}

// Option configures a Demo.
type Option func(*options)

// WithOrchestratorURL sets the orchestrator base URL. Default: http://localhost:3000.
func WithOrchestratorURL(u string) Option {
	return func(o *options) { o.orchestratorURL = u }
}

// WithLoggingEndpoint sets the log polling URL. Default: <orchestrator>/device/logs.
func WithLoggingEndpoint(u string) Option {
	return func(o *options) { o.loggingEndpoint = u }
}

// WithPollDelay sets the delay between log polls. Default: 500ms.
func WithPollDelay(d time.Duration) Option {
	return func(o *options) { o.pollDelay = d }
}

// WithNarrationDelay sets the base pause between narrated entries. Default: 1s.
func WithNarrationDelay(d time.Duration) Option {
	return func(o *options) { o.narrationDelay = d }
}

// WithDevices sets the device pair. left is shown on the left side.
func WithDevices(left, right Device) Option {
	return func(o *options) { o.devices = []Device{left, right} }
}

// WithLabels sets the class labels used for execution results. Class n
// maps to labels[n-1].
func WithLabels(labels []string) Option {
	return func(o *options) { o.labels = labels }
}

// WithFigures overrides the narrative illustrations.
func WithFigures(f Figures) Option {
	return func(o *options) { o.figures = f }
}

// WithReplay reads device logs from an NDJSON file instead of polling the
// orchestrator.
func WithReplay(path string) Option {
	return func(o *options) {
		o.connector = "replay"
		o.source = path
	}
}

// WithOutput mirrors every classified event to out.
func WithOutput(out output.Output) Option {
	return func(o *options) { o.output = out }
}

// WithHTTPClient sets the client used for orchestrator and health requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithJitter sets the uniform [0, 1) source for narration pacing.
func WithJitter(f func() float64) Option {
	return func(o *options) { o.rand = f }
}

func defaultOptions() options {
	return options{
		orchestratorURL: "http://localhost:3000",
		pollDelay:       500 * time.Millisecond,
		narrationDelay:  time.Second,
		connector:       "wasmiot",
	}
}
