// edgepair runs the two-device deployment demo: it follows the WasmIoT
// orchestrator's device logs, narrates them, and serves the dashboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hejijunhao/edgepair/internal/api"
	"github.com/hejijunhao/edgepair/internal/config"
	"github.com/hejijunhao/edgepair/internal/console"
	"github.com/hejijunhao/edgepair/internal/engine/classifier"
	"github.com/hejijunhao/edgepair/internal/logging"
	"github.com/hejijunhao/edgepair/internal/output"
	"github.com/hejijunhao/edgepair/internal/output/async"
	"github.com/hejijunhao/edgepair/internal/output/file"
	"github.com/hejijunhao/edgepair/internal/output/kafka"
	"github.com/hejijunhao/edgepair/internal/output/multi"
	"github.com/hejijunhao/edgepair/internal/output/stdout"
	"github.com/hejijunhao/edgepair/internal/output/webhook"
	"github.com/hejijunhao/edgepair/pkg/edgepair"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "edgepair: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen   string
		setup    string
		logLevel string
		envFile  string
		useTUI   bool
		showVer  bool
	)
	flagSet := pflag.NewFlagSet("edgepair", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "", "HTTP listen address (default $EDGEPAIR_LISTEN or :7860)")
	flagSet.StringVar(&setup, "setup", "", "YAML setup file describing the device pair (default $EDGEPAIR_SETUP)")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $EDGEPAIR_LOG_LEVEL or info)")
	flagSet.StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default ./.env if present)")
	flagSet.BoolVar(&useTUI, "console", false, "render the narrative in the terminal")
	flagSet.BoolVar(&showVer, "version", false, "print the version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVer {
		fmt.Println("edgepair", config.Version)
		return nil
	}

	// Load configuration: .env, environment, flags, then the setup file.
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg := config.Load()
	if flagSet.Changed("listen") {
		cfg.Listen = listen
	}
	if flagSet.Changed("setup") {
		cfg.Setup.Path = setup
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flagSet.Changed("console") {
		cfg.Console = useTUI
	}
	if cfg.Setup.Path != "" {
		s, err := config.LoadSetup(cfg.Setup.Path)
		if err != nil {
			return err
		}
		cfg.ApplySetup(s)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), cfg.Output.Format == "stdout" || cfg.Console)
	if cfg.Output.Format == "stdout" && cfg.Console {
		slog.Warn("stdout output and console narrator share stdout")
	}

	labels, err := classifier.LoadLabels(cfg.Setup.LabelsPath)
	if err != nil {
		return err
	}

	out, err := buildOutput(cfg)
	if err != nil {
		return err
	}

	demo, err := edgepair.New(demoOptions(cfg, labels, out)...)
	if err != nil {
		return err
	}
	defer demo.Close()

	// Set up graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := demo.Load(ctx); err != nil {
		slog.Warn("orchestrator catalogs incomplete", "error", err)
	}
	if report := demo.Health(ctx); !report.OK {
		slog.Warn("health check failed", "probes", report.Probes)
	}

	go func() {
		if err := demo.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("log stream stopped", "error", err)
		}
	}()

	if cfg.Console {
		devices := demo.Devices()
		r := console.NewRenderer(console.DefaultWidth, devices[0].Name, devices[1].Name, console.DefaultTheme)
		go func() {
			if err := console.Run(ctx, os.Stdout, r, demo.Narrative(ctx)); err != nil {
				slog.Error("console narrator stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(slog.Default(), demo, cfg.Setup.FiguresDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("edgepair listening", "addr", cfg.Listen, "orchestrator", cfg.Orchestrator.URL, "version", config.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func demoOptions(cfg config.Config, labels []string, out output.Output) []edgepair.Option {
	roster := cfg.Setup.Roster
	left := edgepair.Device{ID: roster[0].ID, Name: roster[0].Name, Address: roster[0].Address, Description: roster[0].Description}
	right := edgepair.Device{ID: roster[1].ID, Name: roster[1].Name, Address: roster[1].Address, Description: roster[1].Description}

	opts := []edgepair.Option{
		edgepair.WithOrchestratorURL(cfg.Orchestrator.URL),
		edgepair.WithLoggingEndpoint(cfg.Orchestrator.LoggingEndpoint),
		edgepair.WithPollDelay(cfg.Orchestrator.PollDelay),
		edgepair.WithNarrationDelay(cfg.Narration.Delay),
		edgepair.WithDevices(left, right),
		edgepair.WithLabels(labels),
		edgepair.WithFigures(edgepair.Figures{
			DeployLeft:  cfg.Setup.Figures.DeployLeft,
			DeployRight: cfg.Setup.Figures.DeployRight,
			SubCall:     cfg.Setup.Figures.SubCall,
		}),
	}
	if cfg.Connector == "replay" {
		opts = append(opts, edgepair.WithReplay(cfg.ReplayFile))
	}
	if out != nil {
		opts = append(opts, edgepair.WithOutput(out))
	}
	return opts
}

// buildOutput assembles the event mirrors. Slow sinks are decoupled from
// the ingest path with async. Returns nil when nothing is configured.
func buildOutput(cfg config.Config) (output.Output, error) {
	verbosity, err := output.ParseVerbosity(cfg.Output.Verbosity)
	if err != nil {
		return nil, err
	}

	var outs []output.Output
	switch cfg.Output.Format {
	case "stdout":
		outs = append(outs, stdout.New(verbosity, cfg.Output.Pretty))
	case "file":
		var opts []file.Option
		if cfg.Output.MaxSize > 0 {
			opts = append(opts, file.WithMaxSize(cfg.Output.MaxSize))
		}
		f, err := file.New(cfg.Output.Path, verbosity, opts...)
		if err != nil {
			return nil, err
		}
		outs = append(outs, async.New(f))
	}
	if len(cfg.Output.KafkaBrokers) > 0 {
		k, err := kafka.New(cfg.Output.KafkaBrokers, cfg.Output.KafkaTopic, verbosity)
		if err != nil {
			return nil, err
		}
		outs = append(outs, async.New(k, async.WithDropOnFull()))
	}
	if cfg.Output.WebhookURL != "" {
		outs = append(outs, async.New(webhook.New(cfg.Output.WebhookURL, verbosity), async.WithDropOnFull()))
	}

	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		return outs[0], nil
	}
	return multi.New(outs...), nil
}
