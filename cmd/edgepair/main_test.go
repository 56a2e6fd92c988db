package main

import (
	"path/filepath"
	"testing"

	"github.com/hejijunhao/edgepair/internal/config"
	"github.com/hejijunhao/edgepair/internal/output/multi"
)

func baseConfig() config.Config {
	return config.Config{
		Orchestrator: config.OrchestratorConfig{URL: "http://localhost:3000", LoggingEndpoint: "http://localhost:3000/device/logs"},
		Setup:        config.SetupConfig{Roster: config.DefaultRoster(), Figures: config.DefaultFigures()},
		Output:       config.OutputConfig{Format: "none", Verbosity: "standard"},
		Connector:    "wasmiot",
	}
}

func TestBuildOutputNone(t *testing.T) {
	out, err := buildOutput(baseConfig())
	if err != nil {
		t.Fatalf("buildOutput: %v", err)
	}
	if out != nil {
		t.Fatalf("expected no output, got %T", out)
	}
}

func TestBuildOutputCombined(t *testing.T) {
	cfg := baseConfig()
	cfg.Output.Format = "file"
	cfg.Output.Path = filepath.Join(t.TempDir(), "events.ndjson")
	cfg.Output.WebhookURL = "http://127.0.0.1:1/hook"

	out, err := buildOutput(cfg)
	if err != nil {
		t.Fatalf("buildOutput: %v", err)
	}
	defer out.Close()
	m, ok := out.(*multi.Multi)
	if !ok {
		t.Fatalf("expected *multi.Multi, got %T", out)
	}
	if m.Len() != 2 {
		t.Fatalf("outputs = %d, want 2", m.Len())
	}
}

func TestBuildOutputBadVerbosity(t *testing.T) {
	cfg := baseConfig()
	cfg.Output.Verbosity = "loud"
	if _, err := buildOutput(cfg); err == nil {
		t.Fatal("expected error for unknown verbosity")
	}
}

func TestDemoOptionsReplay(t *testing.T) {
	cfg := baseConfig()
	cfg.Connector = "replay"
	cfg.ReplayFile = "demo.ndjson"
	withReplay := len(demoOptions(cfg, nil, nil))
	cfg.Connector = "wasmiot"
	if without := len(demoOptions(cfg, nil, nil)); withReplay != without+1 {
		t.Fatalf("replay option not added: %d vs %d", withReplay, without)
	}
}
