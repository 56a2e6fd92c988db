package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Version is the current edgepair release.
const Version = "0.3.0"

const defaultOrchestratorURL = "http://localhost:3000"

// Config holds all edgepair configuration.
type Config struct {
	Orchestrator OrchestratorConfig
	Narration    NarrationConfig
	Setup        SetupConfig
	Output       OutputConfig
	Log          LogConfig

	Connector       string // "wasmiot" or "replay"
	ReplayFile      string
	Listen          string
	Console         bool
	ShutdownTimeout time.Duration
}

// OrchestratorConfig locates the WasmIoT orchestrator.
type OrchestratorConfig struct {
	URL             string
	LoggingEndpoint string
	PollDelay       time.Duration
}

// NarrationConfig paces the narrative stream.
type NarrationConfig struct {
	Delay time.Duration
}

// SetupConfig describes the demo stage: the device pair, label list and figures.
type SetupConfig struct {
	Path       string
	Roster     []model.Device
	LabelsPath string
	FiguresDir string
	Figures    Figures
}

// Figures are the illustration references shown in the narrative.
type Figures struct {
	DeployLeft  string `yaml:"deploy_left"`
	DeployRight string `yaml:"deploy_right"`
	SubCall     string `yaml:"subcall"`
}

// OutputConfig holds event mirroring settings.
type OutputConfig struct {
	Format       string // "none", "stdout", "file"
	Path         string
	MaxSize      int64
	Verbosity    string // "minimal", "standard", "full"
	Pretty       bool
	KafkaBrokers []string
	KafkaTopic   string
	WebhookURL   string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// DefaultRoster is the device pair used when no setup file names one.
func DefaultRoster() []model.Device {
	return []model.Device{
		{
			Name:        "raspi1",
			ID:          "666d5f52c015bf5d9be90567",
			Address:     "http://172.15.0.21:5000",
			Description: "Raspberry Pi 4B with 4GB RAM",
		},
		{
			Name:        "raspi2",
			ID:          "666d5f52c015bf5d9be90565",
			Address:     "http://172.15.0.22:5000",
			Description: "Raspberry Pi 4B with 4GB RAM",
		},
	}
}

// DefaultFigures returns figure URLs served from the figures directory.
func DefaultFigures() Figures {
	return Figures{
		DeployLeft:  "/figures/deployment_left.png",
		DeployRight: "/figures/deployment_right.png",
		SubCall:     "/figures/subcall.png",
	}
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// environment. An empty path loads ./.env if present.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	orch := strings.TrimRight(getenv("WASMIOT_ORCHESTRATOR_URL", defaultOrchestratorURL), "/")
	return Config{
		Orchestrator: OrchestratorConfig{
			URL:             orch,
			LoggingEndpoint: getenv("WASMIOT_LOGGING_ENDPOINT", orch+"/device/logs"),
			PollDelay:       getenvDuration("LOG_PULL_DELAY", 500*time.Millisecond),
		},
		Narration: NarrationConfig{
			Delay: getenvDuration("EDGEPAIR_NARRATION_DELAY", time.Second),
		},
		Setup: SetupConfig{
			Path:       os.Getenv("EDGEPAIR_SETUP"),
			Roster:     DefaultRoster(),
			LabelsPath: os.Getenv("EDGEPAIR_LABELS"),
			FiguresDir: getenv("EDGEPAIR_FIGURES_DIR", "./figures"),
			Figures:    DefaultFigures(),
		},
		Output: OutputConfig{
			Format:       getenv("EDGEPAIR_OUTPUT", "none"),
			Path:         os.Getenv("EDGEPAIR_OUTPUT_FILE"),
			MaxSize:      int64(getenvInt("EDGEPAIR_OUTPUT_MAX_SIZE", 0)),
			Verbosity:    getenv("EDGEPAIR_VERBOSITY", "standard"),
			Pretty:       getenvBool("EDGEPAIR_OUTPUT_PRETTY", false),
			KafkaBrokers: getenvList("EDGEPAIR_KAFKA_BROKERS"),
			KafkaTopic:   getenv("EDGEPAIR_KAFKA_TOPIC", "edgepair.events"),
			WebhookURL:   os.Getenv("EDGEPAIR_WEBHOOK_URL"),
		},
		Log: LogConfig{
			Level:  getenv("EDGEPAIR_LOG_LEVEL", "info"),
			Format: getenv("EDGEPAIR_LOG_FORMAT", "text"),
		},
		Connector:       getenv("EDGEPAIR_CONNECTOR", "wasmiot"),
		ReplayFile:      os.Getenv("EDGEPAIR_REPLAY_FILE"),
		Listen:          getenv("EDGEPAIR_LISTEN", ":7860"),
		Console:         getenvBool("EDGEPAIR_CONSOLE", false),
		ShutdownTimeout: getenvDuration("EDGEPAIR_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks the configuration for errors. Returns all problems joined.
func (c Config) Validate() error {
	var errs []error

	if err := checkURL(c.Orchestrator.URL); err != nil {
		errs = append(errs, fmt.Errorf("WASMIOT_ORCHESTRATOR_URL: %w", err))
	}
	if c.Connector == "wasmiot" {
		if err := checkURL(c.Orchestrator.LoggingEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("WASMIOT_LOGGING_ENDPOINT: %w", err))
		}
	}
	if c.Orchestrator.PollDelay <= 0 {
		errs = append(errs, fmt.Errorf("LOG_PULL_DELAY must be positive, got %v", c.Orchestrator.PollDelay))
	}
	if c.Narration.Delay < 0 {
		errs = append(errs, fmt.Errorf("narration delay must not be negative, got %v", c.Narration.Delay))
	}

	switch c.Connector {
	case "wasmiot":
	case "replay":
		if c.ReplayFile == "" {
			errs = append(errs, errors.New("EDGEPAIR_REPLAY_FILE is required for the replay connector"))
		}
	default:
		errs = append(errs, fmt.Errorf("connector must be wasmiot or replay, got %q", c.Connector))
	}

	if len(c.Setup.Roster) != 2 {
		errs = append(errs, fmt.Errorf("roster must contain exactly 2 devices, got %d", len(c.Setup.Roster)))
	} else {
		a, b := c.Setup.Roster[0].Name, c.Setup.Roster[1].Name
		if a == "" || b == "" {
			errs = append(errs, errors.New("roster device names must not be empty"))
		} else if a == b {
			errs = append(errs, fmt.Errorf("roster device names must differ, both are %q", a))
		}
	}

	switch c.Output.Format {
	case "none", "stdout":
	case "file":
		if c.Output.Path == "" {
			errs = append(errs, errors.New("EDGEPAIR_OUTPUT_FILE is required for file output"))
		}
	default:
		errs = append(errs, fmt.Errorf("output must be none, stdout or file, got %q", c.Output.Format))
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output max size must not be negative, got %d", c.Output.MaxSize))
	}
	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("verbosity must be minimal, standard or full, got %q", c.Output.Verbosity))
	}
	if c.Output.WebhookURL != "" {
		if err := checkURL(c.Output.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("EDGEPAIR_WEBHOOK_URL: %w", err))
		}
	}
	if len(c.Output.KafkaBrokers) > 0 && c.Output.KafkaTopic == "" {
		errs = append(errs, errors.New("EDGEPAIR_KAFKA_TOPIC is required when brokers are set"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

// FigureURL joins a figure name onto the figures mount point.
func FigureURL(name string) string {
	return path.Join("/figures", name)
}

func checkURL(raw string) error {
	if raw == "" {
		return errors.New("must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvDuration accepts a Go duration ("500ms") or plain seconds ("0.5").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func getenvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
