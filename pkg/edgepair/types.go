package edgepair

import (
	"time"

	"github.com/hejijunhao/edgepair/internal/health"
	"github.com/hejijunhao/edgepair/internal/model"
)

// Device is one of the two paired devices.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description,omitempty"`
}

// Module is a deployable unit registered in the orchestrator.
type Module struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Step binds a module to a device.
type Step struct {
	Device string `json:"device"`
	Module string `json:"module"`
	Func   string `json:"func,omitempty"`
}

// Deployment is a registered deployment plan.
type Deployment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Payload is one side of a narrative entry: text, or an image with caption.
type Payload struct {
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Entry is a two-sided narrative line. At least one side is set.
type Entry struct {
	ID    string   `json:"id"`
	Left  *Payload `json:"left,omitempty"`
	Right *Payload `json:"right,omitempty"`
}

// Figures are the illustration references used by the narrative.
type Figures struct {
	DeployLeft  string
	DeployRight string
	SubCall     string
}

// Log is a device log line injected with Ingest.
type Log struct {
	DeviceName string
	Message    string
	Level      string // INFO, ERROR, WARNING, DEBUG
	Timestamp  time.Time
}

// Probe is one health probe result.
type Probe struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthReport is the outcome of a health check. OK is the AND of all probes.
type HealthReport struct {
	OK     bool    `json:"ok"`
	Probes []Probe `json:"probes"`
}

func deviceFromModel(d model.Device) Device {
	return Device{ID: d.ID, Name: d.Name, Address: d.Address, Description: d.Description}
}

func (d Device) toModel() model.Device {
	return model.Device{ID: d.ID, Name: d.Name, Address: d.Address, Description: d.Description}
}

func deploymentFromModel(d model.Deployment) Deployment {
	out := Deployment{ID: d.ID, Name: d.Name, Steps: make([]Step, len(d.Sequence))}
	for i, s := range d.Sequence {
		out.Steps[i] = Step{Device: s.Device, Module: s.Module, Func: s.Func}
	}
	return out
}

func payloadFromModel(p *model.Payload) *Payload {
	if p == nil {
		return nil
	}
	return &Payload{Text: p.Text, Image: p.Image, Caption: p.Caption}
}

func reportFromHealth(r health.Report) HealthReport {
	out := HealthReport{OK: r.OK, Probes: make([]Probe, len(r.Results))}
	for i, res := range r.Results {
		out.Probes[i] = Probe{Name: res.Name, URL: res.URL, OK: res.OK, Error: res.Error}
	}
	return out
}
