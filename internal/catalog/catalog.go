// Package catalog holds the device roster and the module and deployment
// catalogs pulled from the orchestrator at startup.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/orchestrator"
)

// RosterSize is the number of paired devices.
const RosterSize = 2

// OrchestratorName is the device entry the orchestrator lists for itself.
const OrchestratorName = "orchestrator"

// ErrRosterSize is returned when the configured roster is not exactly two devices.
var ErrRosterSize = errors.New("catalog: roster must contain exactly 2 devices")

// Source provides the orchestrator catalogs.
type Source interface {
	Devices(ctx context.Context) ([]orchestrator.DeviceInfo, error)
	Modules(ctx context.Context) ([]model.Module, error)
	Deployments(ctx context.Context) ([]model.Deployment, error)
}

// Catalog is the read-mostly registry of roster, modules and deployments.
// Safe for concurrent use; accessors return copies.
type Catalog struct {
	mu          sync.RWMutex
	roster      [RosterSize]model.Device
	modules     []model.Module
	deployments []model.Deployment
}

// New creates a Catalog with a fixed roster order: roster[0] is the left
// device, roster[1] the right one.
func New(roster []model.Device) (*Catalog, error) {
	if len(roster) != RosterSize {
		return nil, fmt.Errorf("%w, got %d", ErrRosterSize, len(roster))
	}
	c := &Catalog{}
	copy(c.roster[:], roster)
	return c, nil
}

// Roster returns both roster devices in position order.
func (c *Catalog) Roster() [RosterSize]model.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roster
}

// Names returns the roster device names in position order.
func (c *Catalog) Names() []string {
	r := c.Roster()
	return []string{r[0].Name, r[1].Name}
}

// IndexOf returns the roster position of the device with the given ID, or -1.
func (c *Catalog) IndexOf(id model.DeviceID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, d := range c.roster {
		if d.ID != "" && d.ID == id {
			return i
		}
	}
	return -1
}

// Modules returns the module catalog.
func (c *Catalog) Modules() []model.Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.modules)
}

// Module looks up a module by ID.
func (c *Catalog) Module(id model.ModuleID) (model.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.modules {
		if m.ID == id {
			return m, true
		}
	}
	return model.Module{}, false
}

// ModuleName returns the module's name, or its ID when unknown.
func (c *Catalog) ModuleName(id model.ModuleID) string {
	if m, ok := c.Module(id); ok && m.Name != "" {
		return m.Name
	}
	return id
}

// Deployments returns the deployment catalog in orchestrator order.
func (c *Catalog) Deployments() []model.Deployment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Deployment, len(c.deployments))
	for i, d := range c.deployments {
		d.Sequence = slices.Clone(d.Sequence)
		out[i] = d
	}
	return out
}

// SetModules replaces the module catalog.
func (c *Catalog) SetModules(mods []model.Module) {
	c.mu.Lock()
	c.modules = slices.Clone(mods)
	c.mu.Unlock()
}

// SetDeployments replaces the deployment catalog.
func (c *Catalog) SetDeployments(deps []model.Deployment) {
	c.mu.Lock()
	c.deployments = slices.Clone(deps)
	c.mu.Unlock()
}

// FillRoster updates roster IDs and addresses from the orchestrator device
// list by matching names. The orchestrator's own entry is skipped; devices
// not in the roster are ignored with a warning.
func (c *Catalog) FillRoster(devices []orchestrator.DeviceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range devices {
		if d.Name == OrchestratorName {
			slog.Info("skipping orchestrator device", "address", d.Address())
			continue
		}
		idx := -1
		for i, r := range c.roster {
			if r.Name == d.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			slog.Warn("device not in roster, skipping", "device", d.Name)
			continue
		}
		if d.ID != "" {
			c.roster[idx].ID = d.ID
		}
		if addr := d.Address(); addr != "" {
			c.roster[idx].Address = addr
		}
	}

	for i, r := range c.roster {
		if r.ID == "" || r.Address == "" {
			slog.Error("roster device not fully defined", "position", i, "name", r.Name, "id", r.ID, "address", r.Address)
		}
	}
}

// Load pulls devices, modules and deployments from src. A failed device
// listing keeps the configured roster; module or deployment failures are
// returned joined after the remaining catalogs are loaded.
func (c *Catalog) Load(ctx context.Context, src Source) error {
	var errs []error

	devices, err := src.Devices(ctx)
	if err != nil {
		slog.Warn("device listing failed, using configured roster", "error", err)
	} else {
		c.FillRoster(devices)
	}

	mods, err := src.Modules(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		c.SetModules(mods)
	}

	deps, err := src.Deployments(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		c.SetDeployments(deps)
	}

	slog.Info("catalog loaded", "modules", len(c.Modules()), "deployments", len(c.Deployments()))
	return errors.Join(errs...)
}
