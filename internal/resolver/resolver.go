// Package resolver maps a (left module, right module) selection to a
// registered two-step deployment.
package resolver

import (
	"errors"
	"log/slog"

	"github.com/hejijunhao/edgepair/internal/catalog"
	"github.com/hejijunhao/edgepair/internal/model"
)

var (
	// ErrNoDeploymentMatch means no deployment binds the requested modules to the roster.
	ErrNoDeploymentMatch = errors.New("no deployment matches the selected modules")
	// ErrMalformedDeployment marks a deployment whose sequence is not exactly two steps.
	ErrMalformedDeployment = errors.New("malformed deployment")
	// ErrUnknownDevice marks a reference to a device outside the roster.
	ErrUnknownDevice = errors.New("unknown device")
)

// Resolver looks up deployments in a catalog.
type Resolver struct {
	cat *catalog.Catalog
}

// New creates a Resolver over cat.
func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve returns the first deployment, in catalog order, whose steps bind
// left to the left roster device and right to the right one, in either
// sequence order. When none does, deployments binding the modules the other
// way round are accepted. Malformed deployments and deployments naming
// devices outside the roster are skipped with a warning.
func (r *Resolver) Resolve(left, right model.ModuleID) (model.Deployment, error) {
	roster := r.cat.Roster()
	leftDev, rightDev := roster[0].ID, roster[1].ID

	var candidates []model.Deployment
	for _, d := range r.cat.Deployments() {
		if err := r.validate(d); err != nil {
			slog.Warn("skipping deployment", "deployment", d.ID, "name", d.Name, "error", err)
			continue
		}
		candidates = append(candidates, d)
	}

	for _, d := range candidates {
		if binds(d.Sequence, leftDev, left, rightDev, right) {
			return d, nil
		}
	}
	for _, d := range candidates {
		if binds(d.Sequence, leftDev, right, rightDev, left) {
			slog.Debug("resolved with swapped modules", "deployment", d.ID)
			return d, nil
		}
	}
	return model.Deployment{}, ErrNoDeploymentMatch
}

func (r *Resolver) validate(d model.Deployment) error {
	if len(d.Sequence) != catalog.RosterSize {
		return ErrMalformedDeployment
	}
	for _, s := range d.Sequence {
		if r.cat.IndexOf(s.Device) < 0 {
			return ErrUnknownDevice
		}
	}
	return nil
}

// binds reports whether seq assigns modA to devA and modB to devB, in either order.
func binds(seq []model.Step, devA string, modA model.ModuleID, devB string, modB model.ModuleID) bool {
	a, b := seq[0], seq[1]
	if a.Device == devA && a.Module == modA && b.Device == devB && b.Module == modB {
		return true
	}
	return a.Device == devB && a.Module == modB && b.Device == devA && b.Module == modA
}
