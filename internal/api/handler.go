package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hejijunhao/edgepair/pkg/edgepair"
)

// Demo is the subset of *edgepair.Demo the API serves.
type Demo interface {
	Health(ctx context.Context) edgepair.HealthReport
	Devices() []edgepair.Device
	Modules() []edgepair.Module
	Deployments() []edgepair.Deployment
	Render(idx int) string
	Narrative(ctx context.Context) <-chan edgepair.Entry
	ResolveAndDeploy(ctx context.Context, left, right string) (edgepair.Deployment, error)
	ResolveAndRun(ctx context.Context, left, right string) (edgepair.Deployment, error)
	Reset()
}

// Handler serves the demo over HTTP.
type Handler struct {
	demo Demo
}

// NewHandler creates a Handler for demo.
func NewHandler(demo Demo) *Handler {
	return &Handler{demo: demo}
}

// PairRequest selects one module per device.
type PairRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// CatalogResponse lists everything the orchestrator knows about.
type CatalogResponse struct {
	Devices     []edgepair.Device     `json:"devices"`
	Modules     []edgepair.Module     `json:"modules"`
	Deployments []edgepair.Deployment `json:"deployments"`
}

// OrchestratorError reports a rejected deploy or execute request.
type OrchestratorError struct {
	Error      string `json:"error"`
	Deployment string `json:"deployment"`
	Status     int    `json:"status,omitempty"`
	Body       string `json:"body,omitempty"`
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Health probes the devices and the orchestrator.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.demo.Health(r.Context())
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	h.JSON(w, status, report)
}

// Devices lists the device pair, left first.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.demo.Devices())
}

// DeviceLog renders the scrollback of one device as plain text.
func (h *Handler) DeviceLog(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || idx < 0 || idx > 1 {
		h.Error(w, http.StatusNotFound, "device index must be 0 or 1")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.demo.Render(idx))
}

// Catalog lists devices, modules and deployments.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, CatalogResponse{
		Devices:     h.demo.Devices(),
		Modules:     h.demo.Modules(),
		Deployments: h.demo.Deployments(),
	})
}

// Deploy resolves and deploys the selected module pair.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, h.demo.ResolveAndDeploy)
}

// Run resolves and executes the selected module pair.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, h.demo.ResolveAndRun)
}

func (h *Handler) pair(w http.ResponseWriter, r *http.Request, do func(context.Context, string, string) (edgepair.Deployment, error)) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Left == "" || req.Right == "" {
		h.Error(w, http.StatusBadRequest, "left and right modules are required")
		return
	}

	dep, err := do(r.Context(), req.Left, req.Right)
	if err == nil {
		h.JSON(w, http.StatusOK, dep)
		return
	}

	var reqErr *edgepair.RequestError
	switch {
	case errors.Is(err, edgepair.ErrNoDeploymentMatch):
		h.Error(w, http.StatusNotFound, "no deployment matches the selected modules")
	case errors.As(err, &reqErr):
		h.JSON(w, http.StatusBadGateway, OrchestratorError{
			Error:      err.Error(),
			Deployment: dep.ID,
			Status:     reqErr.StatusCode,
			Body:       reqErr.Body,
		})
	default:
		slog.Error("pair request failed", "left", req.Left, "right", req.Right, "error", err)
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Reset clears the scrollbacks and pending narrative.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.demo.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Narrative streams paced narrative entries as server-sent events.
func (h *Handler) Narrative(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for e := range h.demo.Narrative(r.Context()) {
		data, err := json.Marshal(e)
		if err != nil {
			slog.Warn("encode narrative entry", "id", e.ID, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "id: %s\nevent: entry\ndata: %s\n\n", e.ID, data); err != nil {
			return
		}
		flusher.Flush()
	}
}
