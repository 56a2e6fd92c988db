// Package orchestrator is a client for the WasmIoT orchestrator REST API.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
	"github.com/hejijunhao/edgepair/internal/model"
)

// HealthTimeout bounds a single liveness probe.
const HealthTimeout = 3 * time.Second

// Client wraps the orchestrator endpoints used by the demo.
type Client struct {
	http *httpclient.Client
}

// New creates a Client for the orchestrator at baseURL.
func New(baseURL string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(baseURL, "", opts...)}
}

// BaseURL returns the orchestrator base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// DeviceInfo is a device as listed by GET /file/device.
type DeviceInfo struct {
	ID            string        `json:"_id"`
	Name          string        `json:"name"`
	Communication Communication `json:"communication"`
}

// Communication holds a device's reachable addresses.
type Communication struct {
	Addresses []string `json:"addresses"`
	Port      int      `json:"port"`
}

// Address returns the device base URL, or "" when no address is known.
func (d DeviceInfo) Address() string {
	if len(d.Communication.Addresses) == 0 {
		return ""
	}
	host := d.Communication.Addresses[0]
	if d.Communication.Port == 0 {
		return "http://" + host
	}
	return "http://" + host + ":" + strconv.Itoa(d.Communication.Port)
}

// DeviceResponse is one device's answer inside a deploy response.
type DeviceResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// Response is the orchestrator's reply to a deploy or execute request.
type Response struct {
	DeviceResponses map[model.DeviceID]DeviceResponse `json:"deviceResponses"`
	Raw             json.RawMessage                   `json:"-"`
}

// Devices lists the devices known to the orchestrator.
func (c *Client) Devices(ctx context.Context) ([]DeviceInfo, error) {
	var out []DeviceInfo
	if err := c.http.GetJSON(ctx, "/file/device", nil, &out); err != nil {
		return nil, fmt.Errorf("orchestrator: list devices: %w", err)
	}
	return out, nil
}

// Modules lists registered modules.
func (c *Client) Modules(ctx context.Context) ([]model.Module, error) {
	var out []model.Module
	if err := c.http.GetJSON(ctx, "/file/module", nil, &out); err != nil {
		return nil, fmt.Errorf("orchestrator: list modules: %w", err)
	}
	return out, nil
}

// Deployments lists registered deployment manifests.
func (c *Client) Deployments(ctx context.Context) ([]model.Deployment, error) {
	var out []model.Deployment
	if err := c.http.GetJSON(ctx, "/file/manifest", nil, &out); err != nil {
		return nil, fmt.Errorf("orchestrator: list deployments: %w", err)
	}
	return out, nil
}

// Deploy triggers POST /file/manifest/{id}. Non-2xx responses return
// *httpclient.APIError unwrapped so callers can inspect the body.
func (c *Client) Deploy(ctx context.Context, id model.DeploymentID) (Response, error) {
	return c.post(ctx, "/file/manifest/"+url.PathEscape(id))
}

// Execute triggers POST /execute/{id}.
func (c *Client) Execute(ctx context.Context, id model.DeploymentID) (Response, error) {
	return c.post(ctx, "/execute/"+url.PathEscape(id))
}

func (c *Client) post(ctx context.Context, path string) (Response, error) {
	body, err := c.http.Post(ctx, path, nil)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Raw: body}
	// Execute replies are free-form; only an object carries deviceResponses.
	_ = json.Unmarshal(body, &resp)
	return resp, nil
}

// Health probes GET /health with HealthTimeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	return c.http.Ping(ctx, "/health")
}
