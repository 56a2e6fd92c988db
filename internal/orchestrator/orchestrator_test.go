package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hejijunhao/edgepair/internal/connector/httpclient"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /file/device", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"_id":"o1","name":"orchestrator","communication":{"addresses":["172.15.0.2"],"port":3000}},
			{"_id":"d1","name":"raspi1","communication":{"addresses":["172.15.0.21"],"port":5000}}
		]`))
	})
	mux.HandleFunc("GET /file/module", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"m1","name":"camera"},{"_id":"m2","name":"classifier"}]`))
	})
	mux.HandleFunc("GET /file/manifest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"dep1","name":"cam-to-cls","sequence":[{"device":"d1","module":"m1","func":"take_image"},{"device":"d2","module":"m2"}]}]`))
	})
	mux.HandleFunc("POST /file/manifest/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"err":"no such deployment"}`))
			return
		}
		w.Write([]byte(`{"deviceResponses":{"d1":{"data":{"status":"success"}},"d2":{"data":{"status":"success"}}}}`))
	})
	mux.HandleFunc("POST /execute/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "plain" {
			w.Write([]byte("OK"))
			return
		}
		w.Write([]byte(`"http://172.15.0.22:5000/request-history/abc"`))
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCatalogEndpoints(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	devices, err := c.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) != 2 || devices[1].Address() != "http://172.15.0.21:5000" {
		t.Fatalf("unexpected devices: %+v", devices)
	}

	modules, err := c.Modules(ctx)
	if err != nil {
		t.Fatalf("Modules: %v", err)
	}
	if len(modules) != 2 || modules[1].ID != "m2" || modules[1].Name != "classifier" {
		t.Fatalf("unexpected modules: %+v", modules)
	}

	deps, err := c.Deployments(ctx)
	if err != nil {
		t.Fatalf("Deployments: %v", err)
	}
	if len(deps) != 1 || len(deps[0].Sequence) != 2 || deps[0].Sequence[0].Func != "take_image" {
		t.Fatalf("unexpected deployments: %+v", deps)
	}
}

func TestDeployStatuses(t *testing.T) {
	c := New(newServer(t).URL)
	resp, err := c.Deploy(context.Background(), "dep1")
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if resp.DeviceResponses["d2"].Data.Status != "success" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDeployFailureKeepsBody(t *testing.T) {
	c := New(newServer(t).URL)
	_, err := c.Deploy(context.Background(), "bad")
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Body != `{"err":"no such deployment"}` {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestExecuteFreeFormResponse(t *testing.T) {
	c := New(newServer(t).URL)
	resp, err := c.Execute(context.Background(), "dep1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.DeviceResponses) != 0 {
		t.Fatalf("expected no device responses, got %+v", resp.DeviceResponses)
	}
	if string(resp.Raw) != `"http://172.15.0.22:5000/request-history/abc"` {
		t.Fatalf("unexpected raw body %s", resp.Raw)
	}
}

func TestExecuteNonJSONResponse(t *testing.T) {
	c := New(newServer(t).URL)
	resp, err := c.Execute(context.Background(), "plain")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(resp.Raw) != "OK" {
		t.Fatalf("unexpected raw body %s", resp.Raw)
	}
}

func TestHealth(t *testing.T) {
	c := New(newServer(t).URL)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestDeviceAddressWithoutPort(t *testing.T) {
	d := DeviceInfo{Communication: Communication{Addresses: []string{"10.0.0.5"}}}
	if d.Address() != "http://10.0.0.5" {
		t.Fatalf("unexpected address %q", d.Address())
	}
	if (DeviceInfo{}).Address() != "" {
		t.Fatal("expected empty address")
	}
}
