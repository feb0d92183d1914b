package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vesaakerman/easy-pid-generator/internal/config"
	"github.com/vesaakerman/easy-pid-generator/internal/pid"
	"github.com/vesaakerman/easy-pid-generator/internal/storage"
)

func newTestServer() (*httptest.Server, *storage.Memory) {
	store := storage.NewMemory()
	generator := pid.NewGenerator(store, pid.DefaultEncoderConfig(), func() time.Time { return time.Now().UTC() }, nil)
	h := New(config.Config{}, store, generator, nil)
	return httptest.NewServer(h.Router()), store
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d want %d", resp.StatusCode, http.StatusOK)
	}
	b, _ := io.ReadAll(resp.Body)
	if string(b) != "ok" {
		t.Fatalf("body = %q want %q", string(b), "ok")
	}
}

func TestReady(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestInitializeAndGenerate(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"seed": 1073741824})
	resp, err := http.Post(ts.URL+"/v1/doi/initialize", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST initialize error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("initialize status = %d body=%s", resp.StatusCode, string(b))
	}

	genResp, err := http.Post(ts.URL+"/v1/doi/generate", "application/json", nil)
	if err != nil {
		t.Fatalf("POST generate error: %v", err)
	}
	defer genResp.Body.Close()
	if genResp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(genResp.Body)
		t.Fatalf("generate status = %d body=%s", genResp.StatusCode, string(b))
	}
	var out struct {
		Data struct {
			Identifier string `json:"identifier"`
		} `json:"data"`
	}
	if err := json.NewDecoder(genResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if out.Data.Identifier == "" {
		t.Fatalf("generate response had an empty identifier")
	}

	existsResp, err := http.Get(ts.URL + "/v1/doi/exists/" + out.Data.Identifier)
	if err != nil {
		t.Fatalf("GET exists error: %v", err)
	}
	defer existsResp.Body.Close()
	var existsOut struct {
		Data struct {
			Exists bool `json:"exists"`
		} `json:"data"`
	}
	if err := json.NewDecoder(existsResp.Body).Decode(&existsOut); err != nil {
		t.Fatalf("decode exists response: %v", err)
	}
	if !existsOut.Data.Exists {
		t.Fatalf("exists reported false for a just-minted identifier")
	}
}

func TestGenerate_NotInitialized(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/urn/generate", "application/json", nil)
	if err != nil {
		t.Fatalf("POST generate error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestInitialize_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/doi/initialize")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestInitialize_AlreadyInitialized(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"seed": 1073741824})
	first, err := http.Post(ts.URL+"/v1/doi/initialize", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST initialize error: %v", err)
	}
	first.Body.Close()

	second, err := http.Post(ts.URL+"/v1/doi/initialize", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST initialize error: %v", err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		b, _ := io.ReadAll(second.Body)
		t.Fatalf("re-initialize status = %d body=%s", second.StatusCode, string(b))
	}
}

func TestExists_MissingIdentifier(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/doi/exists/")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
