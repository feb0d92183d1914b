package main

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
	"github.com/vesaakerman/easy-pid-generator/internal/server"
	"github.com/vesaakerman/easy-pid-generator/internal/storage"
)

// TestPidgend_Integration wires the same components main() uses (in-memory
// store + generator + HTTP mux) and drives the three engine operations
// through the API layer.
func TestPidgend_Integration(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}

	store := storage.NewMemory()
	generator := pid.NewGenerator(store, pid.DefaultEncoderConfig(), func() time.Time { return time.Now().UTC() }, cfg.Timezone)
	h := server.New(cfg, store, generator, nil)
	ts := httptest.NewServer(h.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	initBody, _ := json.Marshal(map[string]any{"seed": 1073741824})
	resp, err = http.Post(ts.URL+"/v1/doi/initialize", "application/json", bytes.NewReader(initBody))
	if err != nil {
		t.Fatalf("initialize error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("initialize status = %d body=%s", resp.StatusCode, string(b))
	}
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/v1/doi/generate", "application/json", nil)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("generate status = %d body=%s", resp.StatusCode, string(b))
	}
	var env struct {
		Data struct {
			Identifier string `json:"identifier"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		resp.Body.Close()
		t.Fatalf("decode generate: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/v1/doi/exists/" + env.Data.Identifier)
	if err != nil {
		t.Fatalf("exists error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("exists status = %d body=%s", resp.StatusCode, string(b))
	}
	resp.Body.Close()
}
