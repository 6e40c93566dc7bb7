package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `transport:
  kind: http
  url: https://worker.example.com/invoke
  timeout: 10s
  retries: 3

policy:
  name: buffered
  buffer_max: 64

adapter:
  type: webhook
  url: https://hooks.example.com/ocan
  headers:
    Authorization: Bearer token123
  timeout: 5s
  retries: 2
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "transport.kind", cfg.Transport.Kind, "http")
	assertEqual(t, "transport.url", cfg.Transport.URL, "https://worker.example.com/invoke")
	if cfg.Transport.Timeout.Duration != 10*time.Second {
		t.Errorf("expected transport.timeout=10s, got %v", cfg.Transport.Timeout.Duration)
	}
	if cfg.Transport.Retries == nil || *cfg.Transport.Retries != 3 {
		t.Errorf("expected transport.retries=3")
	}

	assertEqual(t, "policy.name", cfg.Policy.Name, "buffered")
	if cfg.Policy.BufferMax != 64 {
		t.Errorf("expected policy.buffer_max=64, got %d", cfg.Policy.BufferMax)
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/ocan")
	if cfg.Adapter.Timeout.Duration != 5*time.Second {
		t.Errorf("expected adapter.timeout=5s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 2 {
		t.Errorf("expected adapter.retries=2")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}
}

func TestLoad_ProcessTransport(t *testing.T) {
	yaml := `transport:
  kind: process
  command: ./ocan-worker
  args:
    - "--binding=demo"
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "transport.kind", cfg.Transport.Kind, "process")
	assertEqual(t, "transport.command", cfg.Transport.Command, "./ocan-worker")
	if len(cfg.Transport.Args) != 1 || cfg.Transport.Args[0] != "--binding=demo" {
		t.Errorf("expected transport.args=[--binding=demo], got %v", cfg.Transport.Args)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport.Kind != "" {
		t.Errorf("expected empty transport.kind, got %q", cfg.Transport.Kind)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/ocanctl.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_URL", "https://expanded.example.com/invoke")

	yaml := `transport:
  kind: http
  url: ${TEST_URL}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "transport.url", cfg.Transport.URL, "https://expanded.example.com/invoke")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `transport:
  kind: http
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `transport:
  kind: http
  url: https://worker.example.com
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	yaml := `adapter:
  timeout: 30s
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Timeout.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.Adapter.Timeout.Duration)
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ocanctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
