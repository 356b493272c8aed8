package facethttp

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:5000" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.ServerURL != "http://127.0.0.1:5000/ui" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("max body bytes = %d", cfg.MaxBodyBytes)
	}
}

func TestLoadServerConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
listenAddr: 0.0.0.0:8080
serverUrl: https://ui.example.com/ui
bundlePath: ./dist/bundle.js
requestTimeout: 30s
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}

	if cfg.ListenAddr != "0.0.0.0:8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.ServerURL != "https://ui.example.com/ui" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if cfg.BundlePath != "./dist/bundle.js" {
		t.Fatalf("bundle path = %q", cfg.BundlePath)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout)
	}
	// Values absent from the file keep their environment defaults.
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("max body bytes = %d", cfg.MaxBodyBytes)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
