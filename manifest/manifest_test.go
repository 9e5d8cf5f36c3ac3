package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a tether.toml
	dir := t.TempDir()
	tomlContent := `
[addon]
name = "demo"

[host]
max-scope-depth = 64
gc-every = 1
gc-interval = "250ms"

[trace]
path = "trace.db"

[log]
verbosity = 2
path = "/var/log/tether.log"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Addon.Name != "demo" {
		t.Errorf("addon name = %q, want demo", m.Addon.Name)
	}
	if m.Host.MaxScopeDepth != 64 {
		t.Errorf("max scope depth = %d, want 64", m.Host.MaxScopeDepth)
	}
	if m.Host.GCEvery != 1 {
		t.Errorf("gc every = %d, want 1", m.Host.GCEvery)
	}
	if m.Host.GCInterval != 250*time.Millisecond {
		t.Errorf("gc interval = %s, want 250ms", m.Host.GCInterval)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got, want := m.TracePath(), filepath.Join(m.Dir, "trace.db"); got != want {
		t.Errorf("trace path = %q, want %q", got, want)
	}
	if m.LogPath() != "/var/log/tether.log" {
		t.Errorf("log path = %q, want /var/log/tether.log", m.LogPath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[host]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Addon.Name != "addon" {
		t.Errorf("default addon name = %q, want addon", m.Addon.Name)
	}
	if m.Host.GCInterval != 30*time.Second {
		t.Errorf("default gc interval = %s, want 30s", m.Host.GCInterval)
	}
	if m.TracePath() != "" {
		t.Errorf("expected tracing off by default, got %q", m.TracePath())
	}
	if d := Default(); d.Addon.Name != m.Addon.Name || d.Host != m.Host {
		t.Errorf("Default() = %+v, want %+v", d, m)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[host]
max-scope-depth = -1
gc-every = -5
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors((&Manifest{Host: Host{MaxScopeDepth: -1, GCEvery: -5}}).Validate())); n != 2 {
		t.Errorf("expected 2 validation errors, got %d", n)
	}
	if !strings.Contains(err.Error(), "max-scope-depth") || !strings.Contains(err.Error(), "gc-every") {
		t.Errorf("expected both fields reported, got %v", err)
	}
}

func TestLoadManifestUnknownKey(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[host]
max-depth = 10
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "host.max-depth") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[addon]
name = "found"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Addon.Name != "found" {
		t.Errorf("addon name = %q, want found", m.Addon.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no tether.toml exists")
	}
}
