// Package manifest handles tether.toml host configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// FileName is the name of the configuration file.
const FileName = "tether.toml"

// Manifest represents a tether.toml configuration.
type Manifest struct {
	Addon Addon     `toml:"addon"`
	Host  Host      `toml:"host"`
	Trace Trace     `toml:"trace"`
	Log   LogConfig `toml:"log"`

	// Dir is the directory containing the tether.toml file (set at load time).
	Dir string `toml:"-"`
}

// Addon names the module the linked addon is loaded as.
type Addon struct {
	Name string `toml:"name"`
}

// Host configures the reference host.
type Host struct {
	MaxScopeDepth int           `toml:"max-scope-depth"`
	GCEvery       int           `toml:"gc-every"`
	GCInterval    time.Duration `toml:"gc-interval"`
}

// Trace configures scope event recording. An empty path disables it.
type Trace struct {
	Path string `toml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Default returns the configuration used when no tether.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Addon.Name == "" {
		m.Addon.Name = "addon"
	}
	if m.Host.GCInterval == 0 {
		m.Host.GCInterval = 30 * time.Second
	}
}

// Validate reports configuration values the host cannot use.
func (m *Manifest) Validate() error {
	var err error
	if m.Host.MaxScopeDepth < 0 {
		err = multierr.Append(err, fmt.Errorf("host.max-scope-depth must not be negative, got %d", m.Host.MaxScopeDepth))
	}
	if m.Host.GCEvery < 0 {
		err = multierr.Append(err, fmt.Errorf("host.gc-every must not be negative, got %d", m.Host.GCEvery))
	}
	if m.Host.GCInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("host.gc-interval must not be negative, got %s", m.Host.GCInterval))
	}
	return err
}

// Load parses a tether.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tether.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// TracePath returns the trace database path, resolved against the
// manifest directory, or "" when tracing is off.
func (m *Manifest) TracePath() string {
	return m.resolve(m.Trace.Path)
}

// LogPath returns the log file path, or "" for stderr.
func (m *Manifest) LogPath() string {
	return m.resolve(m.Log.Path)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
