// Package manifest handles tarn.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/tarn-lang/tarn/gc"
)

// FileName is the manifest filename looked for in a project directory.
const FileName = "tarn.toml"

// Manifest represents a tarn.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Heap    Heap    `toml:"heap"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the tarn.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program entry file.
type Source struct {
	Entry string `toml:"entry"`
}

// Heap tunes the collector for executions of this project.
type Heap struct {
	InitialThreshold int     `toml:"initial-threshold"`
	GrowthFactor     float64 `toml:"growth-factor"`
	MaxBytes         int     `toml:"max-bytes"`
	Stress           bool    `toml:"stress"`
}

// Log configures logging for the CLI.
type Log struct {
	Level string `toml:"level"`
}

// Load parses a tarn.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Source.Entry == "" {
		m.Source.Entry = "main.tarn"
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tarn.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
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
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the configured entry file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Source.Entry)
}

// HeapConfig converts the manifest's heap section into a collector
// configuration. Unset fields keep the collector defaults.
func (m *Manifest) HeapConfig() gc.Config {
	return gc.Config{
		InitialThreshold: m.Heap.InitialThreshold,
		GrowthFactor:     m.Heap.GrowthFactor,
		MaxHeapBytes:     m.Heap.MaxBytes,
		StressMode:       m.Heap.Stress,
	}
}

// LogLevel parses the manifest's log level, defaulting to warn when unset
// or unrecognized.
func (m *Manifest) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(m.Log.Level)
	if err != nil || m.Log.Level == "" {
		return zerolog.WarnLevel
	}
	return level
}
