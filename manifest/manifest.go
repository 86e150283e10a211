// Package manifest handles dispatch.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "dispatch.toml"

// CatalogEnv overrides the configured catalog path when set.
const CatalogEnv = "CLASSDISPATCH_CATALOG"

// Manifest represents a dispatch.toml project configuration.
type Manifest struct {
	Project  Project   `toml:"project"`
	Logging  Logging   `toml:"logging"`
	Catalog  Catalog   `toml:"catalog"`
	Generics []Generic `toml:"generic"`
	Methods  []Method  `toml:"method"`
	Objects  []Object  `toml:"object"`

	// Dir is the directory containing the dispatch.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Logging configures commonlog output. Verbosity follows commonlog: 0 logs
// notices and above, and each step adds a finer level.
type Logging struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Catalog configures where method table snapshots are written.
type Catalog struct {
	Path string `toml:"path"`
}

// Generic declares a generic function.
type Generic struct {
	Name      string `toml:"name"`
	Primitive bool   `toml:"primitive"`
}

// Method declares a scripted method: it returns a fixed string, optionally
// re-classes its receiver, and optionally continues with NextMethod.
type Method struct {
	Generic string   `toml:"generic"`
	Class   string   `toml:"class"`
	Returns string   `toml:"returns"`
	Label   string   `toml:"label"`
	Next    bool     `toml:"next"`
	Reclass []string `toml:"reclass"`
}

// Object declares a named sample receiver.
type Object struct {
	Name     string   `toml:"name"`
	Class    []string `toml:"class"`
	Implicit []string `toml:"implicit"`
}

// Load parses a dispatch.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(m.Dir)
	}

	return m, nil
}

// Parse decodes and validates manifest content. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Defaults
	if m.Catalog.Path == "" {
		m.Catalog.Path = "methods.db"
	}
	for i := range m.Methods {
		if m.Methods[i].Returns == "" {
			m.Methods[i].Returns = m.Methods[i].Class
		}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a dispatch.toml file,
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

// CatalogPath returns the absolute catalog path, honouring CatalogEnv.
func (m *Manifest) CatalogPath() string {
	path := m.Catalog.Path
	if env := os.Getenv(CatalogEnv); env != "" {
		path = env
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}

// LogFile returns the absolute log file path, or nil for stderr.
func (m *Manifest) LogFile() *string {
	if m.Logging.File == "" {
		return nil
	}
	path := m.Logging.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
