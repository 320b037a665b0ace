// Package names reconciles the three spellings a country can have: the
// common name shown in the UI, the backend name the data API is queried
// with, and the geometry name used by the map boundary dataset.
//
// Every lookup falls back to its input when the name is unknown, since
// most countries are spelled the same in all three vocabularies.
package names

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var tableYAML string

// BackendEntry maps one common spelling to its backend spelling.
type BackendEntry struct {
	Common  string `yaml:"common"`
	Backend string `yaml:"backend"`
}

// GeometryEntry maps a backend or common spelling to a geometry name.
type GeometryEntry struct {
	Name     string `yaml:"name"`
	Geometry string `yaml:"geometry"`
}

type tableFile struct {
	Backend         []BackendEntry  `yaml:"backend"`
	Geometry        []GeometryEntry `yaml:"geometry"`
	GeometryAliases []GeometryEntry `yaml:"geometry_aliases"`
}

// Table is an immutable set of name mappings. It is safe for concurrent use.
type Table struct {
	commonToBackend  map[string]string
	backendToCommons map[string][]string // registration order, first is the display name
	toGeometry       map[string]string
	geometryToCommon map[string]string // last write wins, lossy
	backendNames     []string
}

// Load parses a YAML name table.
func Load(r io.Reader) (*Table, error) {
	var f tableFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("could not decode name table: %w", err)
	}
	t, err := New(f.Backend, f.Geometry)
	if err != nil {
		return nil, err
	}
	if err := t.reverseOnly(f.GeometryAliases); err != nil {
		return nil, err
	}
	return t, nil
}

// New builds a table from ordered entries. Keys must be non-empty. A common
// name registered twice keeps its first backend name.
func New(backend []BackendEntry, geometry []GeometryEntry) (*Table, error) {
	t := &Table{
		commonToBackend:  make(map[string]string, len(backend)),
		backendToCommons: make(map[string][]string),
		toGeometry:       make(map[string]string, len(geometry)),
		geometryToCommon: make(map[string]string),
	}

	for i, e := range backend {
		if strings.TrimSpace(e.Common) == "" || strings.TrimSpace(e.Backend) == "" {
			return nil, fmt.Errorf("backend entry %d: empty country name", i)
		}
		if _, exists := t.commonToBackend[e.Common]; exists {
			continue
		}
		t.commonToBackend[e.Common] = e.Backend
		if _, seen := t.backendToCommons[e.Backend]; !seen {
			t.backendNames = append(t.backendNames, e.Backend)
		}
		t.backendToCommons[e.Backend] = append(t.backendToCommons[e.Backend], e.Common)
	}

	for i, e := range geometry {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Geometry) == "" {
			return nil, fmt.Errorf("geometry entry %d: empty country name", i)
		}
		if _, exists := t.toGeometry[e.Name]; exists {
			continue
		}
		t.toGeometry[e.Name] = e.Geometry
	}

	t.reverse(geometry)
	return t, nil
}

// reverse registers geometry names for FromGeometry. Only names that
// resolve to a known backend name are kept, so a map click always yields a
// queryable country.
func (t *Table) reverse(geometry []GeometryEntry) {
	for _, e := range geometry {
		backendName := t.Normalize(e.Name)
		if _, known := t.backendToCommons[backendName]; !known {
			continue
		}
		t.geometryToCommon[e.Geometry] = t.DisplayName(backendName)
	}
}

// reverseOnly registers feature names of other boundary datasets. They are
// read by FromGeometry but GeometryName never returns them, and they do not
// replace a name already registered from the geometry table.
func (t *Table) reverseOnly(aliases []GeometryEntry) error {
	var fresh []GeometryEntry
	for i, e := range aliases {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Geometry) == "" {
			return fmt.Errorf("geometry alias %d: empty country name", i)
		}
		if _, taken := t.geometryToCommon[e.Geometry]; !taken {
			fresh = append(fresh, e)
		}
	}
	t.reverse(fresh)
	return nil
}

// Normalize returns the backend spelling of a common name, or name itself
// when it has no mapping.
func (t *Table) Normalize(name string) string {
	if b, ok := t.commonToBackend[name]; ok {
		return b
	}
	return name
}

// DisplayName returns the first registered common name for a backend name,
// or backendName itself when it has no mapping. Historical aliases of the
// same country collapse to that first name.
func (t *Table) DisplayName(backendName string) string {
	if commons := t.backendToCommons[backendName]; len(commons) > 0 {
		return commons[0]
	}
	return backendName
}

// Aliases returns every common name registered for a backend name, in
// registration order.
func (t *Table) Aliases(backendName string) []string {
	commons := t.backendToCommons[backendName]
	out := make([]string, len(commons))
	copy(out, commons)
	return out
}

// GeometryName returns the map feature name for a backend or common
// spelling. A name missing from the geometry table is retried through its
// backend spelling before falling back to the input.
func (t *Table) GeometryName(name string) string {
	if g, ok := t.toGeometry[name]; ok {
		return g
	}
	if b := t.Normalize(name); b != name {
		if g, ok := t.toGeometry[b]; ok {
			return g
		}
	}
	return name
}

// FromGeometry returns the common name for a map feature name, or geometry
// itself when unmapped.
func (t *Table) FromGeometry(geometry string) string {
	if c, ok := t.geometryToCommon[geometry]; ok {
		return c
	}
	return geometry
}

// Same reports whether two spellings refer to the same backend country.
func (t *Table) Same(a, b string) bool {
	return t.Normalize(a) == t.Normalize(b)
}

// BackendNames returns the distinct backend names in registration order.
func (t *Table) BackendNames() []string {
	out := make([]string, len(t.backendNames))
	copy(out, t.backendNames)
	return out
}

var defaultTable = mustLoadDefault()

func mustLoadDefault() *Table {
	t, err := Load(strings.NewReader(tableYAML))
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the built-in table.
func Default() *Table { return defaultTable }

// Normalize is Default().Normalize.
func Normalize(name string) string { return defaultTable.Normalize(name) }

// DisplayName is Default().DisplayName.
func DisplayName(backendName string) string { return defaultTable.DisplayName(backendName) }

// GeometryName is Default().GeometryName.
func GeometryName(name string) string { return defaultTable.GeometryName(name) }

// FromGeometry is Default().FromGeometry.
func FromGeometry(geometry string) string { return defaultTable.FromGeometry(geometry) }

// Same is Default().Same.
func Same(a, b string) bool { return defaultTable.Same(a, b) }
