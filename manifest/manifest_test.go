package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/classdispatch/dispatch"
)

const factorManifest = `
[project]
name = "factors"
version = "0.1.0"

[logging]
verbosity = 2
file = "dispatch.log"

[catalog]
path = "out/methods.db"

[[generic]]
name = "length"
primitive = true

[[generic]]
name = "print"

[[method]]
generic = "print"
class = "ordered"
label = "ordered levels"
next = true

[[method]]
generic = "print"
class = "factor"
returns = "factor levels"

[[method]]
generic = "length"
class = "integer"

[[object]]
name = "x"
class = ["ordered", "factor"]
implicit = ["integer", "numeric"]

[[object]]
name = "bare"
`

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, factorManifest)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "factors" {
		t.Errorf("project name = %q, want factors", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Logging.Verbosity != 2 {
		t.Errorf("logging verbosity = %d, want 2", m.Logging.Verbosity)
	}
	if len(m.Generics) != 2 || !m.Generics[0].Primitive || m.Generics[1].Primitive {
		t.Errorf("generics = %+v", m.Generics)
	}
	if len(m.Methods) != 3 {
		t.Fatalf("methods count = %d, want 3", len(m.Methods))
	}
	if m.Methods[0].Label != "ordered levels" || !m.Methods[0].Next {
		t.Errorf("method[0] = %+v", m.Methods[0])
	}
	if len(m.Objects) != 2 || len(m.Objects[0].Class) != 2 {
		t.Errorf("objects = %+v", m.Objects)
	}
	if got := m.LogFile(); got == nil || *got != filepath.Join(m.Dir, "dispatch.log") {
		t.Errorf("LogFile = %v", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[[method]]
generic = "print"
class = "factor"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != filepath.Base(dir) {
		t.Errorf("default project name = %q, want %q", m.Project.Name, filepath.Base(dir))
	}
	if m.Catalog.Path != "methods.db" {
		t.Errorf("default catalog path = %q, want methods.db", m.Catalog.Path)
	}
	if m.Methods[0].Returns != "factor" {
		t.Errorf("default returns = %q, want factor", m.Methods[0].Returns)
	}
	if m.LogFile() != nil {
		t.Error("LogFile should be nil without logging.file")
	}
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[image]\noutput = \"x\"\n"},
		{"method without class", "[[method]]\ngeneric = \"print\"\n"},
		{"empty generic name", "[[generic]]\nname = \"\"\n"},
		{"verbosity out of range", "[logging]\nverbosity = 12\n"},
		{"wrong type", "[[object]]\nname = \"x\"\nclass = \"factor\"\n"},
		{"bad toml", "[[method\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[project]\nname = \"found-project\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no dispatch.toml exists")
	}
}

func TestCatalogPath(t *testing.T) {
	m := &Manifest{Dir: "/app", Catalog: Catalog{Path: "methods.db"}}
	if got := m.CatalogPath(); got != "/app/methods.db" {
		t.Errorf("CatalogPath = %q, want /app/methods.db", got)
	}

	t.Setenv(CatalogEnv, "/tmp/override.db")
	if got := m.CatalogPath(); got != "/tmp/override.db" {
		t.Errorf("CatalogPath with env = %q, want /tmp/override.db", got)
	}
}

func TestApplyAndDispatch(t *testing.T) {
	m, err := Parse([]byte(factorManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	r := dispatch.New()
	if err := m.Apply(r); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !r.Table().IsPrimitive("length") || r.Table().IsPrimitive("print") {
		t.Errorf("primitives = %v, want [length]", r.Table().Primitives())
	}
	if entry := r.Table().Lookup("print", "ordered"); entry == nil || entry.Label != "ordered levels" {
		t.Errorf("print/ordered entry = %+v", entry)
	}

	x, err := m.Object("x")
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	got, err := r.Dispatch(context.Background(), "print", x, nil)
	if err != nil {
		t.Fatalf("Dispatch print failed: %v", err)
	}
	if got != "ordered -> factor levels" {
		t.Errorf("print = %v, want ordered -> factor levels", got)
	}

	got, err = r.Dispatch(context.Background(), "length", x, nil)
	if err != nil {
		t.Fatalf("Dispatch length failed: %v", err)
	}
	if got != "integer" {
		t.Errorf("length = %v, want integer", got)
	}

	bare, _ := m.Object("bare")
	if bare.ImplicitClass().String() != `c("NULL")` {
		t.Errorf("bare implicit = %s, want NULL", bare.ImplicitClass())
	}
	if _, err := r.Dispatch(context.Background(), "print", bare, nil); !errors.Is(err, dispatch.ErrNoApplicableMethod) {
		t.Errorf("print bare err = %v, want ErrNoApplicableMethod", err)
	}

	if _, err := m.Object("missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("Object(missing) err = %v", err)
	}
}

func TestScriptedReclassKeepsChain(t *testing.T) {
	m, err := Parse([]byte(`
[[method]]
generic = "print"
class = "child"
next = true
reclass = ["stranger"]

[[method]]
generic = "print"
class = "parent"

[[method]]
generic = "print"
class = "stranger"

[[object]]
name = "kid"
class = ["child", "parent"]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r := dispatch.New()
	if err := m.Apply(r); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	kid, _ := m.Object("kid")
	got, err := r.Dispatch(context.Background(), "print", kid, nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got != "child -> parent" {
		t.Errorf("Dispatch = %v, want child -> parent", got)
	}
	if kid.Class().String() != `c("stranger")` {
		t.Errorf("class after dispatch = %s, want stranger", kid.Class())
	}
}
