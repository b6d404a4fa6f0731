package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModels(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, f := range names {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
}

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "a.gguf", "b.GGUF", "not-model.txt", "model.bin")
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d: %+v", len(models), models)
	}
	for _, m := range models {
		if !strings.HasSuffix(strings.ToLower(m.ID), ".gguf") {
			t.Fatalf("id not gguf: %s", m.ID)
		}
		if !filepath.IsAbs(m.Path) {
			t.Fatalf("path not absolute: %s", m.Path)
		}
	}
}

func TestLoadDir_MissingDir(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "tinyllama-q4.gguf", "other.gguf")

	p, err := Resolve(dir, "tinyllama-q4")
	if err != nil {
		t.Fatalf("resolve without extension: %v", err)
	}
	if filepath.Base(p) != "tinyllama-q4.gguf" {
		t.Fatalf("unexpected path %s", p)
	}
	if _, err := Resolve(dir, "other.gguf"); err != nil {
		t.Fatalf("resolve with extension: %v", err)
	}
	if got, err := Resolve("", p); err != nil || got != p {
		t.Fatalf("absolute path: got %q err %v", got, err)
	}
	if _, err := Resolve(dir, "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, err := Resolve(dir, " "); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "m.gguf")
	if !Exists(filepath.Join(dir, "m.gguf")) {
		t.Fatalf("expected file to exist")
	}
	if Exists(dir) {
		t.Fatalf("directory must not count as a model file")
	}
	if Exists(filepath.Join(dir, "missing.gguf")) || Exists("") {
		t.Fatalf("missing path reported as existing")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	got, err := expandHome("~/models/llm")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "models", "llm") {
		t.Fatalf("got %s", got)
	}
	if got, _ := expandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path changed: %s", got)
	}
}
