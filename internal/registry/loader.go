package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Model is a .gguf file available to the in-process runtime.
type Model struct {
	ID   string
	Path string
}

// LoadDir scans a directory for *.gguf files. ID is the full filename
// (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]Model, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, Model{ID: name, Path: filepath.Join(abs, name)})
	}
	return models, nil
}

// Resolve finds the model named name in dir. The name may omit the .gguf
// extension. An absolute path to an existing file is returned as is.
func Resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("model name is empty")
	}
	if filepath.IsAbs(name) && Exists(name) {
		return name, nil
	}
	models, err := LoadDir(dir)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		if m.ID == name || strings.TrimSuffix(m.ID, filepath.Ext(m.ID)) == name {
			return m.Path, nil
		}
	}
	return "", fmt.Errorf("model %q not found in %s", name, dir)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
