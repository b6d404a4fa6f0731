package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Kinds(t *testing.T) {
	cases := []struct {
		cfg  Config
		name string
	}{
		{Config{Kind: "mock"}, KindMock},
		{Config{Kind: "OLLAMA", Model: "llama3"}, KindOllama},
		{Config{Kind: "openai", BaseURL: "http://x/v1", Model: "m"}, KindOpenAI},
		{Config{Kind: "openrouter", APIKey: "k", Model: "anthropic/claude-3-haiku"}, KindOpenRouter},
		{Config{Kind: "llamacpp", Model: "m"}, KindLlamaCpp},
	}
	for _, c := range cases {
		b, err := New(c.cfg)
		if err != nil {
			t.Fatalf("%s: %v", c.cfg.Kind, err)
		}
		if b.Name() != c.name {
			t.Fatalf("%s: name=%s", c.cfg.Kind, b.Name())
		}
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Config{Kind: "nope"}); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
	if _, err := New(Config{Kind: "openrouter", Model: "m"}); err == nil {
		t.Fatalf("expected api key error")
	}
	if _, err := New(Config{Kind: "llama", ModelsDir: t.TempDir(), Model: "missing"}); err == nil {
		t.Fatalf("expected model resolution error")
	}
}

func TestNew_LlamaResolvesModel(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.gguf"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := New(Config{Kind: "llama", ModelsDir: dir, Model: "tiny"})
	if err != nil {
		t.Fatalf("new llama: %v", err)
	}
	r, err := b.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if LlamaBuilt() != r.Available {
		t.Fatalf("probe verdict %+v does not match build (llama built=%v)", r, LlamaBuilt())
	}
}
