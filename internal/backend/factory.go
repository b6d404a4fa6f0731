package backend

import (
	"fmt"
	"strings"
	"time"

	"mysteryd/internal/registry"
)

// Backend kinds accepted by New.
const (
	KindOllama     = "ollama"
	KindOpenAI     = "openai"
	KindOpenRouter = "openrouter"
	KindLlamaCpp   = "llamacpp"
	KindLlama      = "llama"
	KindMock       = "mock"
)

// Kinds lists every kind New understands.
func Kinds() []string {
	return []string{KindOllama, KindOpenAI, KindOpenRouter, KindLlamaCpp, KindLlama, KindMock}
}

// LlamaBuilt reports whether the in-process llama runtime is linked in.
func LlamaBuilt() bool { return llamaBuilt }

// Config selects and configures one backend for the process lifetime.
type Config struct {
	Kind           string
	BaseURL        string
	Model          string
	APIKey         string
	ModelsDir      string
	CtxSize        int
	Threads        int
	RequestTimeout time.Duration
	Defaults       InvokeOptions
}

// New builds the backend named by cfg.Kind.
func New(cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindOllama:
		return NewOllama(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Defaults: cfg.Defaults})
	case KindOpenAI:
		return NewOpenAI(OpenAIConfig{Kind: KindOpenAI, BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model, RequestTimeout: cfg.RequestTimeout, Defaults: cfg.Defaults}), nil
	case KindOpenRouter:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter: api key is required")
		}
		base := cfg.BaseURL
		if base == "" {
			base = DefaultOpenRouterURL
		}
		return NewOpenAI(OpenAIConfig{Kind: KindOpenRouter, BaseURL: base, APIKey: cfg.APIKey, Model: cfg.Model, RequestTimeout: cfg.RequestTimeout, Defaults: cfg.Defaults}), nil
	case KindLlamaCpp:
		base := cfg.BaseURL
		if base == "" {
			base = "http://localhost:8080/v1"
		}
		return NewOpenAI(OpenAIConfig{Kind: KindLlamaCpp, BaseURL: base, APIKey: cfg.APIKey, Model: cfg.Model, RequestTimeout: cfg.RequestTimeout, Defaults: cfg.Defaults}), nil
	case KindLlama:
		path, err := registry.Resolve(cfg.ModelsDir, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("llama: %w", err)
		}
		return NewLlama(LlamaConfig{Model: cfg.Model, ModelPath: path, CtxSize: cfg.CtxSize, Threads: cfg.Threads, Defaults: cfg.Defaults}), nil
	case KindMock:
		return NewMock(MockConfig{Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported backend kind %q (want one of %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
}

func probeModelFile(path string) ProbeResult {
	if !registry.Exists(path) {
		return ProbeResult{Available: false, Reason: fmt.Sprintf("model file not found: %s", path)}
	}
	return ProbeResult{Available: true}
}
