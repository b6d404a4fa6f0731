package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is used when OllamaConfig.BaseURL is empty.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaConfig configures the Ollama adapter.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Defaults   InvokeOptions
}

// Ollama talks to an Ollama server through its official client.
type Ollama struct {
	Base
	client  *api.Client
	baseURL string
	model   string
}

// NewOllama builds an Ollama adapter. The model must be set.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ollama: model is required")
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultOllamaURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(0)
	}
	o := &Ollama{client: api.NewClient(u, hc), baseURL: base, model: cfg.Model}
	o.Base = NewBase(o, cfg.Defaults)
	return o, nil
}

func (o *Ollama) Name() string  { return KindOllama }
func (o *Ollama) Model() string { return o.model }

// Invoke sends a non-streaming chat request.
func (o *Ollama) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
		Options:  ollamaOptions(opts),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, api.Message{Role: m.Role, Content: m.Content})
	}
	var (
		text  strings.Builder
		final api.ChatResponse
	)
	err := o.client.Chat(ctx, req, func(r api.ChatResponse) error {
		text.WriteString(r.Message.Content)
		if r.Done {
			final = r
		}
		return nil
	})
	if err != nil {
		return Generation{}, ollamaError("ollama chat", err)
	}
	model := final.Model
	if model == "" {
		model = o.model
	}
	return Generation{Text: text.String(), ModelID: model, TokenCount: final.EvalCount}, nil
}

// Probe lists local models and checks the configured one is pulled.
func (o *Ollama) Probe(ctx context.Context) (ProbeResult, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return ProbeResult{Available: false, Reason: fmt.Sprintf("ollama at %s: %v", o.baseURL, err)}, nil
	}
	for _, m := range resp.Models {
		if sameOllamaModel(m.Name, o.model) || sameOllamaModel(m.Model, o.model) {
			return ProbeResult{Available: true}, nil
		}
	}
	return ProbeResult{Available: false, Reason: fmt.Sprintf("model %q not pulled", o.model)}, nil
}

// sameOllamaModel treats "llama3" and "llama3:latest" as the same tag.
func sameOllamaModel(have, want string) bool {
	if have == want {
		return true
	}
	return strings.TrimSuffix(have, ":latest") == strings.TrimSuffix(want, ":latest")
}

func ollamaOptions(opts InvokeOptions) map[string]any {
	out := map[string]any{}
	if opts.MaxTokens > 0 {
		out["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		out["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		out["top_p"] = opts.TopP
	}
	if len(opts.Stop) > 0 {
		out["stop"] = opts.Stop
	}
	if opts.Seed != 0 {
		out["seed"] = opts.Seed
	}
	return out
}

func ollamaError(op string, err error) error {
	var se api.StatusError
	if errors.As(err, &se) {
		msg := se.ErrorMessage
		if msg == "" {
			msg = se.Status
		}
		return FromStatus(op, se.StatusCode, msg)
	}
	return FromNetError(op, err)
}
