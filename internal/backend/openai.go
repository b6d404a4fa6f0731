package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenRouterURL is the base URL used for the openrouter kind.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenAIConfig configures an OpenAI-compatible chat completions backend
// (OpenRouter, llama.cpp server, vLLM).
type OpenAIConfig struct {
	Kind           string
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Defaults       InvokeOptions
}

// OpenAI is an adapter for servers exposing /chat/completions and /models.
type OpenAI struct {
	Base
	kind       string
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

// NewOpenAI builds the adapter. A missing base URL is reported by Probe
// rather than here so the gate can record it as a verdict.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(10 * time.Second)
	}
	kind := cfg.Kind
	if kind == "" {
		kind = KindOpenAI
	}
	a := &OpenAI{
		kind:       kind,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		reqTimeout: cfg.RequestTimeout,
		httpClient: hc,
	}
	a.Base = NewBase(a, cfg.Defaults)
	return a
}

// newHTTPClient returns a client whose only deadline is the dial timeout;
// request deadlines come from the caller's context.
func newHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr}
}

func (a *OpenAI) Name() string  { return a.kind }
func (a *OpenAI) Model() string { return a.model }

type chatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Seed        int       `json:"seed,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Invoke posts a non-streaming chat completion.
func (a *OpenAI) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error) {
	const op = "chat completion"
	if a.baseURL == "" {
		return Generation{}, Permanent(op, errors.New("base url not configured"))
	}
	if a.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.reqTimeout)
		defer cancel()
	}
	body, err := json.Marshal(chatRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        opts.Stop,
		Seed:        opts.Seed,
	})
	if err != nil {
		return Generation{}, Permanent(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Generation{}, Permanent(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Generation{}, FromNetError(op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Generation{}, FromNetError(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Generation{}, FromStatus(op, resp.StatusCode, snippet(raw))
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Generation{}, Permanent(op, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != nil {
		return Generation{}, Permanent(op, errors.New(out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return Generation{}, Permanent(op, errors.New("response has no choices"))
	}
	model := out.Model
	if model == "" {
		model = a.model
	}
	tokens := out.Usage.CompletionTokens
	if tokens == 0 {
		tokens = out.Usage.TotalTokens
	}
	return Generation{Text: out.Choices[0].Message.Content, ModelID: model, TokenCount: tokens}, nil
}

// Probe lists models. Auth and quota rejections are reported as unavailable
// verdicts; only a missing base URL is an error.
func (a *OpenAI) Probe(ctx context.Context) (ProbeResult, error) {
	if a.baseURL == "" {
		return ProbeResult{}, fmt.Errorf("%s: base url not configured", a.kind)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return ProbeResult{}, err
	}
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ProbeResult{Available: false, Reason: err.Error()}, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ProbeResult{Available: true}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ProbeResult{Available: false, Reason: "authentication rejected"}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired:
		return ProbeResult{Available: false, Reason: "quota exceeded"}, nil
	default:
		return ProbeResult{Available: false, Reason: "models endpoint returned " + resp.Status}, nil
	}
}

func (a *OpenAI) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

func snippet(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
