// Package backend defines the uniform surface every text-generation backend
// exposes to the scheduling layer, the failure taxonomy adapters report with,
// and the concrete adapters (ollama, OpenAI-compatible HTTP, in-process llama,
// mock).
//
// Files by concern:
//
//   - backend.go: Backend contract and its value types.
//   - errors.go: TransientError, PermanentError, TimeoutError and Classify.
//   - base.go: Base, which derives the narrative operations from Invoke.
//   - prompts.go: message assembly for narrative, summary and closing.
//   - ollama.go, openai.go, llama.go (tag llama), llama_stub.go, mock.go: adapters.
//   - factory.go: New builds the configured adapter.
package backend

import "context"

// Message is one chat turn sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// InvokeOptions carries generation parameters. Zero values leave the
// backend's own defaults in place.
type InvokeOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
	Seed        int
}

// Generation is the result of a single backend call.
type Generation struct {
	Text       string `json:"text"`
	ModelID    string `json:"model_id"`
	TokenCount int    `json:"token_count"`
}

// ProbeResult is a backend's own health verdict. Reason is empty when Available.
type ProbeResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// NarrativeContext is the game state handed to the narrative operations.
// The adapter turns it into messages; the scheduling layer never inspects it.
type NarrativeContext struct {
	Scene        string   `json:"scene"`
	Players      []string `json:"players,omitempty"`
	Clues        []string `json:"clues,omitempty"`
	Events       []string `json:"events,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
}

// Backend is the five-operation surface of a text-generation service plus
// its identity. Implementations must be safe for concurrent use.
//
// Probe must not return an error because the backend is down; it reports
// that as ProbeResult{Available: false}. An error from Probe means the
// adapter itself is misconfigured.
type Backend interface {
	Name() string
	Model() string
	GenerateNarrative(ctx context.Context, nc NarrativeContext) (Generation, error)
	Summarize(ctx context.Context, text string) (string, error)
	GenerateClosing(ctx context.Context, nc NarrativeContext) (string, error)
	Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error)
	Probe(ctx context.Context) (ProbeResult, error)
}

// Invoker is the single primitive a concrete adapter has to provide.
type Invoker interface {
	Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error)
}
