//go:build llama

package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt reports whether this binary links the in-process runtime.
const llamaBuilt = true

// LlamaConfig configures the in-process llama.cpp adapter.
type LlamaConfig struct {
	Model     string
	ModelPath string
	CtxSize   int
	Threads   int
	Defaults  InvokeOptions
}

// Llama runs generation in-process through go-llama.cpp. The model is loaded
// on first use and calls are serialized; the runtime is not reentrant.
type Llama struct {
	Base
	cfg   LlamaConfig
	mu    sync.Mutex
	model *llama.LLama
}

// NewLlama builds the adapter without loading the model.
func NewLlama(cfg LlamaConfig) *Llama {
	l := &Llama{cfg: cfg}
	l.Base = NewBase(l, cfg.Defaults)
	return l
}

func (l *Llama) Name() string  { return KindLlama }
func (l *Llama) Model() string { return l.cfg.Model }

func (l *Llama) load() (*llama.LLama, error) {
	if l.model != nil {
		return l.model, nil
	}
	if strings.TrimSpace(l.cfg.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(l.cfg.ModelPath, llama.SetContext(l.cfg.CtxSize))
	if err != nil {
		return nil, err
	}
	l.model = m
	return m, nil
}

// Invoke renders messages as a completion prompt and predicts. Load and
// runtime failures are permanent: a local runtime does not recover by retrying.
func (l *Llama) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error) {
	const op = "llama predict"
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	m, err := l.load()
	if err != nil {
		return Generation{}, Permanent("llama load", err)
	}
	// Stop predicting once the attempt is abandoned.
	m.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := m.Predict(flattenMessages(messages), predictOptions(opts, l.cfg.Threads)...)
	if ctx.Err() != nil {
		return Generation{}, ctx.Err()
	}
	if err != nil {
		return Generation{}, Permanent(op, err)
	}
	return Generation{Text: strings.TrimSpace(text), ModelID: l.cfg.Model}, nil
}

// Probe checks the model file is present.
func (l *Llama) Probe(ctx context.Context) (ProbeResult, error) {
	return probeModelFile(l.cfg.ModelPath), nil
}

// Close frees the loaded model.
func (l *Llama) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != nil {
		l.model.Free()
		l.model = nil
	}
	return nil
}

func predictOptions(opts InvokeOptions, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, opts.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(orFloat(float32(opts.TopP), llama.DefaultOptions.TopP)),
		llama.SetTemperature(orFloat(float32(opts.Temperature), llama.DefaultOptions.Temperature)),
	}
	if opts.Seed != 0 {
		po = append(po, llama.SetSeed(opts.Seed))
	}
	if len(opts.Stop) > 0 {
		po = append(po, llama.SetStopWords(opts.Stop...))
	}
	return po
}

func orFloat(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
