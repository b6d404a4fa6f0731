//go:build !llama

package backend

// Stub compiled when the 'llama' build tag is not set, keeping default
// builds CGO-free. The real adapter lives in llama.go.

import (
	"context"
	"errors"
)

const llamaBuilt = false

var errLlamaNotBuilt = errors.New("llama support not built (missing 'llama' build tag)")

// LlamaConfig configures the in-process llama.cpp adapter.
type LlamaConfig struct {
	Model     string
	ModelPath string
	CtxSize   int
	Threads   int
	Defaults  InvokeOptions
}

// Llama is the stub adapter; it never generates.
type Llama struct {
	Base
	cfg LlamaConfig
}

func NewLlama(cfg LlamaConfig) *Llama {
	l := &Llama{cfg: cfg}
	l.Base = NewBase(l, cfg.Defaults)
	return l
}

func (l *Llama) Name() string  { return KindLlama }
func (l *Llama) Model() string { return l.cfg.Model }

func (l *Llama) Invoke(ctx context.Context, messages []Message, opts InvokeOptions) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	return Generation{}, Permanent("llama predict", errLlamaNotBuilt)
}

func (l *Llama) Probe(ctx context.Context) (ProbeResult, error) {
	return ProbeResult{Available: false, Reason: errLlamaNotBuilt.Error()}, nil
}

func (l *Llama) Close() error { return nil }
