package backend

import (
	"context"
	"strings"
)

// Base derives GenerateNarrative, Summarize and GenerateClosing from a single
// Invoker. Adapters embed it and supply their own Invoke and Probe.
type Base struct {
	inv      Invoker
	defaults InvokeOptions
}

// NewBase binds the derived operations to inv. defaults apply to every call
// unless the narrative context overrides MaxTokens.
func NewBase(inv Invoker, defaults InvokeOptions) Base {
	return Base{inv: inv, defaults: defaults}
}

func (b Base) options(maxTokens int) InvokeOptions {
	opts := b.defaults
	if maxTokens > 0 {
		opts.MaxTokens = maxTokens
	}
	return opts
}

// GenerateNarrative produces the next narrative beat for nc.
func (b Base) GenerateNarrative(ctx context.Context, nc NarrativeContext) (Generation, error) {
	return b.inv.Invoke(ctx, NarrativeMessages(nc), b.options(nc.MaxTokens))
}

// Summarize condenses text.
func (b Base) Summarize(ctx context.Context, text string) (string, error) {
	g, err := b.inv.Invoke(ctx, SummaryMessages(text), b.options(0))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(g.Text), nil
}

// GenerateClosing produces the end-of-game reveal for nc.
func (b Base) GenerateClosing(ctx context.Context, nc NarrativeContext) (string, error) {
	g, err := b.inv.Invoke(ctx, ClosingMessages(nc), b.options(nc.MaxTokens))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(g.Text), nil
}
