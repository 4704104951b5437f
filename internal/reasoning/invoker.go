// Package reasoning is the text-in/text-out collaborator behind the
// call-relationship and flow-diagram stages.
package reasoning

import (
	"context"
	"strings"

	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/provider"
)

// Invoker sends one system/user prompt pair to a model and returns the
// complete response text.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, opts config.ModelOptions) (string, error)
}

// Func adapts a plain function to the Invoker interface.
type Func func(ctx context.Context, system, user string, opts config.ModelOptions) (string, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
	return f(ctx, system, user, opts)
}

// ProviderInvoker collects a provider's streamed text into a single string.
type ProviderInvoker struct {
	provider     provider.LLMProvider
	defaultModel string
}

// NewProviderInvoker creates an Invoker on top of p. defaultModel is used
// when the options carry no model name.
func NewProviderInvoker(p provider.LLMProvider, defaultModel string) *ProviderInvoker {
	return &ProviderInvoker{provider: p, defaultModel: defaultModel}
}

// Invoke implements Invoker.
func (c *ProviderInvoker) Invoke(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	req := provider.CompletionRequest{
		Model:            model,
		System:           system,
		Messages:         []provider.Message{provider.NewUserMessage(user)},
		MaxTokens:        opts.MaxTokens,
		Temperature:      provider.Float(opts.Temperature),
		TopP:             provider.Float(opts.TopP),
		FrequencyPenalty: provider.Float(opts.FrequencyPenalty),
	}

	ch, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "llm invoke")
	}

	var sb strings.Builder
	for evt := range ch {
		switch evt.Type {
		case provider.EventTextDelta:
			sb.WriteString(evt.Text)
		case provider.EventError:
			// drain so the producer goroutine can exit
			for range ch {
			}
			return "", errors.Wrap(evt.Error, "llm stream error")
		}
	}
	return sb.String(), nil
}
