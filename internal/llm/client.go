// Package llm provides the narrow language-model capability the triage
// extractor depends on. The core never sees the provider wire protocol;
// it requests a JSON document and receives a string.
package llm

import (
	"context"
	"errors"
)

// Options controls one generation request. Extraction runs at
// temperature 0 so that identical input yields identical output.
type Options struct {
	Temperature  float32
	MaxTokens    int32
	ResponseMIME string
}

// DefaultExtractionOptions is the contract the intent extractor uses.
func DefaultExtractionOptions() Options {
	return Options{
		Temperature:  0,
		MaxTokens:    1500,
		ResponseMIME: "application/json",
	}
}

// Client generates a JSON document from a system prompt and a user
// prompt. Implementations must honor the context deadline.
type Client interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// ErrDisabled is returned by Disabled; callers fall back to their
// deterministic paths.
var ErrDisabled = errors.New("llm: no provider configured")

// Disabled is the no-provider client used when no API key is set.
type Disabled struct{}

func (Disabled) GenerateJSON(context.Context, string, string, Options) (string, error) {
	return "", ErrDisabled
}
