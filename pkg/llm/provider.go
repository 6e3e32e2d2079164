package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrProviderOverloaded marks transient unavailability (rate limited or
// model overloaded). Callers fall back instead of failing the request.
var ErrProviderOverloaded = errors.New("llm provider overloaded")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // RoleSystem, RoleUser or RoleAssistant
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions resolves options on top of the defaults every provider shares.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Name identifies the backend in logs and health output.
	Name() string
}

// IsOverloadStatus reports whether an HTTP status means "try again later".
func IsOverloadStatus(status int) bool {
	return status == 429 || status == 503 || status == 529
}
