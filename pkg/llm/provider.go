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

var (
	// ErrAuthentication means the provider rejected the credentials. Never retried.
	ErrAuthentication = errors.New("llm: authentication failed")
	// ErrCapacityExceeded means the model is rate limited; another model may succeed.
	ErrCapacityExceeded = errors.New("llm: capacity exceeded")
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	APIKey      string // Override the configured key for one call
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

func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

// Apply folds opts over defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// ChatResult is a completed model response.
type ChatResult struct {
	Content    string
	TokensUsed int
	Model      string
}

// TokenStream yields response fragments until Next returns false.
// Close releases the upstream connection and is safe to call more than once.
type TokenStream interface {
	Next() bool
	Token() string
	Err() error
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (*ChatResult, error)

	// Stream opens a streaming completion. Errors that occur before the first
	// token (auth, capacity) are returned here, not from the stream.
	Stream(ctx context.Context, history []Message, options ...Option) (TokenStream, error)
}

// VisionAnalyzer describes an image in the context of a question.
type VisionAnalyzer interface {
	DescribeImage(ctx context.Context, imageBase64, question string, options ...Option) (string, error)
}

// KeyVerifier checks that a credential is accepted by the provider.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, apiKey string) error
}

// UsageReporter is implemented by streams that learn their token usage
// once the response is complete.
type UsageReporter interface {
	TokensUsed() int
}
