package extraction

import (
	"context"
	"time"
)

const (
	DefaultTextTimeout     = 30 * time.Second
	DefaultImageTimeout    = 60 * time.Second
	DefaultMaxOutputTokens = 1600

	minOutputTokens = 1500
	maxOutputTokens = 1700
)

// EndpointStyle selects the request and response shape of an OpenAI-compatible provider
type EndpointStyle string

const (
	// StyleChat posts to a chat completions endpoint and reads choices[0].message.content
	StyleChat EndpointStyle = "chat"
	// StyleResponses posts to a responses endpoint and reads output_text or output[].content[].text
	StyleResponses EndpointStyle = "responses"
)

// ModelClient sends one extraction request to a model provider and returns its raw text
type ModelClient interface {
	Complete(ctx context.Context, req ExtractionRequest) (string, error)
	// Close releases any resources held by the client
	Close() error
}

// Config is the provider configuration injected into a ModelClient at construction
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Style           EndpointStyle
	MaxOutputTokens int
	TextTimeout     time.Duration
	ImageTimeout    time.Duration
}

// withDefaults fills unset values and clamps the token budget
func (c Config) withDefaults() Config {
	if c.Style == "" {
		c.Style = StyleChat
	}
	if c.TextTimeout <= 0 {
		c.TextTimeout = DefaultTextTimeout
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = DefaultImageTimeout
	}
	switch {
	case c.MaxOutputTokens <= 0:
		c.MaxOutputTokens = DefaultMaxOutputTokens
	case c.MaxOutputTokens < minOutputTokens:
		c.MaxOutputTokens = minOutputTokens
	case c.MaxOutputTokens > maxOutputTokens:
		c.MaxOutputTokens = maxOutputTokens
	}
	return c
}

// timeoutFor returns the bound for a single call of the given input kind
func (c Config) timeoutFor(kind InputKind) time.Duration {
	if kind == InputImage {
		return c.ImageTimeout
	}
	return c.TextTimeout
}
