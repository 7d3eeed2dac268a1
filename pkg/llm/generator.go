package llm

import (
	"context"
	"time"
)

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model name (e.g., "llama3.1", "llama-3.3-70b-versatile")
	Model string `json:"model"`

	// System prompt (some providers handle this separately from messages)
	System string `json:"system,omitempty"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Generation parameters (unified across providers)
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ChatResponse represents a provider-agnostic chat completion response.
type ChatResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	// Response timestamp
	CreatedAt time.Time `json:"created_at,omitzero"`

	// The assistant's response message
	Message Message `json:"message"`

	// Stop reason (e.g., "stop", "length")
	StopReason string `json:"stop_reason,omitempty"`

	// Token usage and timing metrics
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts and timing information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Timing (provider-specific, normalized to nanoseconds)
	TotalDurationNs int64 `json:"total_duration_ns,omitempty"`
}

// Generator produces chat completions.
type Generator interface {
	// Generate sends a single non-streaming completion request.
	Generate(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Model returns the default model the generator was configured with.
	Model() string

	// Close releases any resources held by the generator.
	Close() error
}
