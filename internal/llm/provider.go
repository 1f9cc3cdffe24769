package llm

import (
	"context"
	"encoding/json"
)

// Provider is the abstraction over the generative-text service.
type Provider interface {
	// Generate sends a conversation and returns the model output. When
	// req.Schema is set the provider asks for JSON conforming to it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is sent as a system instruction when set.
	System string

	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema and keys the compiled-schema cache.
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	// Text is the raw text of the first candidate.
	Text string

	// Content is the validated JSON when a Schema was requested.
	Content json.RawMessage

	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
