package ai

import (
	"context"
	"errors"
)

// Provider names, also the fixed fallback priority order.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// FallbackOrder is tried when the configured active provider is disabled or
// unconfigured.
var FallbackOrder = []string{ProviderOpenAI, ProviderGemini, ProviderOpenRouter}

// ErrNoProvider means no AI provider is usable; the chat endpoint answers 503.
var ErrNoProvider = errors.New("no usable AI provider configured")

// Message is one chat-completions message in OpenAI shape. Roles are
// "system", "user", "assistant" and "tool".
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tools
	ToolCallID string     // tool result messages
	Name       string     // tool name on tool result messages
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// ToolDef declares one callable tool with a JSON-schema argument object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Result is a model turn: either natural-language content, tool calls, or both.
type Result struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider abstracts a function-calling-capable chat model.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Result, error)
}
