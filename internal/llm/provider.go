package llm

import (
	"context"
	"encoding/json"

	"github.com/parleyhq/parley/pkg/models"
)

// ToolSchema describes one tool offered to the model.
type ToolSchema struct {
	Name        string
	Description string
	// Schema is a JSON Schema object for the tool's arguments.
	Schema json.RawMessage
}

// Request is one chat completion request in provider-neutral form.
// Providers convert Messages into their native wire shape; the history
// manager only ever produces the canonical split shape (assistant
// messages carry tool calls, tool messages carry results).
type Request struct {
	Model    string
	System   string
	Messages []models.Message
	// Tools offered to the model. Empty means text-only output.
	Tools     []ToolSchema
	MaxTokens int
	// DisableThinking asks backends that support it to skip emitting
	// reasoning tags. The strip pipeline still runs as a guard.
	DisableThinking bool
}

// Result is a normalized chat completion. Text has already been run
// through the reasoning-tag strip pipeline; RawChars and ThinkTokens
// describe what the model produced before stripping.
type Result struct {
	Text      string
	ToolCalls []models.ToolCall

	PromptTokens int
	OutputTokens int
	// RawChars is the character count of the unstripped output.
	RawChars int
	// ThinkTokens estimates the stripped reasoning volume (bytes/4).
	ThinkTokens int
	// ThinkTag is the tag name that was stripped, or "" if none.
	ThinkTag string
}

// Provider is a chat completion backend.
type Provider interface {
	// Name returns the provider identifier (anthropic, openai, ollama).
	Name() string

	// Generate performs one chat completion.
	Generate(ctx context.Context, req *Request) (*Result, error)

	// SupportsTools reports whether the backend accepts tool schemas.
	SupportsTools() bool
}

// finalize applies the strip pipeline to raw model text and fills the
// think accounting fields shared by all backends.
func finalize(res *Result, rawText string) {
	res.RawChars = len(rawText)
	stripped, removed, tag := StripThinking(rawText)
	res.Text = stripped
	res.ThinkTokens = removed / 4
	res.ThinkTag = tag
}
