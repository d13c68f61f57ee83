// Package tools defines the tool interface and the registry that
// dispatches LLM tool calls to registered implementations.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a function the LLM can invoke. Schema returns a JSON Schema
// object describing the arguments; the registry validates calls
// against it before Execute runs.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Description explains the tool to the model.
	Description() string

	// Schema returns the JSON Schema for the tool's arguments.
	Schema() json.RawMessage

	// Execute runs the tool with validated arguments and returns the
	// text fed back to the model.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
