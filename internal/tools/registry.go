package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/pkg/models"
)

// Dispatch error kinds. Callers absorb these into error tool results
// rather than aborting the conversation.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Parameter limits to prevent resource exhaustion.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20
)

// defaultAliases maps names small models commonly emit onto registered
// tool names.
var defaultAliases = map[string]string{
	"gc_search":      "web_search",
	"search":         "web_search",
	"web_search":     "web_search",
	"check_calendar": "check_calendar",
	"calendar":       "check_calendar",
	"get_calendar":   "check_calendar",
	"search_notes":   "search_notes",
	"notes":          "search_notes",
	"get_notes":      "search_notes",
}

type registeredTool struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry is a thread-safe name→Tool map with JSON-Schema argument
// validation. It is populated at startup and read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool, compiling its argument schema. A tool with the
// same name is replaced.
func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if name == "" || len(name) > MaxToolNameLength {
		return fmt.Errorf("invalid tool name %q", name)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", bytes.NewReader(tool.Schema())); err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", name, err)
	}
	schema, err := compiler.Compile(name + ".json")
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = registeredTool{tool: tool, schema: schema}
	return nil
}

// Get returns a tool by canonical name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.tool, true
}

// Has reports whether a canonical tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Canonical resolves an emitted tool name, possibly an alias, to a
// registered tool name. Used by the plain-text tool-call fallback so
// hallucinated names never dispatch.
func (r *Registry) Canonical(name string) (string, bool) {
	if canonical, ok := defaultAliases[name]; ok {
		if r.Has(canonical) {
			return canonical, true
		}
		return "", false
	}
	if r.Has(name) {
		return name, true
	}
	return "", false
}

// Schemas returns tool descriptors for LLM requests, sorted by name
// for deterministic prompts.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSchema, 0, len(r.tools))
	for _, rt := range r.tools {
		out = append(out, llm.ToolSchema{
			Name:        rt.tool.Name(),
			Description: rt.tool.Description(),
			Schema:      rt.tool.Schema(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schema returns the descriptor for a single tool, for workflow steps
// that bind exactly one tool.
func (r *Registry) Schema(name string) (llm.ToolSchema, bool) {
	tool, ok := r.Get(name)
	if !ok {
		return llm.ToolSchema{}, false
	}
	return llm.ToolSchema{
		Name:        tool.Name(),
		Description: tool.Description(),
		Schema:      tool.Schema(),
	}, true
}

// Dispatch validates and executes one tool call. The three failure
// kinds are distinguishable with errors.Is: ErrUnknownTool,
// ErrInvalidArguments, and wrapped execution errors.
func (r *Registry) Dispatch(ctx context.Context, call models.ToolCall) (string, error) {
	if len(call.Name) > MaxToolNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrUnknownTool, MaxToolNameLength)
	}
	if len(call.Input) > MaxToolParamsSize {
		return "", fmt.Errorf("%w: parameters exceed %d bytes", ErrInvalidArguments, MaxToolParamsSize)
	}

	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	args := call.Input
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	var parsed any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := rt.schema.Validate(parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	result, err := rt.tool.Execute(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Name, err)
	}
	return result, nil
}
