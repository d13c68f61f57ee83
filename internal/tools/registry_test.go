package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/parleyhq/parley/pkg/models"
)

type echoTool struct {
	name string
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echoes the query back" }

func (t *echoTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)
}

func (t *echoTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", err
	}
	return "echo: " + in.Query, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.Register(&echoTool{name: "web_search"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

func TestDispatch(t *testing.T) {
	r := newTestRegistry(t)

	got, err := r.Dispatch(context.Background(), models.ToolCall{
		ID:    "call_1",
		Name:  "web_search",
		Input: json.RawMessage(`{"query": "hello"}`),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "echo: hello" {
		t.Errorf("result = %q", got)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), models.ToolCall{
		Name:  "teleport",
		Input: json.RawMessage(`{}`),
	})
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

func TestDispatchInvalidArguments(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name  string
		input json.RawMessage
	}{
		{"missing required field", json.RawMessage(`{}`)},
		{"wrong type", json.RawMessage(`{"query": 7}`)},
		{"malformed json", json.RawMessage(`{"query":`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Dispatch(context.Background(), models.ToolCall{
				Name:  "web_search",
				Input: tt.input,
			})
			if !errors.Is(err, ErrInvalidArguments) {
				t.Errorf("err = %v, want ErrInvalidArguments", err)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"web_search", "web_search", true},
		{"search", "web_search", true},
		{"gc_search", "web_search", true},
		{"check_calendar", "", false}, // alias target not registered
		{"nonexistent", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Canonical(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSchemasSorted(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(&echoTool{name: "another_tool"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	schemas := r.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("len = %d, want 2", len(schemas))
	}
	if schemas[0].Name != "another_tool" || schemas[1].Name != "web_search" {
		t.Errorf("order = %q, %q", schemas[0].Name, schemas[1].Name)
	}
}
