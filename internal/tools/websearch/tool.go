package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool adapts the search client to the tool interface.
type Tool struct {
	client *Client
}

func NewTool(client *Client) *Tool {
	return &Tool{client: client}
}

func (t *Tool) Name() string {
	return "web_search"
}

func (t *Tool) Description() string {
	return "Search the web for current information. Use this for questions about recent events, prices, weather, news, or anything after your knowledge cutoff."
}

func (t *Tool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schemaBytes
}

func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if strings.TrimSpace(params.Query) == "" {
		return "", fmt.Errorf("query parameter is required")
	}

	resp, err := t.client.Search(ctx, params.Query)
	if err != nil {
		return "", err
	}
	return FormatResults(resp), nil
}

// FormatResults renders a response for LLM consumption:
//
//	Web search results for "weather in Austin":
//	1. Title (url)
//	   Snippet text...
//
// The three-space snippet indent is load-bearing: downstream prompt
// truncation identifies snippet lines by that prefix.
func FormatResults(resp *Response) string {
	if resp == nil || len(resp.Results) == 0 {
		return ""
	}
	lines := []string{fmt.Sprintf("Web search results for %q:", resp.Query)}
	for i, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, title, r.URL))
		if r.Snippet != "" {
			lines = append(lines, "   "+r.Snippet)
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
