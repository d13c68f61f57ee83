package llm

import (
	"encoding/json"
	"regexp"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/pkg/models"
)

// Small local models sometimes emit a tool call as plain text instead
// of a structured request, e.g.:
//
//	web_search({"query": "S&P 500 today"})
//	'check_calendar {"date": "tomorrow"}'
//
// textToolCallRe captures the name and the JSON argument object.
var textToolCallRe = regexp.MustCompile(`(?s)(?:^|['"` + "`" + `\s])(\w+)\s*\(?\s*(\{[^}]*\})\s*\)?`)

// ParseTextToolCall scans assistant text for a plain-text tool
// invocation. resolve maps an emitted name (possibly an alias) to a
// registered canonical tool name; a call is only synthesized when the
// name resolves and the arguments parse as a JSON object, so
// hallucinated names never reach the dispatcher.
func ParseTextToolCall(text string, resolve func(string) (string, bool)) (models.ToolCall, bool) {
	for _, m := range textToolCallRe.FindAllStringSubmatch(text, -1) {
		name, args := m[1], m[2]
		canonical, ok := resolve(name)
		if !ok {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(args), &obj); err != nil {
			continue
		}
		return models.ToolCall{
			ID:    "call_" + uuid.NewString(),
			Name:  canonical,
			Input: json.RawMessage(args),
		}, true
	}
	return models.ToolCall{}, false
}
