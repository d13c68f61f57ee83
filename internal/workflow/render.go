package workflow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// placeholderRe finds {{key}} references left after substitution.
var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

const shortQueryLen = 50

// baseVars returns the template variables every step can reference.
func baseVars(userQuery string, now time.Time) map[string]any {
	short := userQuery
	if len(short) > shortQueryLen {
		short = short[:shortQueryLen] + "..."
	}
	return map[string]any{
		"user_query":       userQuery,
		"user_query_short": short,
		"current_date":     now.Format("January 02, 2006"),
		"current_year":     fmt.Sprintf("%d", now.Year()),
	}
}

// stringify renders a state value into a template. Lists of strings
// join with blank lines (the shape synthesis prompts expect); other
// non-strings are JSON-serialized.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, "\n\n")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// renderTemplate substitutes {{key}} placeholders from vars. A
// placeholder with no corresponding value is an error: it means a step
// referenced state that no earlier step produced.
func renderTemplate(template string, vars map[string]any) (string, error) {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", stringify(value))
	}
	if m := placeholderRe.FindStringSubmatch(out); m != nil {
		return "", fmt.Errorf("template references unknown state %q", m[1])
	}
	return out, nil
}

// renderNarration is the lenient variant for spoken progress text:
// unknown placeholders stay as-is rather than failing the workflow.
func renderNarration(template string, vars map[string]any) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", stringify(value))
	}
	return out
}
