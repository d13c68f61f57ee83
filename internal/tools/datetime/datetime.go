// Package datetime implements the get_current_datetime tool. Voice
// queries ask for "the time in Tokyo" far more often than they name an
// IANA zone, so resolution accepts city names, US states, countries,
// and common abbreviations alongside IANA identifiers.
package datetime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tool reports the current date, time, day of week, and timezone.
type Tool struct {
	// now is injectable for tests.
	now func() time.Time
}

func NewTool() *Tool {
	return &Tool{now: time.Now}
}

func (t *Tool) Name() string {
	return "get_current_datetime"
}

func (t *Tool) Description() string {
	return "Get the current date, time, day of week, and timezone. " +
		"Optionally pass a timezone (IANA name like 'America/Los_Angeles' " +
		"or city name like 'Seattle') to get time in that region."
}

func (t *Tool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"timezone": map[string]interface{}{
				"type": "string",
				"description": "IANA timezone name (e.g. 'America/Los_Angeles', 'Europe/London', " +
					"'Asia/Tokyo') or city name (e.g. 'Seattle', 'London', 'Tokyo'). " +
					"Omit for the user's local time.",
			},
		},
		"required": []string{},
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schemaBytes
}

func (t *Tool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Timezone string `json:"timezone"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}

	now := t.now().Local()
	label := "local"
	if tzInput := strings.TrimSpace(params.Timezone); tzInput != "" {
		loc, ok := resolveTimezone(tzInput)
		if !ok {
			return "", fmt.Errorf("unknown timezone %q", tzInput)
		}
		now = t.now().In(loc)
		label = tzInput
	}

	zone, _ := now.Zone()
	return fmt.Sprintf(
		"Current date: %s\nCurrent time: %s\nDay of week: %s\nYear: %d\nTimezone: %s (%s)",
		now.Format("2006-01-02"),
		now.Format("03:04 PM"),
		now.Format("Monday"),
		now.Year(),
		zone,
		label,
	), nil
}

// resolveTimezone accepts IANA names, cities, US states, countries,
// and abbreviations. Comma suffixes are stripped so "Austin, Texas"
// resolves through "austin".
func resolveTimezone(input string) (*time.Location, bool) {
	clean := strings.TrimSpace(input)

	if loc, err := time.LoadLocation(clean); err == nil && clean != "" && clean != "Local" {
		return loc, true
	}

	key := strings.ToLower(clean)
	if name, ok := timezoneLookup[key]; ok {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, true
		}
	}

	if i := strings.IndexByte(key, ','); i >= 0 {
		city := strings.TrimSpace(key[:i])
		if name, ok := timezoneLookup[city]; ok {
			if loc, err := time.LoadLocation(name); err == nil {
				return loc, true
			}
		}
	}

	// Last resort: treat the input as a bare IANA city and probe the
	// major regions, e.g. "tokyo" -> "Asia/Tokyo".
	city := strings.ReplaceAll(titleCase(key), " ", "_")
	for _, region := range []string{"America", "Europe", "Asia", "Africa", "Australia", "Pacific"} {
		if loc, err := time.LoadLocation(region + "/" + city); err == nil {
			return loc, true
		}
	}
	return nil, false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
