// Package ai provides response cleaning utilities for model output.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// ResponseCleaner turns raw model text into a JSON object with normalized keys.
// It implements domain.ResponseParser.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

var _ domain.ResponseParser = (*ResponseCleaner)(nil)

// ParseJSONObject strips code fences, isolates the outermost braces and
// decodes the result. Every object key at any depth is trimmed of surrounding
// whitespace and double quotes. The top-level value must be an object.
func (rc *ResponseCleaner) ParseJSONObject(raw string) (map[string]any, error) {
	cleaned := rc.extractJSON(rc.removeMarkdownBlocks(raw))

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, &JSONParseError{Original: raw, Cleaned: cleaned, Err: err}
	}
	obj, ok := normalizeKeys(decoded).(map[string]any)
	if !ok {
		return nil, &JSONParseError{
			Original: raw,
			Cleaned:  cleaned,
			Err:      fmt.Errorf("top-level JSON value is %s, not an object", jsonKind(decoded)),
		}
	}
	return obj, nil
}

// removeMarkdownBlocks drops every ```json and ``` marker, wherever it occurs.
func (rc *ResponseCleaner) removeMarkdownBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

// extractJSON keeps the span from the first '{' to the last '}'. Text without
// a usable pair is returned unchanged so the decoder reports the failure.
func (rc *ResponseCleaner) extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}

func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[normalizeKey(k)] = normalizeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}

func normalizeKey(k string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(k), `"`))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}

// JSONParseError reports model output that could not be decoded as a JSON object.
type JSONParseError struct {
	Original string
	Cleaned  string
	Err      error
}

// contentSnippetLimit bounds how much offending content an error message quotes.
const contentSnippetLimit = 300

func (e *JSONParseError) Error() string {
	content := e.Cleaned
	if r := []rune(content); len(r) > contentSnippetLimit {
		content = string(r[:contentSnippetLimit]) + "..."
	}
	return fmt.Sprintf("%v: %v; content: %q", domain.ErrParse, e.Err, content)
}

// Unwrap exposes both the parse sentinel and the decoder error.
func (e *JSONParseError) Unwrap() []error {
	return []error{domain.ErrParse, e.Err}
}
