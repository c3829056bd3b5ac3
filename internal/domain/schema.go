package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
)

// ValidationOK is the message returned for a structurally valid document.
const ValidationOK = "OK"

// MinExplanationLength is the minimum trimmed length, in characters, of
// detailed_explanation.
const MinExplanationLength = 200

// ATS score bounds (inclusive).
const (
	MinATSScore = 0
	MaxATSScore = 100
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindList
	kindObject
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindList:
		return "list"
	case kindObject:
		return "object"
	}
	return "unknown"
}

// requiredFields is ordered: the first failing field is reported.
var requiredFields = []struct {
	name string
	kind fieldKind
}{
	{"decision", kindString},
	{"ats_score", kindNumber},
	{"decision_summary", kindString},
	{"detailed_explanation", kindString},
	{"strengths", kindList},
	{"gaps", kindList},
	{"keyword_analysis", kindObject},
	{"improvement_suggestions", kindList},
}

// KeywordAnalysisFields are the sequences required inside keyword_analysis.
var KeywordAnalysisFields = []string{
	"important_keywords_from_jd",
	"clearly_present_in_resume",
	"weak_or_implicit_in_resume",
	"missing_from_resume",
}

// ValidateDocument checks the structure of a parsed evaluation document.
// It never judges content and never mutates v. Checks short-circuit in order:
// object shape, required fields and types, decision literal, ats_score range,
// explanation depth, strengths/gaps elements, keyword_analysis sub-fields,
// improvement_suggestions elements.
func ValidateDocument(v any) (bool, string) {
	doc, ok := asObject(v)
	if !ok {
		return false, "AI output must be a JSON object"
	}

	for _, f := range requiredFields {
		val, present := doc[f.name]
		if !present {
			return false, fmt.Sprintf("Missing required field: '%s'", f.name)
		}
		if !hasKind(val, f.kind) {
			return false, fmt.Sprintf("Field '%s' must be of type %s", f.name, f.kind)
		}
	}

	decision, _ := doc["decision"].(string)
	if !isDecision(decision) {
		return false, "Field 'decision' must be one of: " + strings.Join(Decisions, ", ")
	}

	score, _ := asNumber(doc["ats_score"])
	if !(score >= MinATSScore && score <= MaxATSScore) {
		return false, fmt.Sprintf("Field 'ats_score' must be between %d and %d", MinATSScore, MaxATSScore)
	}

	explanation, _ := doc["detailed_explanation"].(string)
	if utf8.RuneCountInString(strings.TrimSpace(explanation)) < MinExplanationLength {
		return false, fmt.Sprintf("Field 'detailed_explanation' is too short (minimum %d characters). "+
			"It must clearly explain the decision using resume and JD content.", MinExplanationLength)
	}

	for _, name := range []string{"strengths", "gaps"} {
		if !isListOfObjects(doc[name]) {
			return false, fmt.Sprintf("Field '%s' must be a list of objects", name)
		}
	}

	ka, _ := asObject(doc["keyword_analysis"])
	for _, name := range KeywordAnalysisFields {
		val, present := ka[name]
		if !present {
			return false, fmt.Sprintf("Missing keyword_analysis field: '%s'", name)
		}
		if _, ok := asList(val); !ok {
			return false, fmt.Sprintf("keyword_analysis.%s must be a list", name)
		}
	}

	if !isListOfObjects(doc["improvement_suggestions"]) {
		return false, "Field 'improvement_suggestions' must be a list of objects"
	}

	return true, ValidationOK
}

func isDecision(s string) bool {
	for _, d := range Decisions {
		if s == d {
			return true
		}
	}
	return false
}

func hasKind(v any, k fieldKind) bool {
	switch k {
	case kindString:
		_, ok := v.(string)
		return ok
	case kindNumber:
		_, ok := asNumber(v)
		return ok
	case kindList:
		_, ok := asList(v)
		return ok
	case kindObject:
		_, ok := asObject(v)
		return ok
	}
	return false
}

func isListOfObjects(v any) bool {
	items, ok := asList(v)
	if !ok {
		return false
	}
	for _, item := range items {
		if _, ok := asObject(item); !ok {
			return false
		}
	}
	return true
}

// asObject accepts decoded JSON objects as well as Go-built maps keyed by string.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asList accepts []any from decoding and typed Go slices from callers.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asNumber reports integer and float values; booleans are not numbers.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
