package genai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Object is a JSON object returned by the generation service
type Object struct {
	raw string
}

const parseErrorMessage = "could not parse JSON"

var fence = regexp.MustCompile("```(?:json|JSON)?\\s*")

// NewObject wraps raw JSON text
func NewObject(raw string) Object {
	return Object{raw: raw}
}

// ParseJSON recovers a JSON object from generated text. Code fences are
// removed first; if the remainder is not an object the first balanced
// {...} span is tried; failing both, an {error, raw} object is returned
func ParseJSON(text string) Object {
	cleaned := strings.TrimSpace(fence.ReplaceAllString(text, ""))
	if isObject(cleaned) {
		return NewObject(cleaned)
	}
	if span, ok := firstObjectSpan(cleaned); ok && isObject(span) {
		return NewObject(span)
	}
	return errorObject(cleaned)
}

// IsError reports whether the object is the {error, raw} fallback
func (o Object) IsError() bool {
	r := gjson.Parse(o.raw)
	return r.Get("error").Exists() && r.Get("raw").Exists()
}

// Raw returns the underlying JSON text
func (o Object) Raw() string {
	if o.raw == "" {
		return "{}"
	}
	return o.raw
}

// Get returns the value at a gjson path
func (o Object) Get(path string) gjson.Result {
	return gjson.Get(o.raw, path)
}

// String returns the string at path, or def when absent or null
func (o Object) String(path, def string) string {
	r := o.Get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return def
	}
	return r.String()
}

// Bool returns the boolean at path, false when absent
func (o Object) Bool(path string) bool {
	return o.Get(path).Bool()
}

// Strings returns the array at path rendered as strings. Scalars become a
// single-element slice
func (o Object) Strings(path string) []string {
	r := o.Get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsArray() {
		return []string{r.String()}
	}
	var res []string
	for _, item := range r.Array() {
		res = append(res, item.String())
	}
	return res
}

// MarshalJSON embeds the raw object
func (o Object) MarshalJSON() ([]byte, error) {
	return []byte(o.Raw()), nil
}

func isObject(text string) bool {
	return gjson.Valid(text) && gjson.Parse(text).IsObject()
}

func firstObjectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func errorObject(text string) Object {
	raw, _ := json.Marshal(map[string]string{
		"error": parseErrorMessage,
		"raw":   text,
	})
	return NewObject(string(raw))
}
