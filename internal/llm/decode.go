package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/titanous/json5"
)

var fenceRe = regexp.MustCompile("```(?:json|JSON)?[ \t]*\r?\n?")

// Wrapper keys models tend to nest a requested array under.
var arrayKeys = []string{"attractions", "items", "data", "results"}

// StripCodeFences removes markdown code fences and surrounding whitespace.
func StripCodeFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// normalize returns strict JSON for content, accepting JSON5 as a fallback
// (trailing commas, comments, single quotes).
func normalize(content string) ([]byte, error) {
	body := StripCodeFences(content)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedJSON)
	}
	if json.Valid([]byte(body)) {
		return []byte(body), nil
	}
	var v any
	if err := json5.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return out, nil
}

// DecodeArray decodes a completion expected to hold a JSON array. An object
// wrapping a single array is unwrapped.
func DecodeArray[T any](content string) ([]T, error) {
	raw, err := normalize(content)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(raw)
	if doc.IsObject() {
		inner, ok := findArray(doc)
		if !ok {
			return nil, fmt.Errorf("%w: expected an array, got an object", ErrMalformedJSON)
		}
		raw = []byte(inner.Raw)
	} else if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected an array", ErrMalformedJSON)
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return out, nil
}

// DecodeObject decodes a completion expected to hold a single JSON object. A
// one-element array is accepted.
func DecodeObject[T any](content string) (T, error) {
	var out T
	raw, err := normalize(content)
	if err != nil {
		return out, err
	}
	doc := gjson.ParseBytes(raw)
	if doc.IsArray() {
		items := doc.Array()
		if len(items) != 1 || !items[0].IsObject() {
			return out, fmt.Errorf("%w: expected one object, got %d items", ErrMalformedJSON, len(items))
		}
		raw = []byte(items[0].Raw)
	} else if !doc.IsObject() {
		return out, fmt.Errorf("%w: expected an object", ErrMalformedJSON)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return out, nil
}

func findArray(obj gjson.Result) (gjson.Result, bool) {
	for _, k := range arrayKeys {
		if v := obj.Get(k); v.IsArray() {
			return v, true
		}
	}
	var found gjson.Result
	obj.ForEach(func(_, v gjson.Result) bool {
		if v.IsArray() {
			found = v
			return false
		}
		return true
	})
	return found, found.Exists()
}
