// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeyValue parses a "key:value" or "key=value" string.
// If delimiters are provided, uses the first one found; otherwise defaults to ':'.
// Returns the key, value, and a boolean indicating success.
func KeyValue(s string, delimiters ...rune) (key, value string, ok bool) {
	if len(delimiters) == 0 {
		delimiters = []rune{':'}
	}
	for i, c := range s {
		for _, d := range delimiters {
			if c == d {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// Fields parses "key=value" arguments into a field map. A value that is
// valid JSON is decoded (authors='["AUTHORID_1"]', count=3); anything else
// is kept as a string.
func Fields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := KeyValue(arg, '=')
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid field %q: expected key=value", arg)
		}
		fields[strings.TrimSpace(key)] = Value(raw)
	}
	return fields, nil
}

// Value decodes raw as JSON when possible and returns it verbatim otherwise.
func Value(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// SplitTrim splits a string by separator and trims each part.
func SplitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
