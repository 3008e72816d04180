// Package jsonx decodes JSON out of language-model output, which may arrive
// bare, wrapped in markdown fences, or embedded in surrounding prose.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no JSON payload found in model output")

// Sanitize extracts the JSON payload from raw model output. It strips
// markdown code fences first; failing that, it scans for the outermost
// object or array delimiters. Returns "" when nothing JSON-like is present.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}

	// Outermost brace pair: first { to last }, or first [ to last ].
	if start := strings.IndexByte(s, '{'); start >= 0 {
		if end := strings.LastIndexByte(s, '}'); end > start {
			return s[start : end+1]
		}
	}
	if start := strings.IndexByte(s, '['); start >= 0 {
		if end := strings.LastIndexByte(s, ']'); end > start {
			return s[start : end+1]
		}
	}
	return ""
}

// Decode sanitizes raw and unmarshals the result into v. Callers treat any
// returned error the same way as an upstream completion error.
func Decode(raw string, v any) error {
	s := Sanitize(raw)
	if s == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode model output: %w (raw: %s)", err, truncate(raw, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
