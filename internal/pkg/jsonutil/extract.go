// Package jsonutil recovers JSON payloads from free-form model output.
// Reasoners wrap their answer in code fences or prose often enough that a
// plain unmarshal is not reliable.
package jsonutil

import (
	"strings"
)

const codeFence = "```"

// ExtractJSON returns the first JSON value found in raw. Preference order:
// fenced block, then object, then array. A decision payload is an object,
// so objects win over arrays when both appear.
func ExtractJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := extractFromFence(raw); ok {
		return block, true
	}
	if obj, ok := balancedSlice(raw, '{', '}'); ok {
		return obj, true
	}
	return balancedSlice(raw, '[', ']')
}

// extractFromFence pulls the body of the first ``` block, dropping a
// language tag line such as "json".
func extractFromFence(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	if idx := strings.Index(block, "\n"); idx != -1 {
		first := strings.TrimSpace(block[:idx])
		if first != "" && !strings.ContainsAny(first, "[{") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return "", false
	}
	if obj, ok := balancedSlice(block, '{', '}'); ok {
		return obj, true
	}
	return block, true
}

// balancedSlice finds the first balanced open..close span, honoring JSON
// string literals and escapes.
func balancedSlice(raw string, open, closer byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return strings.TrimSpace(raw[start : i+1]), true
			}
		}
	}
	return "", false
}
