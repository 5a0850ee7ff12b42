// Package response turns raw language-model output into the schema-valid
// narration payload the rest of the assistant consumes. The entry point is
// Pipeline.Normalize, which always succeeds: extraction, validation, and a
// single repair pass are tried in order, and a fallback built straight from
// the retrieval record covers everything else.
package response

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoCandidate is returned by Extract when the raw text contains nothing
// that even superficially looks like a JSON object.
var ErrNoCandidate = errors.New("response: no structured candidate found")

// Fenced blocks, tagged and bare. (?s) so the payload may span lines.
var (
	taggedFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	bareFenceRe   = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// Extract isolates the JSON object candidate inside raw model output.
// Strategies, first match wins: the whole input, a ```json fence, any
// fence, then a balanced-brace scan. Nothing is deserialized here; the
// returned string is only a candidate for Validate.
func Extract(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrNoCandidate
	}

	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	for _, re := range []*regexp.Regexp{taggedFenceRe, bareFenceRe} {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			if inner := strings.TrimSpace(m[1]); strings.Contains(inner, "{") {
				return inner, nil
			}
		}
	}

	if obj, ok := balancedObject(trimmed); ok {
		return obj, nil
	}
	return "", ErrNoCandidate
}

// balancedObject scans for the first top-level balanced {...} substring.
// String quoting and escapes are honored once inside the object, so braces
// inside values don't skew the depth count.
func balancedObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if start < 0 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
