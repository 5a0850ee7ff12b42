package response

import (
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// Repair makes one bounded cleanup pass over malformed model output: drop
// trailing commentary after the last closing brace, close an unterminated
// fence, and remove trailing commas before closing brackets or braces.
// It is deliberately heuristic; anything it cannot fix lands in the
// fallback instead of looping.
func Repair(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.LastIndex(s, "}"); idx != -1 {
		s = s[:idx+1]
	}

	// The cut above may have taken the closing fence with it.
	if strings.Count(s, "```")%2 == 1 {
		s += "\n```"
	}

	return trailingCommaRe.ReplaceAllString(s, "$1")
}
