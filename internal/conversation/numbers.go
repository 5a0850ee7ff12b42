package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numberWords covers how people say step numbers out loud. Twenty is
// plenty; no recipe in the corpus has more steps than that.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// ParseNumberWord converts a spoken or written number ("4", "four",
// "fourth") into an int. Returns false for anything else.
func ParseNumberWord(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	return 0, false
}

// durationPartRe matches one amount+unit pair in a spoken timer request.
var durationPartRe = regexp.MustCompile(`(?i)\b([a-z0-9]+)\s+(hours?|hrs?|minutes?|mins?|seconds?|secs?)\b`)

// ParseDurationPhrase pulls a duration out of a request like "set a timer
// for ten minutes" or "one hour and 20 minutes", summing every amount+unit
// pair it finds. Returns false when no duration is present.
func ParseDurationPhrase(s string) (time.Duration, bool) {
	var total time.Duration
	for _, m := range durationPartRe.FindAllStringSubmatch(s, -1) {
		amount := strings.ToLower(m[1])
		n, ok := ParseNumberWord(amount)
		if !ok {
			if amount != "a" && amount != "an" {
				continue
			}
			n = 1
		}
		switch m[2][0] {
		case 'h', 'H':
			total += time.Duration(n) * time.Hour
		case 'm', 'M':
			total += time.Duration(n) * time.Minute
		case 's', 'S':
			total += time.Duration(n) * time.Second
		}
	}
	return total, total > 0
}
