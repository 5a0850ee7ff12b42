// Package conversation provides intent parsing and user notification implementations.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// MinConfidence is the acceptance threshold. Matches at or above it are
// acted on directly; anything below goes to the model for classification.
const MinConfidence = 0.6

// KeywordParser matches transcribed speech to intents using ordered regex
// rules with per-rule confidence, plus a few session-aware checks that run
// first. It is deliberately forgiving: speech transcripts are messy.
type KeywordParser struct {
	log   *logger.Logger
	rules []patternRule
}

type patternRule struct {
	regex      *regexp.Regexp
	intent     domain.IntentType
	confidence float64
	carry      bool // carry the full input as payload
}

// NewKeywordParser creates a rule-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.rules = []patternRule{
		// Step-addressed navigation first, so "repeat step four" and
		// "go to step 2" never fall through to the generic forms.
		{regexp.MustCompile(`(?i)\b(?:go|jump|move|skip)(?:\s+\w+)?\s+to\s+step\s+([a-z0-9]+)`), domain.IntentNavGoTo, 0.95, false},
		{regexp.MustCompile(`(?i)\brepeat\s+step\s+([a-z0-9]+)`), domain.IntentNavGoTo, 0.95, false},
		{regexp.MustCompile(`(?i)\bstep\s+([a-z0-9]+)\s+(?:again|please)`), domain.IntentNavGoTo, 0.9, false},

		// Timers before the generic stop/cancel words.
		{regexp.MustCompile(`(?i)\b(?:set|start)\s+(?:a\s+)?timer\b`), domain.IntentSetTimer, 0.95, true},
		{regexp.MustCompile(`(?i)\b(?:stop|dismiss|cancel|silence|kill)\s+(?:the\s+)?timer\b`), domain.IntentDismissTimer, 0.95, false},

		{regexp.MustCompile(`(?i)\b(?:say (?:that|it) again|come again|once more|what was that|didn'?t catch|repeat)\b`), domain.IntentNavRepeat, 0.9, false},
		{regexp.MustCompile(`(?i)\b(?:previous step|go back|one step back|step back|back up|before that)\b`), domain.IntentNavPrev, 0.9, false},
		{regexp.MustCompile(`(?i)\b(?:start over|from the (?:top|beginning)|back to the (?:start|beginning))\b`), domain.IntentNavStart, 0.9, false},
		{regexp.MustCompile(`(?i)\b(?:next step|what'?s next|move on|go on|i'?m done|all done|done|finished|next)\b`), domain.IntentNavNext, 0.85, false},

		{regexp.MustCompile(`(?i)\b(?:good ?bye|bye|shut ?down|power off|go to sleep|exit|quit)\b`), domain.IntentQuit, 0.95, false},
		{regexp.MustCompile(`(?i)\b(?:cancel|forget (?:it|this)|never ?mind|abandon|stop (?:this|the) recipe|a different recipe)\b`), domain.IntentCancel, 0.85, false},
		{regexp.MustCompile(`(?i)\b(?:help|what can (?:i|you) (?:say|do)|commands)\b`), domain.IntentHelp, 0.9, false},

		{regexp.MustCompile(`(?i)\b(?:resume|i'?m back|keep going|carry on|let'?s continue|unpause)\b`), domain.IntentResume, 0.9, false},
		{regexp.MustCompile(`(?i)\b(?:pause|hold on|one (?:sec|second|minute|moment)|give me a (?:sec|second|minute|moment)|wait|stop)\b`), domain.IntentStopPause, 0.9, false},

		{regexp.MustCompile(`(?i)\b(?:list (?:the )?recipes|what (?:can|could) (?:we|i) (?:cook|make)|other options|something else|more options|any other recipes)\b`), domain.IntentListRecipes, 0.85, false},
		{regexp.MustCompile(`(?i)\b(?:find|search(?: for)?|look(?:ing)? for|recipe for|i (?:want|would like) to (?:make|cook)|how (?:do i|to) (?:make|cook))\b`), domain.IntentSearchRecipe, 0.8, true},
		{regexp.MustCompile(`(?i)\b(?:let'?s (?:make|cook|do|start)|start (?:cooking|the recipe)|make (?:that|this) one|i'?ll (?:take|go with)|pick|choose|begin)\b`), domain.IntentStartRecipe, 0.85, true},
		{regexp.MustCompile(`(?i)^(?:the\s+)?(?:first|second|third|fourth|fifth)\s+(?:one|recipe)\b`), domain.IntentStartRecipe, 0.8, true},

		{regexp.MustCompile(`(?i)^(?:hi|hello|hey|good (?:morning|afternoon|evening)|how are you|thank you|thanks)\b`), domain.IntentSmallTalk, 0.8, false},
		{regexp.MustCompile(`(?i)^(?:yes|yeah|yep|sure|sounds good|perfect|correct|that works)\b`), domain.IntentConfirm, 0.8, false},
	}
	return p
}

// ackRe matches bare acknowledgments whose meaning depends on session
// state: silencing a timer that has fired, or moving on during the steps.
var ackRe = regexp.MustCompile(`(?i)^(?:ok(?:ay)?|got it|alright|sure|yes|yeah|done|thanks|thank you)[.!]?$`)

// resumeHintRe matches the ways people say "continue" after a pause.
var resumeHintRe = regexp.MustCompile(`(?i)\b(?:continue|keep going|go on|resume|i'?m back|ready)\b`)

// Parse converts transcribed input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string, session *domain.Session) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// Session-aware checks run before the rule list.
	if session != nil {
		if session.Paused() && resumeHintRe.MatchString(trimmed) {
			return &domain.Intent{Type: domain.IntentResume, Confidence: 0.95}, nil
		}
		if ackRe.MatchString(trimmed) {
			// A fired timer stays on the session until acknowledged.
			if session.Timer != nil && !session.Timer.Active {
				return &domain.Intent{Type: domain.IntentDismissTimer, Confidence: 0.9}, nil
			}
			if session.Section == domain.SectionSteps {
				return &domain.Intent{Type: domain.IntentNavNext, Confidence: 0.85}, nil
			}
		}
	}

	// A bare number picks a search result while browsing, or jumps to a
	// step once the steps are underway.
	if n, ok := ParseNumberWord(strings.TrimRight(trimmed, ".,!?")); ok {
		if session != nil && session.Section == domain.SectionSteps {
			return &domain.Intent{Type: domain.IntentNavGoTo, StepNum: n, Confidence: 0.85}, nil
		}
		return &domain.Intent{Type: domain.IntentStartRecipe, Payload: trimmed, Confidence: 0.7}, nil
	}

	for _, rule := range p.rules {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		intent := &domain.Intent{Type: rule.intent, Confidence: rule.confidence}
		if rule.intent == domain.IntentNavGoTo {
			n, ok := ParseNumberWord(m[1])
			if !ok {
				continue
			}
			intent.StepNum = n
		}
		if rule.carry {
			intent.Payload = trimmed
		}
		p.log.Debug("matched intent: %s (%.2f)", intent.Type, intent.Confidence)
		return intent, nil
	}

	// Detect questions: ends with "?", or starts with a question word.
	if isQuestion(trimmed) {
		return &domain.Intent{Type: domain.IntentQuestion, Payload: trimmed, Confidence: 0.7}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}

// questionPrefixes are common English question starters.
var questionPrefixes = []string{
	"how", "what", "why", "when", "where", "who", "which",
	"can", "could", "should", "would", "will", "do", "does", "is", "are",
	"am i", "tell me", "explain",
}

// isQuestion returns true if the input looks like a question.
func isQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix+" ") || lower == prefix {
			return true
		}
	}
	return false
}
