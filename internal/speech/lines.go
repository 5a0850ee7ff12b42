// Package speech — lines.go centralises every canned spoken string.
// Edit this file to change the assistant's personality. Keep lines short
// and direct; the TTS engine handles inflection.
package speech

import (
	"math/rand"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hello. What are we cooking today?"
}

func LineShutdown() string {
	return "Shutting down. Happy cooking."
}

func LineVoiceReady() string {
	return "Say hey cook whenever you need me."
}

// ── Section narration ────────────────────────────────────────────

// SectionLines renders the spoken lines for one narration section of a
// payload. Greeting and closing are single lines; ingredients collapse
// into one read-out; steps yield the transition phrase followed by one
// line per step. Sections with nothing to say return nil.
func SectionLines(resp *domain.StructuredResponse, sec domain.Section) []string {
	if resp == nil {
		return nil
	}

	switch sec {
	case domain.SectionGreeting:
		if g := response.StripFormatting(resp.Greeting); g != "" {
			return []string{g}
		}
	case domain.SectionIngredients:
		if line := response.IngredientsNarration(resp.Ingredients); line != "" {
			return []string{line}
		}
	case domain.SectionSteps:
		if len(resp.Steps) == 0 {
			return nil
		}
		lines := make([]string, 0, len(resp.Steps)+1)
		lines = append(lines, response.StepsLead)
		for _, st := range resp.Steps {
			if line := response.StepLine(st); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 1 {
			return nil // every step rendered empty
		}
		return lines
	case domain.SectionClosing:
		if c := response.StripFormatting(resp.Closing); c != "" {
			return []string{c}
		}
	}
	return nil
}

// NarrationLines renders every section of a payload in narration order.
// Useful for prefetching the whole recipe's audio as soon as the payload
// is built, so each "next" plays instantly.
func NarrationLines(resp *domain.StructuredResponse) []string {
	var out []string
	for _, sec := range []domain.Section{
		domain.SectionGreeting,
		domain.SectionIngredients,
		domain.SectionSteps,
		domain.SectionClosing,
	} {
		out = append(out, SectionLines(resp, sec)...)
	}
	return out
}

// ── Thinking fillers ─────────────────────────────────────────────
// Spoken while a slow turn (usually a model call) is in flight, so the
// user knows they were heard. Randomized to avoid repetition.

var thinkingLines = []string{
	"Let me think about that.",
	"Good question. Give me a second.",
	"Hmm, one moment.",
	"Let me look into that for you.",
	"Hang on, thinking.",
	"Bear with me a sec.",
	"One second, looking that up.",
	"Let me work that out.",
	"Give me a beat.",
	"Okay, let me think.",
}

// LineThinking returns a random filler for a turn that is taking a while.
func LineThinking() string {
	return thinkingLines[rand.Intn(len(thinkingLines))]
}

// ThinkingFillers returns every thinking filler so they can be prefetched
// into the TTS cache at startup.
func ThinkingFillers() []string {
	out := make([]string, len(thinkingLines))
	copy(out, thinkingLines)
	return out
}

// ── Listening acknowledgment ─────────────────────────────────────
// Spoken when the wake word is detected, so the user knows they've
// been heard and should start talking.

var listeningLines = []string{
	"I'm listening.",
	"Listening.",
	"Yes?",
	"What do you need?",
	"I'm here.",
	"Go ahead.",
}

// LineListening returns a random acknowledgment for when the wake
// word is detected.
func LineListening() string {
	return listeningLines[rand.Intn(len(listeningLines))]
}

// ListeningFillers returns all listening acknowledgment strings so
// they can be prefetched into the TTS cache at startup.
func ListeningFillers() []string {
	out := make([]string, len(listeningLines))
	copy(out, listeningLines)
	return out
}
