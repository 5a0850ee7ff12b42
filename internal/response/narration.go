package response

import (
	"fmt"
	"strings"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
)

// Transition phrases between narration sections. Short and literal so the
// TTS cadence stays natural. StepsLead is exported because the engine voices
// it when the user moves from the ingredient list into the steps.
const (
	ingredientsLead = "For ingredients, you'll need:"
	StepsLead       = "Now for the cooking steps."
)

// markdownStripper removes emphasis and fence characters that read as
// garbage when spoken aloud.
var markdownStripper = strings.NewReplacer("*", "", "_", "", "#", "", "`", "")

// ToNarration flattens a payload into the text handed to speech synthesis:
// greeting, ingredient list, numbered steps, closing, with fixed transition
// phrases in between. Markdown control characters are stripped from every
// field, and sections with nothing to say contribute no transition.
func ToNarration(resp *domain.StructuredResponse) string {
	if resp == nil {
		return ""
	}

	var parts []string
	if g := cleanField(resp.Greeting); g != "" {
		parts = append(parts, g)
	}

	if sec := IngredientsNarration(resp.Ingredients); sec != "" {
		parts = append(parts, sec)
	}

	if lines := stepLines(resp.Steps); len(lines) > 0 {
		parts = append(parts, StepsLead, strings.Join(lines, " "))
	}

	if c := cleanField(resp.Closing); c != "" {
		parts = append(parts, c)
	}

	return strings.Join(parts, " ")
}

// StripFormatting is the degraded path used when structured narration is
// explicitly disabled: it removes markdown noise from raw text without
// parsing any structure out of it.
func StripFormatting(raw string) string {
	return cleanField(raw)
}

// IngredientLine renders one ingredient for narration.
func IngredientLine(item domain.IngredientItem) string {
	return cleanField(item.Text)
}

// IngredientsNarration renders the whole spoken ingredient section,
// or "" when there is nothing to read.
func IngredientsNarration(items []domain.IngredientItem) string {
	lines := ingredientLines(items)
	if len(lines) == 0 {
		return ""
	}
	return ingredientsLead + " " + JoinSpoken(lines) + "."
}

// StepLine renders one step for narration, with its spoken label.
func StepLine(item domain.StepItem) string {
	text := cleanField(item.Text)
	if text == "" {
		return ""
	}
	return fmt.Sprintf("Step %d: %s", item.StepNum, text)
}

// JoinSpoken joins items the way they are read out loud:
// "a", "a and b", "a, b, and c".
func JoinSpoken(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// SpeakDuration renders a duration the way it is read aloud:
// "45 seconds", "5 minutes", "1 hour and 20 minutes".
func SpeakDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	var parts []string
	if h > 0 {
		parts = append(parts, pluralUnit(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, pluralUnit(m, "minute"))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, pluralUnit(s, "second"))
	}
	return JoinSpoken(parts)
}

func pluralUnit(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func ingredientLines(items []domain.IngredientItem) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if line := IngredientLine(item); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func stepLines(items []domain.StepItem) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if line := StepLine(item); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// cleanField strips markdown noise and collapses runs of whitespace.
func cleanField(s string) string {
	return strings.Join(strings.Fields(markdownStripper.Replace(s)), " ")
}
