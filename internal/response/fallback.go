package response

import (
	"fmt"
	"strings"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
)

// Narration templates used when the model's output can't be trusted.
const (
	fallbackGreeting = "Let's make %s together."
	fallbackClosing  = "You've got this. Enjoy your meal!"
	apologyGreeting  = "Sorry, I couldn't find a matching recipe for that."
	apologyClosing   = "Feel free to ask me about another dish."
)

// BuildFallback synthesizes a narration payload straight from a retrieval
// record, bypassing the language model entirely. It cannot fail: a nil or
// empty record yields the minimal apology payload, which is the one
// legitimate "nothing to say" outcome rather than an error.
func BuildFallback(rec *domain.Recipe) *domain.StructuredResponse {
	if rec.Empty() {
		return &domain.StructuredResponse{
			Greeting:    apologyGreeting,
			Ingredients: []domain.IngredientItem{},
			Steps:       []domain.StepItem{},
			Closing:     apologyClosing,
		}
	}

	lines := rec.IngredientLines()
	ingredients := make([]domain.IngredientItem, 0, len(lines))
	for _, line := range lines {
		ingredients = append(ingredients, domain.IngredientItem{Text: line})
	}

	steps := make([]domain.StepItem, 0, len(rec.Instructions))
	for _, text := range rec.Instructions {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		steps = append(steps, domain.StepItem{StepNum: len(steps) + 1, Text: text})
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = "this recipe"
	}

	return &domain.StructuredResponse{
		Greeting:    fmt.Sprintf(fallbackGreeting, title),
		Ingredients: ingredients,
		Steps:       steps,
		Closing:     fallbackClosing,
	}
}
