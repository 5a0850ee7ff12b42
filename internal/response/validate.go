package response

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
)

// ValidationError reports every schema violation found in a candidate, not
// just the first, so a single repair pass can address all of them at once.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "response: invalid payload: " + strings.Join(e.Issues, "; ")
}

// Validate deserializes a candidate and checks it against the narration
// schema, accumulating every violation. On success the returned payload is
// coerced and normalized: step numbers are integers, text fields are
// trimmed, and a missing spoken flag is false.
func Validate(candidate string) (*domain.StructuredResponse, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, &ValidationError{Issues: []string{fmt.Sprintf("not a JSON object: %v", err)}}
	}

	v := &validator{}
	greeting := v.text(payload, "greeting")
	ingredients := v.ingredients(payload)
	steps := v.steps(payload)
	closing := v.text(payload, "closing")

	if len(v.issues) > 0 {
		return nil, &ValidationError{Issues: v.issues}
	}

	return &domain.StructuredResponse{
		Greeting:    greeting,
		Ingredients: ingredients,
		Steps:       steps,
		Closing:     closing,
	}, nil
}

type validator struct {
	issues []string
}

func (v *validator) addf(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

// text checks a required non-empty string field.
func (v *validator) text(payload map[string]any, key string) string {
	raw, ok := payload[key]
	if !ok {
		v.addf("%s: missing", key)
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.addf("%s: not a string", key)
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		v.addf("%s: empty", key)
	}
	return s
}

func (v *validator) ingredients(payload map[string]any) []domain.IngredientItem {
	items := []domain.IngredientItem{}
	raw, ok := payload["ingredients"]
	if !ok {
		v.addf("ingredients: missing")
		return items
	}
	list, ok := raw.([]any)
	if !ok {
		v.addf("ingredients: not a list")
		return items
	}
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			v.addf("ingredients[%d]: not an object", i)
			continue
		}
		text, ok := itemText(obj)
		if !ok {
			v.addf("ingredients[%d].text: missing or empty", i)
			continue
		}
		items = append(items, domain.IngredientItem{Text: text, Spoken: itemSpoken(obj)})
	}
	return items
}

func (v *validator) steps(payload map[string]any) []domain.StepItem {
	items := []domain.StepItem{}
	raw, ok := payload["steps"]
	if !ok {
		v.addf("steps: missing")
		return items
	}
	list, ok := raw.([]any)
	if !ok {
		v.addf("steps: not a list")
		return items
	}
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			v.addf("steps[%d]: not an object", i)
			continue
		}
		text, textOK := itemText(obj)
		if !textOK {
			v.addf("steps[%d].text: missing or empty", i)
		}
		num, numOK := stepNum(obj)
		switch {
		case !numOK:
			v.addf("steps[%d].step_num: missing or not an integer", i)
		case num < 1:
			v.addf("steps[%d].step_num: must be positive, got %d", i, num)
			numOK = false
		}
		if textOK && numOK {
			items = append(items, domain.StepItem{StepNum: num, Text: text, Spoken: itemSpoken(obj)})
		}
	}
	return items
}

// itemText pulls a trimmed, non-empty text field out of a list element.
func itemText(obj map[string]any) (string, bool) {
	s, ok := obj["text"].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// itemSpoken reads the spoken flag; anything but an explicit true is false.
// The model is never asked to set it, so leniency beats another issue.
func itemSpoken(obj map[string]any) bool {
	b, ok := obj["spoken"].(bool)
	return ok && b
}

// stepNum accepts integers and integer-valued numerics (models emit 3,
// 3.0, and "step_num": 3 interchangeably).
func stepNum(obj map[string]any) (int, bool) {
	n, ok := obj["step_num"].(float64)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}
