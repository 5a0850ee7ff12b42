package speech

import (
	"strings"
	"testing"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
)

func testPayload() *domain.StructuredResponse {
	return &domain.StructuredResponse{
		Greeting: "Let's make **Lemon Rice** together!",
		Ingredients: []domain.IngredientItem{
			{Text: "2 cups rice"},
			{Text: "1 lemon"},
		},
		Steps: []domain.StepItem{
			{StepNum: 1, Text: "Cook the rice."},
			{StepNum: 2, Text: "Squeeze the lemon over it."},
		},
		Closing: "Enjoy your meal!",
	}
}

// The spoken lines must carry exactly what the narration serializer
// renders for the same fields — the voice path and the text path may
// never drift apart.
func TestSectionLinesMatchNarration(t *testing.T) {
	resp := testPayload()

	got := SectionLines(resp, domain.SectionGreeting)
	if len(got) != 1 || got[0] != response.StripFormatting(resp.Greeting) {
		t.Fatalf("greeting lines = %q", got)
	}
	if strings.Contains(got[0], "*") {
		t.Fatalf("markdown survived into speech: %q", got[0])
	}

	got = SectionLines(resp, domain.SectionIngredients)
	if len(got) != 1 || got[0] != response.IngredientsNarration(resp.Ingredients) {
		t.Fatalf("ingredient lines = %q", got)
	}

	steps := SectionLines(resp, domain.SectionSteps)
	if len(steps) != len(resp.Steps)+1 {
		t.Fatalf("want %d step lines, got %d: %q", len(resp.Steps)+1, len(steps), steps)
	}
	if steps[0] != response.StepsLead {
		t.Fatalf("steps must open with the transition phrase, got %q", steps[0])
	}
	for i, st := range resp.Steps {
		if steps[i+1] != response.StepLine(st) {
			t.Fatalf("step %d line = %q, want %q", i, steps[i+1], response.StepLine(st))
		}
	}

	got = SectionLines(resp, domain.SectionClosing)
	if len(got) != 1 || got[0] != resp.Closing {
		t.Fatalf("closing lines = %q", got)
	}
}

// Every line handed to the TTS prefetcher must appear verbatim in the
// flattened narration, so prefetched audio is actually reused.
func TestNarrationLinesCoverSerializer(t *testing.T) {
	resp := testPayload()
	full := response.ToNarration(resp)

	lines := NarrationLines(resp)
	if len(lines) == 0 {
		t.Fatal("no narration lines for a full payload")
	}
	for _, line := range lines {
		if !strings.Contains(full, line) {
			t.Fatalf("line %q missing from narration %q", line, full)
		}
	}
}

func TestSectionLinesEmptySections(t *testing.T) {
	empty := &domain.StructuredResponse{}
	for _, sec := range []domain.Section{
		domain.SectionGreeting,
		domain.SectionIngredients,
		domain.SectionSteps,
		domain.SectionClosing,
	} {
		if got := SectionLines(empty, sec); got != nil {
			t.Fatalf("section %s of empty payload produced %q", sec, got)
		}
	}
	if got := SectionLines(nil, domain.SectionGreeting); got != nil {
		t.Fatalf("nil payload produced %q", got)
	}
}
