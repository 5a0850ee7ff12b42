package response

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateAccepts(t *testing.T) {
	candidate := `{
		"greeting": "  Welcome!  ",
		"ingredients": [
			{"text": "2 cups flour"},
			{"text": " 1 egg ", "spoken": true}
		],
		"steps": [
			{"step_num": 1, "text": "Mix."},
			{"step_num": 2.0, "text": "Bake.", "spoken": false}
		],
		"closing": "Enjoy!"
	}`

	resp, err := Validate(candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Greeting != "Welcome!" {
		t.Fatalf("greeting not trimmed: %q", resp.Greeting)
	}
	if len(resp.Ingredients) != 2 || len(resp.Steps) != 2 {
		t.Fatalf("wrong item counts: %d ingredients, %d steps", len(resp.Ingredients), len(resp.Steps))
	}
	if resp.Ingredients[0].Spoken {
		t.Fatal("missing spoken flag should default to false")
	}
	if resp.Ingredients[1].Text != "1 egg" || !resp.Ingredients[1].Spoken {
		t.Fatalf("second ingredient wrong: %+v", resp.Ingredients[1])
	}
	if resp.Steps[1].StepNum != 2 {
		t.Fatalf("integer-valued float not coerced: %+v", resp.Steps[1])
	}
}

func TestValidateIssues(t *testing.T) {
	tests := []struct {
		name       string
		candidate  string
		wantIssues int
		wantSubstr string
	}{
		{
			"not json at all",
			"hello there",
			1,
			"not a JSON object",
		},
		{
			"empty object misses all four keys",
			"{}",
			4,
			"greeting: missing",
		},
		{
			"blank greeting",
			`{"greeting":" ","ingredients":[],"steps":[],"closing":"Bye"}`,
			1,
			"greeting",
		},
		{
			"ingredient without text",
			`{"greeting":"Hi","ingredients":[{"spoken":false}],"steps":[],"closing":"Bye"}`,
			1,
			"ingredients[0].text",
		},
		{
			"step without a number",
			`{"greeting":"Hi","ingredients":[],"steps":[{"text":"Mix."}],"closing":"Bye"}`,
			1,
			"steps[0].step_num",
		},
		{
			"fractional step number",
			`{"greeting":"Hi","ingredients":[],"steps":[{"step_num":1.5,"text":"Mix."}],"closing":"Bye"}`,
			1,
			"step_num",
		},
		{
			"negative step number",
			`{"greeting":"Hi","ingredients":[],"steps":[{"step_num":-2,"text":"Mix."}],"closing":"Bye"}`,
			1,
			"must be positive",
		},
		{
			"wrong container types",
			`{"greeting":"Hi","ingredients":"flour","steps":{},"closing":"Bye"}`,
			2,
			"not a list",
		},
		{
			"every violation reported together",
			`{"greeting":"","steps":[{"step_num":0,"text":""}],"closing":"Bye"}`,
			4,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.candidate)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if len(verr.Issues) != tt.wantIssues {
				t.Fatalf("expected %d issues, got %d: %v", tt.wantIssues, len(verr.Issues), verr.Issues)
			}
			if tt.wantSubstr != "" && !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSubstr)
			}
		})
	}
}

// A payload that passed validation must pass again after a marshal round
// trip, so stored responses can be re-checked on load.
func TestValidateRoundTrip(t *testing.T) {
	resp, err := Validate(`{"greeting":"Hi","ingredients":[{"text":"salt"}],"steps":[{"step_num":1,"text":"Mix."}],"closing":"Bye"}`)
	if err != nil {
		t.Fatalf("first validation: %v", err)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	again, err := Validate(string(encoded))
	if err != nil {
		t.Fatalf("re-validation reported issues: %v", err)
	}
	if again.Greeting != resp.Greeting || len(again.Steps) != len(resp.Steps) {
		t.Fatalf("round trip changed the payload: %+v vs %+v", again, resp)
	}
}
