package response

import (
	"strings"
	"testing"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

func testPipeline() *Pipeline {
	return NewPipeline(logger.New(logger.LevelOff, nil))
}

func testRecord() *domain.Recipe {
	return &domain.Recipe{
		ID:    "r1",
		Title: "Lemon Rice",
		Ingredients: []domain.Ingredient{
			{Name: "rice", Quantity: "2", Unit: "cups"},
			{Name: "lemon", Quantity: "1"},
		},
		Instructions: []string{"Cook the rice.", "Squeeze the lemon over it."},
	}
}

// assertUsable checks the guarantees every Normalize result carries,
// whatever path produced it.
func assertUsable(t *testing.T, resp *domain.StructuredResponse) {
	t.Helper()
	if resp == nil {
		t.Fatal("nil response")
	}
	if strings.TrimSpace(resp.Greeting) == "" || strings.TrimSpace(resp.Closing) == "" {
		t.Fatalf("missing greeting or closing: %+v", resp)
	}
	if resp.Ingredients == nil || resp.Steps == nil {
		t.Fatal("sequences must not be nil")
	}
	for i, st := range resp.Steps {
		if st.StepNum < 1 {
			t.Fatalf("step %d has non-positive number %d", i, st.StepNum)
		}
		if strings.TrimSpace(st.Text) == "" {
			t.Fatalf("step %d has empty text", i)
		}
	}
}

func TestNormalizeTotality(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		raw  string
	}{
		{"absent output", ""},
		{"whitespace only", " \n\t "},
		{"plain prose", "I am not sure how to answer that."},
		{"binary garbage", string([]byte{0x00, 0xff, 0x13, 0x37})},
		{"truncated object", `{"greeting":"Hi","ingredients":[{"text":"salt"`},
		{"wrong schema", `{"foo":1,"bar":[2,3]}`},
		{"right shape, wrong types", `{"greeting":7,"ingredients":{},"steps":"x","closing":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertUsable(t, p.Normalize(tt.raw, testRecord()))
		})
	}
}

func TestNormalizeNilRecord(t *testing.T) {
	p := testPipeline()

	resp := p.Normalize("garbage", nil)
	assertUsable(t, resp)
	if len(resp.Ingredients) != 0 || len(resp.Steps) != 0 {
		t.Fatalf("expected the minimal payload, got %+v", resp)
	}
}

func TestNormalizeFencedOutput(t *testing.T) {
	p := testPipeline()
	raw := "Here is your recipe!\n```json\n{\"greeting\":\"Hi\",\"ingredients\":[],\"steps\":[],\"closing\":\"Bye\"}\n```\nHappy cooking!"

	resp := p.Normalize(raw, testRecord())
	if resp.Greeting != "Hi" || resp.Closing != "Bye" {
		t.Fatalf("fenced payload not used: %+v", resp)
	}
	if len(resp.Ingredients) != 0 || len(resp.Steps) != 0 {
		t.Fatalf("expected the payload's empty sequences, got %+v", resp)
	}
}

// Trailing commas are the most common model slip. The repair pass must
// recover the payload itself rather than discard it for the fallback.
func TestNormalizeRepairsTrailingCommas(t *testing.T) {
	p := testPipeline()
	raw := `{"greeting":"Hi","ingredients":[{"text":"salt"},],"steps":[{"step_num":1,"text":"Mix."}],"closing":"Bye",}`

	resp := p.Normalize(raw, testRecord())
	if resp.Greeting != "Hi" {
		t.Fatalf("repair pass did not recover the payload: %+v", resp)
	}
	if len(resp.Ingredients) != 1 || resp.Ingredients[0].Text != "salt" {
		t.Fatalf("ingredients lost in repair: %+v", resp.Ingredients)
	}
	if len(resp.Steps) != 1 || resp.Steps[0].Text != "Mix." {
		t.Fatalf("steps lost in repair: %+v", resp.Steps)
	}
}

func TestNormalizeRepairsCommentaryAfterFence(t *testing.T) {
	p := testPipeline()
	raw := "```json\n{\"greeting\":\"Hi\",\"ingredients\":[],\"steps\":[],\"closing\":\"Bye\",}\n```\nThat should be everything you need!"

	resp := p.Normalize(raw, testRecord())
	if resp.Greeting != "Hi" || resp.Closing != "Bye" {
		t.Fatalf("repair pass did not recover the payload: %+v", resp)
	}
}

func TestNormalizeFallsBackToRecord(t *testing.T) {
	p := testPipeline()
	rec := testRecord()

	// Unrepairable: the object never closes, so both cycles fail.
	resp := p.Normalize(`{"greeting":"Hi","ingredients":[{"text":`, rec)
	assertUsable(t, resp)
	if !strings.Contains(resp.Greeting, rec.Title) {
		t.Fatalf("expected a record-built payload, got %+v", resp)
	}
	if len(resp.Steps) != len(rec.Instructions) {
		t.Fatalf("expected %d steps from the record, got %d", len(rec.Instructions), len(resp.Steps))
	}
	if len(resp.Ingredients) != len(rec.Ingredients) {
		t.Fatalf("expected %d ingredients from the record, got %d", len(rec.Ingredients), len(resp.Ingredients))
	}
}
