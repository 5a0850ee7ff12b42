package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, nil)
}

// chatServer stubs a chat-completions endpoint that always replies with
// the given assistant content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

type stubGen struct {
	reply string
	err   error
}

func (s stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
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

func TestClientChat(t *testing.T) {
	srv := chatServer(t, "Hello there!")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger())
	got, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello there!" {
		t.Fatalf("got %q", got)
	}
}

func TestClientChatUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger())
	_, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "hi")})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestAgentRespondStructured(t *testing.T) {
	reply := "Here you go!\n```json\n{\"greeting\":\"Hi\",\"ingredients\":[{\"text\":\"2 cups rice\"}],\"steps\":[{\"step_num\":1,\"text\":\"Cook the rice.\"}],\"closing\":\"Bye\"}\n```"
	a := NewAgent(nil, response.NewPipeline(testLogger()), testLogger(),
		WithGenerator(stubGen{reply: reply}))

	resp := a.Respond(context.Background(), "make lemon rice", testRecord())
	if resp.Greeting != "Hi" || resp.Closing != "Bye" {
		t.Fatalf("model payload not used: %+v", resp)
	}
	if len(resp.Steps) != 1 || resp.Steps[0].Text != "Cook the rice." {
		t.Fatalf("steps wrong: %+v", resp.Steps)
	}
}

func TestAgentRespondUpstreamFailure(t *testing.T) {
	a := NewAgent(nil, response.NewPipeline(testLogger()), testLogger(),
		WithGenerator(stubGen{err: errors.New("connection refused")}))

	rec := testRecord()
	resp := a.Respond(context.Background(), "make lemon rice", rec)
	if !strings.Contains(resp.Greeting, rec.Title) {
		t.Fatalf("expected record-built payload, got %+v", resp)
	}
	if len(resp.Steps) != len(rec.Instructions) {
		t.Fatalf("expected %d steps, got %d", len(rec.Instructions), len(resp.Steps))
	}
}

func TestAgentRespondGarbageOutput(t *testing.T) {
	a := NewAgent(nil, response.NewPipeline(testLogger()), testLogger(),
		WithGenerator(stubGen{reply: "I'd rather chat about the weather."}))

	rec := testRecord()
	resp := a.Respond(context.Background(), "make lemon rice", rec)
	if !strings.Contains(resp.Greeting, rec.Title) {
		t.Fatalf("expected record-built payload, got %+v", resp)
	}
}

func TestAgentClassify(t *testing.T) {
	srv := chatServer(t, `{"intent":"nav_go_to","payload":"","step_num":4}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger())
	a := NewAgent(c, response.NewPipeline(testLogger()), testLogger())

	intent, err := a.Classify(context.Background(), "jump to the fourth step", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Type != domain.IntentNavGoTo {
		t.Fatalf("expected nav_go_to, got %s", intent.Type)
	}
	if intent.StepNum != 4 {
		t.Fatalf("expected step 4, got %d", intent.StepNum)
	}
	if intent.Payload != "jump to the fourth step" {
		t.Fatalf("empty payload should fall back to the input, got %q", intent.Payload)
	}
}

func TestAgentClassifyUnusableReply(t *testing.T) {
	srv := chatServer(t, "I think they want to go forward?")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger())
	a := NewAgent(c, response.NewPipeline(testLogger()), testLogger())

	intent, err := a.Classify(context.Background(), "mumble mumble", nil, nil)
	if err != nil {
		t.Fatalf("unusable reply should not error: %v", err)
	}
	if intent.Type != domain.IntentUnknown {
		t.Fatalf("expected unknown, got %s", intent.Type)
	}
}

func TestAgentAskQuestionStripsMarkdown(t *testing.T) {
	srv := chatServer(t, "Use **unsalted** butter.")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger())
	a := NewAgent(c, response.NewPipeline(testLogger()), testLogger())

	answer, err := a.AskQuestion(context.Background(), "which butter?", testRecord(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Use unsalted butter." {
		t.Fatalf("markdown not stripped: %q", answer)
	}
}

func TestBuildRecipePrompt(t *testing.T) {
	prompt := buildRecipePrompt("make lemon rice", testRecord())

	for _, want := range []string{
		"Title: Lemon Rice",
		"- 2 cups rice",
		"- 1 lemon",
		"Step 1: Cook the rice.",
		"Step 2: Squeeze the lemon over it.",
		"User request: make lemon rice",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
