package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/conversation"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/llm"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/recipe"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/storage"
)

// setupEngine wires an engine from the in-memory implementations, without
// an agent: replies come straight from the recipe records.
func setupEngine(t *testing.T, opts ...Option) (*Engine, *domain.Session) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	e := New(
		recipe.NewMemorySource(log),
		storage.NewMemoryStore(log),
		conversation.NewKeywordParser(log),
		log,
		opts...,
	)
	session, err := e.StartConversation(context.Background())
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	return e, session
}

func turn(t *testing.T, e *Engine, sessionID, utterance string) *Reply {
	t.Helper()
	reply, err := e.Handle(context.Background(), sessionID, utterance)
	if err != nil {
		t.Fatalf("Handle(%q): %v", utterance, err)
	}
	if reply.Text == "" {
		t.Fatalf("Handle(%q): empty reply", utterance)
	}
	return reply
}

func status(t *testing.T, e *Engine, sessionID string) *domain.Session {
	t.Helper()
	session, err := e.Status(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	return session
}

func TestSearchThenConfirm(t *testing.T) {
	e, s := setupEngine(t)

	reply := turn(t, e, s.ID, "find me a dosa recipe")
	if !strings.Contains(reply.Text, "Masala Dosa") {
		t.Fatalf("search reply = %q, want it to mention Masala Dosa", reply.Text)
	}

	reply = turn(t, e, s.ID, "yes")
	if !strings.Contains(reply.Text, "For ingredients, you'll need:") {
		t.Fatalf("selection reply = %q, want the ingredient section", reply.Text)
	}
	if !strings.Contains(reply.Text, "2 cups rice") {
		t.Fatalf("selection reply = %q, want the first ingredient", reply.Text)
	}

	got := status(t, e, s.ID)
	if got.State != domain.StateRecipeSelected {
		t.Errorf("state = %s, want %s", got.State, domain.StateRecipeSelected)
	}
	if got.RecipeTitle != "Masala Dosa" {
		t.Errorf("recipe = %q, want Masala Dosa", got.RecipeTitle)
	}
	if got.Section != domain.SectionIngredients {
		t.Errorf("section = %s, want %s", got.Section, domain.SectionIngredients)
	}
}

func TestListThenOrdinalSelection(t *testing.T) {
	e, s := setupEngine(t)

	reply := turn(t, e, s.ID, "what can we cook")
	if !strings.Contains(reply.Text, "I know 5 recipes") {
		t.Fatalf("list reply = %q, want the recipe count", reply.Text)
	}

	// Listings are alphabetical, so the third one is Masala Dosa.
	turn(t, e, s.ID, "the third one")
	if got := status(t, e, s.ID); got.RecipeTitle != "Masala Dosa" {
		t.Fatalf("recipe = %q, want Masala Dosa", got.RecipeTitle)
	}
}

func TestSelectByName(t *testing.T) {
	e, s := setupEngine(t)

	reply := turn(t, e, s.ID, "let's make lemon rice")
	if !strings.Contains(reply.Text, "Lemon Rice") {
		t.Fatalf("selection reply = %q, want the recipe title", reply.Text)
	}
	if got := status(t, e, s.ID); got.RecipeID != "lemon-rice" {
		t.Fatalf("recipe ID = %q, want lemon-rice", got.RecipeID)
	}
}

func TestCookingNavigation(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make lemon rice")

	reply := turn(t, e, s.ID, "next")
	if !strings.Contains(reply.Text, "Now for the cooking steps.") || !strings.Contains(reply.Text, "Step 1:") {
		t.Fatalf("first next = %q, want the steps lead and step 1", reply.Text)
	}
	if got := status(t, e, s.ID); got.State != domain.StateCooking {
		t.Errorf("state = %s, want %s", got.State, domain.StateCooking)
	}

	reply = turn(t, e, s.ID, "next")
	if !strings.Contains(reply.Text, "Step 2:") {
		t.Fatalf("second next = %q, want step 2", reply.Text)
	}

	reply = turn(t, e, s.ID, "go to step 5")
	if !strings.Contains(reply.Text, "Step 5:") || !strings.Contains(reply.Text, "That's the last step.") {
		t.Fatalf("jump = %q, want step 5 with the last-step cue", reply.Text)
	}

	reply = turn(t, e, s.ID, "previous step")
	if !strings.Contains(reply.Text, "Step 4:") {
		t.Fatalf("previous = %q, want step 4", reply.Text)
	}

	reply = turn(t, e, s.ID, "repeat")
	if !strings.Contains(reply.Text, "Step 4:") {
		t.Fatalf("repeat = %q, want step 4 again", reply.Text)
	}

	reply = turn(t, e, s.ID, "go to step 9")
	if !strings.Contains(reply.Text, "only goes up to step 5") {
		t.Fatalf("out of range = %q, want the step limit", reply.Text)
	}

	reply = turn(t, e, s.ID, "start over")
	if !strings.Contains(reply.Text, "Step 1:") {
		t.Fatalf("start over = %q, want step 1", reply.Text)
	}
}

func TestRecipeCompletion(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make masala chai")
	turn(t, e, s.ID, "next")
	turn(t, e, s.ID, "go to step 5")

	reply := turn(t, e, s.ID, "next")
	if !strings.Contains(reply.Text, "Enjoy your meal!") {
		t.Fatalf("completion reply = %q, want the closing", reply.Text)
	}
	if got := status(t, e, s.ID); got.State != domain.StateCompleted {
		t.Errorf("state = %s, want %s", got.State, domain.StateCompleted)
	}

	reply = turn(t, e, s.ID, "next")
	if !strings.Contains(reply.Text, "finished") {
		t.Fatalf("post-completion reply = %q, want the finished line", reply.Text)
	}

	// Start over still replays a finished recipe.
	reply = turn(t, e, s.ID, "start over")
	if !strings.Contains(reply.Text, "Step 1:") {
		t.Fatalf("start over after completion = %q, want step 1", reply.Text)
	}
	if got := status(t, e, s.ID); got.State != domain.StateCooking {
		t.Errorf("state = %s, want %s", got.State, domain.StateCooking)
	}
}

func TestPauseAndResume(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make lemon rice")
	turn(t, e, s.ID, "next")

	reply := turn(t, e, s.ID, "hold on")
	if !strings.Contains(reply.Text, "Pausing") {
		t.Fatalf("pause reply = %q, want the pause line", reply.Text)
	}
	if got := status(t, e, s.ID); !got.Paused() {
		t.Fatal("session should be paused")
	}

	reply = turn(t, e, s.ID, "okay I'm ready")
	if !strings.Contains(reply.Text, "Welcome back") || !strings.Contains(reply.Text, "Step 1:") {
		t.Fatalf("resume reply = %q, want the welcome and current step", reply.Text)
	}
	if got := status(t, e, s.ID); got.State != domain.StateCooking {
		t.Errorf("state = %s, want %s", got.State, domain.StateCooking)
	}

	// "Keep going" while not paused means the next step.
	reply = turn(t, e, s.ID, "keep going")
	if !strings.Contains(reply.Text, "Step 2:") {
		t.Fatalf("keep going = %q, want step 2", reply.Text)
	}
}

func TestTimerLifecycle(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make masala chai")
	turn(t, e, s.ID, "next")

	reply := turn(t, e, s.ID, "set a timer for 2 minutes")
	if !strings.Contains(reply.Text, "Timer set for 2 minutes") {
		t.Fatalf("timer reply = %q, want the confirmation", reply.Text)
	}
	got := status(t, e, s.ID)
	if got.Timer == nil || !got.Timer.Active {
		t.Fatal("timer should be armed")
	}
	if got.Timer.Duration != 2*time.Minute {
		t.Errorf("duration = %s, want 2m", got.Timer.Duration)
	}
	if got.Timer.Label != "step 1 timer" {
		t.Errorf("label = %q, want step 1 timer", got.Timer.Label)
	}

	reply = turn(t, e, s.ID, "stop the timer")
	if !strings.Contains(reply.Text, "Timer cancelled") {
		t.Fatalf("dismiss reply = %q, want the cancellation", reply.Text)
	}
	if got := status(t, e, s.ID); got.Timer != nil {
		t.Fatal("timer should be cleared")
	}
}

func TestAcknowledgeFiredTimer(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make masala chai")
	turn(t, e, s.ID, "next")
	turn(t, e, s.ID, "set a timer for ten minutes")

	// Fire the timer the way the supervisor would. The memory store hands
	// back the live session, so no explicit save is needed.
	got := status(t, e, s.ID)
	if fired, _ := got.CheckTimer(got.Timer.End.Add(time.Second)); !fired {
		t.Fatal("timer should fire past its end")
	}

	reply := turn(t, e, s.ID, "thanks")
	if !strings.Contains(reply.Text, "alarm off") {
		t.Fatalf("ack reply = %q, want the alarm-off line", reply.Text)
	}
	if got := status(t, e, s.ID); got.Timer != nil {
		t.Fatal("timer should be cleared after acknowledgment")
	}
}

func TestCancelRecipe(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make lemon rice")

	reply := turn(t, e, s.ID, "never mind")
	if !strings.Contains(reply.Text, "Lemon Rice") {
		t.Fatalf("cancel reply = %q, want the recipe title", reply.Text)
	}

	got := status(t, e, s.ID)
	if got.State != domain.StateIdle {
		t.Errorf("state = %s, want %s", got.State, domain.StateIdle)
	}
	if got.Response != nil {
		t.Error("response should be dropped on cancel")
	}
}

func TestQuitEndsConversation(t *testing.T) {
	e, s := setupEngine(t)
	reply := turn(t, e, s.ID, "goodbye")
	if !reply.Quit {
		t.Fatal("quit intent should end the conversation")
	}
}

func TestOfflineReplies(t *testing.T) {
	e, s := setupEngine(t)

	reply := turn(t, e, s.ID, "how long do I boil the potatoes?")
	if reply.Text != offlineReply {
		t.Errorf("question reply = %q, want the offline line", reply.Text)
	}

	reply = turn(t, e, s.ID, "gleeb glorb")
	if reply.Text != clarifyReply {
		t.Errorf("unknown reply = %q, want the clarify line", reply.Text)
	}

	reply = turn(t, e, s.ID, "next")
	if reply.Text != noRecipeReply {
		t.Errorf("nav without recipe = %q, want the no-recipe line", reply.Text)
	}

	reply = turn(t, e, s.ID, "help")
	if reply.Text != helpReply {
		t.Errorf("help reply = %q, want the help line", reply.Text)
	}
}

// stubGen feeds the agent a canned model reply.
type stubGen struct {
	reply string
}

func (g stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.reply, nil
}

func TestAgentBackedPresentation(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	payload := `{"greeting":"Chai time!","ingredients":[{"text":"1 cup milk"}],` +
		`"steps":[{"step_num":1,"text":"Warm the milk."}],"closing":"Enjoy."}`
	agent := llm.NewAgent(nil, response.NewPipeline(log), log, llm.WithGenerator(stubGen{reply: payload}))

	e := New(
		recipe.NewMemorySource(log),
		storage.NewMemoryStore(log),
		conversation.NewKeywordParser(log),
		log,
		WithAgent(agent),
	)
	s, err := e.StartConversation(context.Background())
	if err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	reply := turn(t, e, s.ID, "let's make masala chai")
	if !strings.Contains(reply.Text, "Chai time!") {
		t.Fatalf("reply = %q, want the model greeting", reply.Text)
	}
	if !strings.Contains(reply.Text, "1 cup milk") {
		t.Fatalf("reply = %q, want the model ingredient", reply.Text)
	}
	if got := status(t, e, s.ID); got.TotalSteps != 1 {
		t.Errorf("total steps = %d, want 1", got.TotalSteps)
	}
}

func TestAbandonKeepsHistory(t *testing.T) {
	e, s := setupEngine(t)
	turn(t, e, s.ID, "let's make lemon rice")

	if err := e.Abandon(context.Background(), s.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	got := status(t, e, s.ID)
	if got.State != domain.StateIdle || got.Response != nil {
		t.Errorf("abandon left state=%s response=%v", got.State, got.Response)
	}
	if len(got.History) == 0 {
		t.Error("history should survive abandon")
	}
}

func TestHandleUnknownSession(t *testing.T) {
	e, _ := setupEngine(t)
	if _, err := e.Handle(context.Background(), "missing", "next"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
