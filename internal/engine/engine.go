// Package engine turns parsed intents into session changes and spoken
// replies. It is the only writer of session state during a conversation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/conversation"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/llm"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
)

// Option configures the engine.
type Option func(*Engine)

// WithAgent attaches the language-model agent. Without one the engine still
// works: presentations come straight from the recipe record, and questions
// get a canned reply.
func WithAgent(a *llm.Agent) Option {
	return func(e *Engine) {
		e.agent = a
	}
}

// Engine drives conversations. It depends only on interfaces plus the
// optional agent, so it is fully testable without a network.
type Engine struct {
	recipes domain.RecipeSource
	store   domain.SessionStore
	parser  domain.IntentParser
	agent   *llm.Agent
	log     *logger.Logger
}

// Reply is what the assistant says back for one utterance.
type Reply struct {
	Text string
	Quit bool // the user asked to end the conversation
}

// Canned lines for turns that never need the model.
const (
	clarifyReply = "Sorry, I didn't catch that. You can say next, repeat, go back, or ask me a cooking question."
	helpReply    = "You can search for a dish, pick one from the results, and I'll walk you through it. " +
		"While cooking, say next, repeat, previous, or jump to any step. " +
		"You can also pause, set a timer, or ask questions about the recipe."
	smallTalkReply = "Happy to help in the kitchen! Tell me what you'd like to cook, or say list recipes to hear what I know."
	quitReply      = "Happy cooking! Goodbye."
	noRecipeReply  = "We haven't started a recipe yet. Try searching for a dish first."
	noStepsReply   = "This recipe doesn't have any steps I can read out."
	offlineReply   = "I can't reach my knowledge service right now, but I can still walk you through the recipe."
	whichOneReply  = "Which one would you like? You can say the name, or the first one, the second one, and so on."
)

// New creates a conversation engine with the given dependencies and options.
func New(recipes domain.RecipeSource, store domain.SessionStore, parser domain.IntentParser, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipes: recipes,
		store:   store,
		parser:  parser,
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListRecipes returns every recipe the assistant knows.
func (e *Engine) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	return e.recipes.List(ctx)
}

// GetRecipe returns a full recipe record by ID.
func (e *Engine) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return e.recipes.Get(ctx, id)
}

// StartConversation creates and persists a fresh idle session.
func (e *Engine) StartConversation(ctx context.Context) (*domain.Session, error) {
	session := domain.NewSession(generateID())
	if err := e.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	e.log.Info("started session %s", session.ID)
	return session, nil
}

// Status returns the full session state.
func (e *Engine) Status(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.store.Load(ctx, sessionID)
}

// Abandon resets a session to idle, dropping recipe progress and any timer
// but keeping the conversation history.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	session, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	session.Reset()
	session.UpdatedAt = time.Now()

	if err := e.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	e.log.Info("session %s abandoned", sessionID)
	return nil
}

// ── Turn handling ────────────────────────────────────────────────

// Handle runs one conversational turn: parse the utterance, act on the
// intent, persist the mutated session. It always produces a speakable
// reply; errors are reserved for storage failures.
func (e *Engine) Handle(ctx context.Context, sessionID, utterance string) (*Reply, error) {
	session, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	intent := e.classify(ctx, session, utterance)
	reply := e.dispatch(ctx, session, intent)

	session.AppendExchange(utterance, reply.Text)
	session.UpdatedAt = time.Now()
	if err := e.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	e.log.Debug("session %s: %s -> %q", sessionID, intent.Type, reply.Text)
	return reply, nil
}

// classify parses the utterance, escalating to the model when the keyword
// parser is unsure and an agent is attached.
func (e *Engine) classify(ctx context.Context, session *domain.Session, utterance string) *domain.Intent {
	intent, err := e.parser.Parse(ctx, utterance, session)
	if err != nil || intent == nil {
		intent = &domain.Intent{Type: domain.IntentUnknown, Payload: utterance}
	}
	if intent.Type != domain.IntentUnknown && intent.Confidence >= conversation.MinConfidence {
		return intent
	}
	if e.agent == nil {
		return intent
	}

	escalated, err := e.agent.Classify(ctx, utterance, e.currentRecipe(ctx, session), session)
	if err != nil {
		e.log.Warn("engine: model classification failed: %v", err)
		return intent
	}
	return escalated
}

// dispatch routes one intent to its handler.
func (e *Engine) dispatch(ctx context.Context, s *domain.Session, intent *domain.Intent) *Reply {
	switch intent.Type {
	case domain.IntentSearchRecipe:
		return say(e.handleSearch(ctx, s, intent.Payload))
	case domain.IntentListRecipes:
		return say(e.handleList(ctx, s))
	case domain.IntentStartRecipe:
		return say(e.handleStart(ctx, s, intent.Payload))
	case domain.IntentNavNext:
		return say(e.handleNext(s))
	case domain.IntentNavPrev:
		return say(e.handlePrev(s))
	case domain.IntentNavGoTo:
		return say(e.handleGoTo(s, intent.StepNum))
	case domain.IntentNavRepeat:
		return say(e.handleRepeat(s))
	case domain.IntentNavStart:
		return say(e.handleStartOver(s))
	case domain.IntentQuestion:
		return say(e.handleQuestion(ctx, s, intent.Payload))
	case domain.IntentStopPause:
		return say(e.handlePause(s))
	case domain.IntentResume:
		return say(e.handleResume(s))
	case domain.IntentConfirm:
		return say(e.handleConfirm(ctx, s))
	case domain.IntentCancel:
		return say(e.handleCancel(s))
	case domain.IntentSetTimer:
		return say(e.handleSetTimer(s, intent.Payload))
	case domain.IntentDismissTimer:
		return say(e.handleDismissTimer(s))
	case domain.IntentSmallTalk:
		return say(smallTalkReply)
	case domain.IntentHelp:
		return say(helpReply)
	case domain.IntentQuit:
		return &Reply{Text: quitReply, Quit: true}
	default:
		return say(clarifyReply)
	}
}

func say(text string) *Reply {
	return &Reply{Text: text}
}

// ── Intent handlers ──────────────────────────────────────────────

func (e *Engine) handleSearch(ctx context.Context, s *domain.Session, query string) string {
	hits, err := e.recipes.Search(ctx, query)
	if err != nil {
		e.log.Error("engine: search failed: %v", err)
		return "Something went wrong while searching. Try again in a moment."
	}
	if len(hits) == 0 {
		return fmt.Sprintf("I couldn't find anything matching %s. Say list recipes to hear everything I know.", strings.TrimSpace(query))
	}

	s.LastResults = hits
	titles := summaryTitles(hits)
	if len(hits) == 1 {
		return fmt.Sprintf("I found %s. Shall we cook it?", titles[0])
	}
	return fmt.Sprintf("I found %d recipes: %s. Which one would you like?", len(hits), response.JoinSpoken(titles))
}

func (e *Engine) handleList(ctx context.Context, s *domain.Session) string {
	all, err := e.recipes.List(ctx)
	if err != nil {
		e.log.Error("engine: listing recipes failed: %v", err)
		return "Something went wrong while fetching the recipes. Try again in a moment."
	}
	if len(all) == 0 {
		return "My recipe book is empty right now."
	}

	s.LastResults = all
	return fmt.Sprintf("I know %d recipes: %s. Which one would you like?", len(all), response.JoinSpoken(summaryTitles(all)))
}

func (e *Engine) handleStart(ctx context.Context, s *domain.Session, selection string) string {
	rec, err := e.resolveRecipe(ctx, s, selection)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if len(s.LastResults) > 1 {
			return whichOneReply
		}
		return "I couldn't find that recipe. Say list recipes to hear what I know."
	case err != nil:
		e.log.Error("engine: resolving recipe failed: %v", err)
		return "Something went wrong fetching that recipe. Try again in a moment."
	}
	return e.presentRecipe(ctx, s, selection, rec)
}

func (e *Engine) handleNext(s *domain.Session) string {
	if s.Response == nil {
		return noRecipeReply
	}
	if s.Paused() {
		s.SetPaused(false)
	}
	if s.State == domain.StateCompleted && s.Section == domain.SectionClosing {
		return e.finishRecipe(s)
	}

	// Moving on from the ingredients begins the cooking steps.
	if s.Section != domain.SectionSteps {
		return e.enterSteps(s)
	}

	switch err := s.NavigateNext(); {
	case err == nil:
		return e.voiceStep(s)
	case errors.Is(err, domain.ErrNoMoreSteps):
		return e.finishRecipe(s)
	default:
		return noRecipeReply
	}
}

func (e *Engine) handlePrev(s *domain.Session) string {
	if s.Response == nil {
		return noRecipeReply
	}
	if s.TotalSteps == 0 {
		return noStepsReply
	}

	switch err := s.NavigatePrev(); {
	case err == nil:
		return e.voiceStep(s)
	case errors.Is(err, domain.ErrAtFirstStep):
		return "We're already at the first step. " + e.voiceStep(s)
	default:
		return noRecipeReply
	}
}

func (e *Engine) handleGoTo(s *domain.Session, n int) string {
	if s.Response == nil {
		return noRecipeReply
	}
	if s.TotalSteps == 0 {
		return noStepsReply
	}

	switch err := s.NavigateTo(n); {
	case err == nil:
		s.MarkSectionSpoken(domain.SectionSteps)
		return e.voiceStep(s)
	case errors.Is(err, domain.ErrStepOutOfRange):
		return fmt.Sprintf("This recipe only goes up to step %d.", s.TotalSteps)
	default:
		return noRecipeReply
	}
}

func (e *Engine) handleRepeat(s *domain.Session) string {
	if s.Response == nil {
		return noRecipeReply
	}

	switch s.Section {
	case domain.SectionSteps:
		step, ok := s.CurrentStep()
		if !ok {
			return noStepsReply
		}
		return response.StepLine(step)
	case domain.SectionGreeting, domain.SectionIngredients:
		parts := make([]string, 0, 2)
		if g := response.StripFormatting(s.Response.Greeting); g != "" {
			parts = append(parts, g)
		}
		if sec := response.IngredientsNarration(s.Response.Ingredients); sec != "" {
			parts = append(parts, sec)
		}
		if len(parts) == 0 {
			return noStepsReply
		}
		return strings.Join(parts, " ")
	case domain.SectionClosing:
		return e.finishRecipe(s)
	default:
		return noRecipeReply
	}
}

func (e *Engine) handleStartOver(s *domain.Session) string {
	if s.Response == nil {
		return noRecipeReply
	}
	if s.TotalSteps == 0 {
		return noStepsReply
	}
	if err := s.NavigateTo(1); err != nil {
		return noRecipeReply
	}
	s.MarkSectionSpoken(domain.SectionSteps)
	return "Taking it from the top. " + e.voiceStep(s)
}

func (e *Engine) handleQuestion(ctx context.Context, s *domain.Session, question string) string {
	if e.agent == nil {
		return offlineReply
	}
	answer, err := e.agent.AskQuestion(ctx, question, e.currentRecipe(ctx, s), s)
	if err != nil {
		e.log.Warn("engine: question failed: %v", err)
		return offlineReply
	}
	return answer
}

func (e *Engine) handlePause(s *domain.Session) string {
	if s.Response == nil {
		return "No rush. Tell me what you'd like to cook whenever you're ready."
	}
	if s.Paused() {
		return "We're already paused. Say resume when you're ready."
	}
	s.SetPaused(true)
	e.log.Info("session %s paused", s.ID)
	return "Pausing. Say resume when you're ready to keep going."
}

func (e *Engine) handleResume(s *domain.Session) string {
	// "Keep going" while nothing is paused means the next step.
	if !s.Paused() {
		return e.handleNext(s)
	}

	s.SetPaused(false)
	e.log.Info("session %s resumed", s.ID)
	if s.Section == domain.SectionSteps {
		if step, ok := s.CurrentStep(); ok {
			return "Welcome back. " + response.StepLine(step)
		}
	}
	return "Welcome back. Say next whenever you're ready."
}

func (e *Engine) handleConfirm(ctx context.Context, s *domain.Session) string {
	if s.Response != nil {
		return e.handleNext(s)
	}

	switch len(s.LastResults) {
	case 0:
		return "What would you like to cook? You can search for a dish or say list recipes."
	case 1:
		rec, err := e.recipes.Get(ctx, s.LastResults[0].ID)
		if err != nil {
			e.log.Error("engine: fetching recipe failed: %v", err)
			return "Something went wrong fetching that recipe. Try again in a moment."
		}
		return e.presentRecipe(ctx, s, "", rec)
	default:
		return whichOneReply
	}
}

func (e *Engine) handleCancel(s *domain.Session) string {
	if s.Response == nil && s.Timer == nil {
		return "Nothing to cancel. Tell me what you'd like to cook."
	}

	title := s.RecipeTitle
	s.Reset()
	e.log.Info("session %s cancelled recipe %q", s.ID, title)
	if title == "" {
		return "Okay, starting fresh. What would you like to cook?"
	}
	return fmt.Sprintf("Okay, I've put %s away. Want to cook something else?", title)
}

func (e *Engine) handleSetTimer(s *domain.Session, request string) string {
	d, ok := conversation.ParseDurationPhrase(request)
	if !ok {
		return "For how long? Say something like set a timer for ten minutes."
	}

	label := "timer"
	if step, stepOK := s.CurrentStep(); stepOK && s.Section == domain.SectionSteps {
		label = fmt.Sprintf("step %d timer", step.StepNum)
	}
	s.SetTimer(d, label, time.Now())
	e.log.Info("session %s set %s for %s", s.ID, label, d)
	return fmt.Sprintf("Timer set for %s. I'll let you know.", response.SpeakDuration(d))
}

func (e *Engine) handleDismissTimer(s *domain.Session) string {
	if s.Timer == nil {
		return "There's no timer to dismiss."
	}

	ringing := !s.Timer.Active
	s.ClearTimer()
	if ringing {
		return "Okay, alarm off."
	}
	return "Timer cancelled."
}

// ── Presentation ─────────────────────────────────────────────────

// presentRecipe builds the narration payload for a chosen recipe and loads
// it into the session. The reply voices the greeting and the ingredients;
// the steps begin when the user says next.
func (e *Engine) presentRecipe(ctx context.Context, s *domain.Session, query string, rec *domain.Recipe) string {
	resp := e.respond(ctx, query, rec)
	s.SetResponse(rec.ID, rec.Title, resp)
	s.Section = domain.SectionIngredients
	s.MarkSectionSpoken(domain.SectionGreeting)
	s.MarkSectionSpoken(domain.SectionIngredients)
	for i := range resp.Ingredients {
		s.MarkIngredientSpoken(i)
	}

	parts := make([]string, 0, 3)
	if g := response.StripFormatting(resp.Greeting); g != "" {
		parts = append(parts, g)
	}
	if sec := response.IngredientsNarration(resp.Ingredients); sec != "" {
		parts = append(parts, sec)
	}
	if len(resp.Steps) > 0 {
		parts = append(parts, "Say next when you're ready for the steps.")
	}

	e.log.Info("session %s: presenting %q (%d steps)", s.ID, rec.Title, len(resp.Steps))
	return strings.Join(parts, " ")
}

// respond produces the structured narration payload, straight from the
// record when no agent is attached.
func (e *Engine) respond(ctx context.Context, query string, rec *domain.Recipe) *domain.StructuredResponse {
	if e.agent == nil {
		return response.BuildFallback(rec)
	}
	if strings.TrimSpace(query) == "" {
		query = "walk me through " + rec.Title
	}
	return e.agent.Respond(ctx, query, rec)
}

// enterSteps moves the narration cursor onto the first unspoken step.
func (e *Engine) enterSteps(s *domain.Session) string {
	if len(s.Response.Steps) == 0 {
		return e.finishRecipe(s)
	}

	idx, ok := s.NextUnspokenStep()
	if !ok {
		idx = 0
	}
	s.StepIndex = idx
	s.Section = domain.SectionSteps
	s.MarkSectionSpoken(domain.SectionSteps)
	return response.StepsLead + " " + e.voiceStep(s)
}

// voiceStep renders the step under the cursor and records it as spoken.
func (e *Engine) voiceStep(s *domain.Session) string {
	step, ok := s.CurrentStep()
	if !ok {
		return noStepsReply
	}
	s.State = domain.StateCooking
	s.MarkStepSpoken(step.StepNum)

	line := response.StepLine(step)
	if s.StepIndex == s.TotalSteps-1 {
		line += " That's the last step."
	}
	return line
}

// finishRecipe voices the closing and marks the session complete.
func (e *Engine) finishRecipe(s *domain.Session) string {
	s.Section = domain.SectionClosing
	s.State = domain.StateCompleted

	if s.SectionSpoken(domain.SectionClosing) {
		return "That recipe is finished. Say start over to hear it again, or search for something new."
	}
	s.MarkSectionSpoken(domain.SectionClosing)
	e.log.Info("session %s finished %q", s.ID, s.RecipeTitle)

	closing := response.StripFormatting(s.Response.Closing)
	if closing == "" {
		closing = "And that's everything. Enjoy your meal!"
	}
	return closing
}

// ── Recipe resolution ────────────────────────────────────────────

// resolveRecipe turns a spoken selection into a full recipe record. It
// tries, in order: an ordinal or number against the remembered results, a
// title match against them, the only remembered result, a fresh search.
func (e *Engine) resolveRecipe(ctx context.Context, s *domain.Session, selection string) (*domain.Recipe, error) {
	cleaned := strings.ToLower(strings.TrimSpace(selection))
	// "that one" and "this one" point at a result, not position one.
	cleaned = strings.ReplaceAll(cleaned, "that one", "")
	cleaned = strings.ReplaceAll(cleaned, "this one", "")

	if n, ok := firstNumberWord(cleaned); ok {
		if hit, ok := s.PickResult(n); ok {
			return e.recipes.Get(ctx, hit.ID)
		}
	}

	if cleaned != "" {
		for _, hit := range s.LastResults {
			title := strings.ToLower(hit.Title)
			if strings.Contains(cleaned, title) || strings.Contains(title, cleaned) {
				return e.recipes.Get(ctx, hit.ID)
			}
		}
	}

	if len(s.LastResults) == 1 {
		return e.recipes.Get(ctx, s.LastResults[0].ID)
	}

	if cleaned != "" {
		hits, err := e.recipes.Search(ctx, selection)
		if err != nil {
			return nil, fmt.Errorf("searching recipes: %w", err)
		}
		if len(hits) > 0 {
			s.LastResults = hits
			return e.recipes.Get(ctx, hits[0].ID)
		}
	}

	return nil, domain.ErrNotFound
}

// currentRecipe fetches the session's active recipe, nil when none is
// selected or the lookup fails. Callers treat it as optional context.
func (e *Engine) currentRecipe(ctx context.Context, s *domain.Session) *domain.Recipe {
	if s.RecipeID == "" {
		return nil
	}
	rec, err := e.recipes.Get(ctx, s.RecipeID)
	if err != nil {
		e.log.Debug("engine: recipe %s not found: %v", s.RecipeID, err)
		return nil
	}
	return rec
}

// firstNumberWord finds the first token that reads as a number: "the
// second one" picks 2, not 1.
func firstNumberWord(s string) (int, bool) {
	for _, field := range strings.Fields(s) {
		if n, ok := conversation.ParseNumberWord(strings.Trim(field, ".,!?")); ok {
			return n, true
		}
	}
	return 0, false
}

func summaryTitles(hits []domain.RecipeSummary) []string {
	titles := make([]string, 0, len(hits))
	for _, h := range hits {
		titles = append(titles, h.Title)
	}
	return titles
}
