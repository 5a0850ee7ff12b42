package domain

import (
	"slices"
	"time"
)

// SessionState tracks the high-level lifecycle of an assistant session.
// States are stored as strings so persisted sessions stay readable.
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateRecipeSelected SessionState = "recipe_selected"
	StateCooking        SessionState = "cooking"
	StatePaused         SessionState = "paused"
	StateCompleted      SessionState = "completed"
)

// Section identifies which part of the narration a session is positioned in.
type Section string

const (
	SectionIdle        Section = "idle"
	SectionGreeting    Section = "greeting"
	SectionIngredients Section = "ingredients"
	SectionSteps       Section = "steps"
	SectionClosing     Section = "closing"
)

// maxHistoryExchanges bounds the conversation history kept per session.
const maxHistoryExchanges = 10

// Exchange is one user/assistant turn in the conversation history.
type Exchange struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

// TimerState is the cooking timer attached to a session (at most one).
// A fired timer stays on the session, with Active false, until the user
// acknowledges it; the supervision fields track the nagging that happens
// in between.
type TimerState struct {
	Active   bool          `json:"active"`
	Label    string        `json:"label,omitempty"`
	Duration time.Duration `json:"duration"`
	End      time.Time     `json:"end"`

	WarnedAlmost bool      `json:"warned_almost,omitempty"`
	LastNotified time.Time `json:"last_notified,omitempty"`
	Escalation   int       `json:"escalation,omitempty"`
}

// Remaining returns how long until the timer fires, never negative.
func (t *TimerState) Remaining(now time.Time) time.Duration {
	if t == nil || !t.Active {
		return 0
	}
	if d := t.End.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Session is the progress tracker for one conversation: which recipe is
// active, where the narration stands, and what has already been spoken.
// The session owns the spoken flags on its Response copy; nothing else
// mutates them after construction.
type Session struct {
	ID                string              `json:"id"`
	RecipeID          string              `json:"recipe_id,omitempty"`
	RecipeTitle       string              `json:"recipe_title,omitempty"`
	State             SessionState        `json:"state"`
	Section           Section             `json:"section"`
	StepIndex         int                 `json:"step_index"` // 0-based into Response.Steps
	TotalSteps        int                 `json:"total_steps"`
	Response          *StructuredResponse `json:"response,omitempty"`
	IngredientsSpoken []int               `json:"ingredients_spoken,omitempty"` // indices
	StepsSpoken       []int               `json:"steps_spoken,omitempty"`       // step numbers
	SectionsSpoken    []Section           `json:"sections_spoken,omitempty"`
	LastResults       []RecipeSummary     `json:"last_results,omitempty"` // most recent search hits
	History           []Exchange          `json:"history,omitempty"`
	Timer             *TimerState         `json:"timer,omitempty"`
	StartedAt         time.Time           `json:"started_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewSession returns an idle session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		State:     StateIdle,
		Section:   SectionIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetResponse installs a narration payload for a recipe and resets all
// progress tracking. The session keeps its own copy of resp.
func (s *Session) SetResponse(recipeID, title string, resp *StructuredResponse) {
	s.RecipeID = recipeID
	s.RecipeTitle = title
	s.Response = resp.Clone()
	s.State = StateRecipeSelected
	s.Section = SectionGreeting
	s.StepIndex = 0
	s.TotalSteps = len(resp.Steps)
	s.IngredientsSpoken = nil
	s.StepsSpoken = nil
	s.SectionsSpoken = nil
}

// Reset returns the session to idle, dropping recipe and progress state
// but keeping conversation history.
func (s *Session) Reset() {
	s.RecipeID = ""
	s.RecipeTitle = ""
	s.Response = nil
	s.State = StateIdle
	s.Section = SectionIdle
	s.StepIndex = 0
	s.TotalSteps = 0
	s.IngredientsSpoken = nil
	s.StepsSpoken = nil
	s.SectionsSpoken = nil
	s.Timer = nil
}

// MarkIngredientSpoken records that the ingredient at index i was voiced.
// Out-of-range indices are ignored.
func (s *Session) MarkIngredientSpoken(i int) {
	if s.Response == nil || i < 0 || i >= len(s.Response.Ingredients) {
		return
	}
	s.Response.Ingredients[i].Spoken = true
	if !slices.Contains(s.IngredientsSpoken, i) {
		s.IngredientsSpoken = append(s.IngredientsSpoken, i)
	}
}

// MarkStepSpoken records that every step labeled num was voiced.
func (s *Session) MarkStepSpoken(num int) {
	if s.Response == nil {
		return
	}
	found := false
	for i := range s.Response.Steps {
		if s.Response.Steps[i].StepNum == num {
			s.Response.Steps[i].Spoken = true
			found = true
		}
	}
	if found && !slices.Contains(s.StepsSpoken, num) {
		s.StepsSpoken = append(s.StepsSpoken, num)
	}
}

// MarkSectionSpoken records that a narration section was fully voiced.
func (s *Session) MarkSectionSpoken(sec Section) {
	if !slices.Contains(s.SectionsSpoken, sec) {
		s.SectionsSpoken = append(s.SectionsSpoken, sec)
	}
}

// SectionSpoken reports whether a section was already voiced.
func (s *Session) SectionSpoken(sec Section) bool {
	return slices.Contains(s.SectionsSpoken, sec)
}

// NextUnspokenIngredient returns the index of the first ingredient that has
// not been voiced yet.
func (s *Session) NextUnspokenIngredient() (int, bool) {
	if s.Response == nil {
		return 0, false
	}
	for i, ing := range s.Response.Ingredients {
		if !ing.Spoken {
			return i, true
		}
	}
	return 0, false
}

// NextUnspokenStep returns the position of the first step that has not been
// voiced yet.
func (s *Session) NextUnspokenStep() (int, bool) {
	if s.Response == nil {
		return 0, false
	}
	for i, st := range s.Response.Steps {
		if !st.Spoken {
			return i, true
		}
	}
	return 0, false
}

// PickResult returns the 1-based nth remembered search hit, so "the second
// one" resolves against the listing the user just heard.
func (s *Session) PickResult(n int) (RecipeSummary, bool) {
	if n < 1 || n > len(s.LastResults) {
		return RecipeSummary{}, false
	}
	return s.LastResults[n-1], true
}

// CurrentStep returns the step under the navigation cursor.
func (s *Session) CurrentStep() (StepItem, bool) {
	if s.Response == nil || s.StepIndex < 0 || s.StepIndex >= len(s.Response.Steps) {
		return StepItem{}, false
	}
	return s.Response.Steps[s.StepIndex], true
}

// NavigateTo moves the cursor to the 1-based step position n.
func (s *Session) NavigateTo(n int) error {
	if s.Response == nil {
		return ErrNoActiveRecipe
	}
	if n < 1 || n > s.TotalSteps {
		return ErrStepOutOfRange
	}
	s.StepIndex = n - 1
	s.Section = SectionSteps
	return nil
}

// NavigateNext advances the cursor by one step.
func (s *Session) NavigateNext() error {
	if s.Response == nil {
		return ErrNoActiveRecipe
	}
	if s.StepIndex+1 >= s.TotalSteps {
		return ErrNoMoreSteps
	}
	s.StepIndex++
	s.Section = SectionSteps
	return nil
}

// NavigatePrev moves the cursor back by one step.
func (s *Session) NavigatePrev() error {
	if s.Response == nil {
		return ErrNoActiveRecipe
	}
	if s.StepIndex <= 0 {
		return ErrAtFirstStep
	}
	s.StepIndex--
	s.Section = SectionSteps
	return nil
}

// SetPaused pauses or resumes narration. Resuming restores the cooking
// state when a recipe is loaded.
func (s *Session) SetPaused(paused bool) {
	switch {
	case paused:
		s.State = StatePaused
	case s.Response != nil:
		s.State = StateCooking
	default:
		s.State = StateIdle
	}
}

// Paused reports whether narration is paused.
func (s *Session) Paused() bool {
	return s.State == StatePaused
}

// AppendExchange records one conversational turn, keeping only the most
// recent maxHistoryExchanges.
func (s *Session) AppendExchange(user, assistant string) {
	s.History = append(s.History, Exchange{User: user, Assistant: assistant, At: time.Now()})
	if len(s.History) > maxHistoryExchanges {
		s.History = s.History[len(s.History)-maxHistoryExchanges:]
	}
}

// SetTimer arms the session timer for d from now, replacing any previous one.
func (s *Session) SetTimer(d time.Duration, label string, now time.Time) {
	s.Timer = &TimerState{Active: true, Label: label, Duration: d, End: now.Add(d)}
}

// CheckTimer reports whether the timer has expired as of now, disarming it
// on expiry. The second value is the time remaining for a live timer.
func (s *Session) CheckTimer(now time.Time) (bool, time.Duration) {
	if s.Timer == nil || !s.Timer.Active {
		return false, 0
	}
	if remaining := s.Timer.End.Sub(now); remaining > 0 {
		return false, remaining
	}
	s.Timer.Active = false
	return true, 0
}

// ClearTimer disarms and removes the session timer.
func (s *Session) ClearTimer() {
	s.Timer = nil
}
