package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
)

// ── Context building ─────────────────────────────────────────────

// buildMessages assembles the system prompt, an optional cooking-context
// user message, and the actual user query.
func (a *Agent) buildMessages(systemPrompt, userQuery string, rec *domain.Recipe, session *domain.Session) []Message {
	msgs := []Message{
		TextMessage(RoleSystem, systemPrompt),
	}

	if ctxBlock := buildContext(rec, session); ctxBlock != "" {
		msgs = append(msgs, TextMessage(RoleUser, ctxBlock))
		// Fake an ack so the model treats context as established.
		msgs = append(msgs, TextMessage(RoleAssistant, "Got it, I have the context."))
	}

	msgs = append(msgs, TextMessage(RoleUser, userQuery))
	return msgs
}

// buildRecipePrompt flattens the record and the user's request into the
// single prompt used for structured generation.
func buildRecipePrompt(query string, rec *domain.Recipe) string {
	var b strings.Builder
	b.WriteString(PromptRecipe)
	b.WriteString("\n\nRecipe record:\n")
	if rec != nil {
		fmt.Fprintf(&b, "Title: %s\n", rec.Title)
		if rec.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", rec.Description)
		}
		b.WriteString("Ingredients:\n")
		for _, line := range rec.IngredientLines() {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("Steps:\n")
		for i, ins := range rec.Instructions {
			fmt.Fprintf(&b, "Step %d: %s\n", i+1, ins)
		}
	}
	if query != "" {
		fmt.Fprintf(&b, "\nUser request: %s\n", query)
	}
	return b.String()
}

// buildContext serializes the current recipe and session state into a
// plain-text block the model can reason over. Includes section, step
// progress, and timer state so the model can answer questions about
// what's happening right now.
func buildContext(rec *domain.Recipe, session *domain.Session) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("[Current Recipe]\n")
	fmt.Fprintf(&b, "Recipe: %s\n", rec.Title)
	if rec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	}
	if rec.Region != "" {
		fmt.Fprintf(&b, "Region: %s\n", rec.Region)
	}

	b.WriteString("\nIngredients:\n")
	for _, line := range rec.IngredientLines() {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	b.WriteString("\nSteps:\n")
	for i, ins := range rec.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ins)
	}

	if session == nil {
		b.WriteString("\n[No active session — the user is browsing recipes.]\n")
		return b.String()
	}

	b.WriteString("\n[Session State]\n")
	fmt.Fprintf(&b, "State: %s\n", session.State)
	fmt.Fprintf(&b, "Section: %s\n", session.Section)
	if session.TotalSteps > 0 {
		fmt.Fprintf(&b, "Current step: %d of %d\n", session.StepIndex+1, session.TotalSteps)
	}
	if !session.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Elapsed: %s\n", formatDuration(time.Since(session.StartedAt)))
	}

	if cur, ok := session.CurrentStep(); ok {
		fmt.Fprintf(&b, "\n[Current Step]\nStep %d: %s\n", cur.StepNum, cur.Text)
	}

	if session.Timer != nil && session.Timer.Active {
		label := session.Timer.Label
		if label == "" {
			label = "timer"
		}
		fmt.Fprintf(&b, "\n[Timer]\nRUNNING %s: %s remaining\n", label, formatDuration(session.Timer.Remaining(time.Now())))
	} else {
		b.WriteString("\n[Timer]\nNo active timer.\n")
	}

	if n := len(session.History); n > 0 {
		b.WriteString("\n[Recent Exchanges]\n")
		start := n - 3
		if start < 0 {
			start = 0
		}
		for _, ex := range session.History[start:] {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.User, truncate(ex.Assistant, 120))
		}
	}

	return b.String()
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
