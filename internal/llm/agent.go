package llm

import (
	"context"
	"encoding/json"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
)

// Agent wraps the chat Client with recipe-domain context building. It is
// the single entry-point the engine calls for model-powered features.
type Agent struct {
	client *Client
	gen    domain.Generator
	pipe   *response.Pipeline
	log    *logger.Logger
}

// AgentOption configures the Agent.
type AgentOption func(*Agent)

// WithGenerator swaps the structured-generation backend. The default is
// the Client itself; tests use this to stay off the network.
func WithGenerator(g domain.Generator) AgentOption {
	return func(a *Agent) { a.gen = g }
}

// NewAgent creates a cooking agent backed by the given Client.
func NewAgent(client *Client, pipe *response.Pipeline, log *logger.Logger, opts ...AgentOption) *Agent {
	a := &Agent{client: client, gen: client, pipe: pipe, log: log}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ── Public API ───────────────────────────────────────────────────

// Respond generates the structured presentation of a recipe. It is total:
// upstream failures and malformed model output degrade to a payload built
// from the record itself, never to an error.
func (a *Agent) Respond(ctx context.Context, query string, rec *domain.Recipe) *domain.StructuredResponse {
	prompt := buildRecipePrompt(query, rec)

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.log.Warn("llm: generation failed, building from record: %v", err)
		raw = ""
	}

	return a.pipe.Normalize(raw, rec)
}

// AskQuestion sends a free-form cooking question to the model together
// with the full session context and returns a speakable answer.
func (a *Agent) AskQuestion(ctx context.Context, question string, rec *domain.Recipe, session *domain.Session) (string, error) {
	messages := a.buildMessages(PromptQuestion, question, rec, session)
	answer, err := a.client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.StripFormatting(answer), nil
}

// classifyResponse is the JSON the model returns for intent classification.
type classifyResponse struct {
	Intent  string `json:"intent"`
	Payload string `json:"payload"`
	StepNum int    `json:"step_num"`
}

// classifyConfidence is assigned to model-classified intents; above the
// parser's acceptance threshold, below a direct rule hit.
const classifyConfidence = 0.75

// Classify sends input the keyword parser couldn't place to the model.
// Returns IntentUnknown rather than an error when the reply is unusable.
func (a *Agent) Classify(ctx context.Context, input string, rec *domain.Recipe, session *domain.Session) (*domain.Intent, error) {
	messages := a.buildMessages(PromptClassify, input, rec, session)
	raw, err := a.client.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	candidate, err := response.Extract(raw)
	if err != nil {
		a.log.Error("llm: no JSON in classify reply: %v\nraw: %s", err, raw)
		return &domain.Intent{Type: domain.IntentUnknown, Payload: input}, nil
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(candidate), &resp); err != nil {
		a.log.Error("llm: failed to parse classify JSON: %v\nraw: %s", err, raw)
		return &domain.Intent{Type: domain.IntentUnknown, Payload: input}, nil
	}

	intentType := domain.IntentFromString(resp.Intent)
	a.log.Debug("llm: classified %q -> %s (payload=%q)", input, intentType, resp.Payload)

	payload := resp.Payload
	if payload == "" {
		payload = input
	}

	return &domain.Intent{
		Type:       intentType,
		Payload:    payload,
		StepNum:    resp.StepNum,
		Confidence: classifyConfidence,
	}, nil
}
