package domain

import "context"

// RecipeSource retrieves recipes. Implementations can be in-memory
// (hardcoded), file-based, or backed by a vector search service.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
	Search(ctx context.Context, query string) ([]RecipeSummary, error)
}

// SessionStore persists assistant sessions. Implementations can be
// in-memory, Redis, or any other backend.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*Session, error)
}

// IntentParser converts a transcribed utterance into a structured intent.
// Implementations can be regex-based, LLM-powered, or a hybrid of both.
type IntentParser interface {
	Parse(ctx context.Context, input string, session *Session) (*Intent, error)
}

// Generator is the language-generation collaborator. Generate returns the
// model's raw text, which may be fenced, wrapped in prose, or malformed;
// callers must treat it as untrusted input and normalize it themselves.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout, push notifications, or use text-to-speech.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// SpeechProvider handles voice input/output. Listen blocks for one
// transcribed utterance; Speak sends text through the TTS pipeline.
// The no-op implementation is used when voice is disabled.
type SpeechProvider interface {
	Listen(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) error
}
