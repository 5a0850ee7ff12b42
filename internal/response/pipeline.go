package response

import (
	"strings"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// verdict is the discriminated outcome of one extract+validate attempt.
type verdict int

const (
	verdictOK verdict = iota
	verdictNeedsRepair
	verdictUseFallback
)

// Pipeline produces a schema-valid narration payload for every query. It
// holds no mutable state, so one instance serves concurrent sessions.
type Pipeline struct {
	log *logger.Logger
}

// NewPipeline creates a normalization pipeline.
func NewPipeline(log *logger.Logger) *Pipeline {
	return &Pipeline{log: log}
}

// Normalize turns raw model output into a valid payload, falling back to
// the retrieval record when the output is malformed or absent. It is
// total: it never returns an error, and the result always carries all four
// sections. An empty raw string means the model was unavailable.
//
// At most two extract+validate cycles run: the original text and, after
// one textual repair pass, the repaired text. Everything else goes through
// BuildFallback, so a caller can always narrate something.
func (p *Pipeline) Normalize(raw string, rec *domain.Recipe) *domain.StructuredResponse {
	if strings.TrimSpace(raw) == "" {
		p.log.Debug("response: no model output, building from record")
		return BuildFallback(rec)
	}

	resp, v := p.attempt(raw, verdictNeedsRepair)
	if v == verdictNeedsRepair {
		resp, v = p.attempt(Repair(raw), verdictUseFallback)
		if v == verdictOK {
			p.log.Debug("response: model output recovered by repair pass")
		}
	}
	if v == verdictOK {
		return resp
	}

	p.log.Warn("response: model output unusable, building from record")
	return BuildFallback(rec)
}

// attempt runs one extract+validate cycle. onFail is the verdict when the
// cycle fails: the first cycle asks for a repair, the second gives up.
func (p *Pipeline) attempt(raw string, onFail verdict) (*domain.StructuredResponse, verdict) {
	candidate, err := Extract(raw)
	if err != nil {
		p.log.Debug("response: extraction failed: %v", err)
		return nil, onFail
	}
	resp, err := Validate(candidate)
	if err != nil {
		p.log.Debug("response: validation failed: %v", err)
		return nil, onFail
	}
	return resp, verdictOK
}
