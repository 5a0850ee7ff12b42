package domain

// StructuredResponse is the canonical narration payload produced for every
// user query: a greeting, the ingredient list, the numbered cooking steps,
// and a closing line. All four fields are always populated on instances
// returned by the response pipeline; the sequences may be empty but are
// never nil.
//
// The JSON tags are the wire schema the language model is asked to emit
// and the shape persisted with sessions.
type StructuredResponse struct {
	Greeting    string           `json:"greeting"`
	Ingredients []IngredientItem `json:"ingredients"`
	Steps       []StepItem       `json:"steps"`
	Closing     string           `json:"closing"`
}

// IngredientItem is one ingredient line in narration order. Spoken is
// playback bookkeeping owned by the session that receives the response;
// the pipeline only initializes it to false.
type IngredientItem struct {
	Text   string `json:"text"`
	Spoken bool   `json:"spoken"`
}

// StepItem is one cooking step in narration order. StepNum is the spoken
// label ("Step 3"); navigation uses positions, not labels.
type StepItem struct {
	StepNum int    `json:"step_num"`
	Text    string `json:"text"`
	Spoken  bool   `json:"spoken"`
}

// Clone returns a deep copy. A session keeps its own copy so spoken-flag
// updates never leak into other consumers of the original value.
func (r *StructuredResponse) Clone() *StructuredResponse {
	if r == nil {
		return nil
	}
	out := &StructuredResponse{
		Greeting:    r.Greeting,
		Ingredients: make([]IngredientItem, len(r.Ingredients)),
		Steps:       make([]StepItem, len(r.Steps)),
		Closing:     r.Closing,
	}
	copy(out.Ingredients, r.Ingredients)
	copy(out.Steps, r.Steps)
	return out
}
