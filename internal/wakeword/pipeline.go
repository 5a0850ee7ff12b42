package wakeword

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// pipeline owns the three ONNX sessions and the rolling state carried
// between chunks. Not safe for concurrent use; the capture loop is the
// only caller.
type pipeline struct {
	melspecIn  *ort.Tensor[float32]
	melspecOut *ort.Tensor[float32]
	embedIn    *ort.Tensor[float32]
	embedOut   *ort.Tensor[float32]
	scoreIn    *ort.Tensor[float32]
	scoreOut   *ort.Tensor[float32]

	melspec *ort.AdvancedSession
	embed   *ort.AdvancedSession
	score   *ort.AdvancedSession

	pending []int16   // captured samples not yet consumed
	melHist []float32 // rolling mel frames, melBins values each
	embeds  []float32 // sliding window of embedFrames embeddings
}

// newPipeline loads the three models and binds their IO tensors.
func newPipeline(cfg Config) (*pipeline, error) {
	p := &pipeline{
		pending: make([]int16, 0, chunkSamples*2),
		melHist: make([]float32, 0, 2*melWindow*melBins),
		embeds:  make([]float32, embedFrames*embeddingDim),
	}

	var err error
	if p.melspecIn, err = ort.NewEmptyTensor[float32](ort.NewShape(1, chunkSamples)); err != nil {
		return nil, p.fail("melspec input", err)
	}
	if p.melspecOut, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, chunkFrames, melBins)); err != nil {
		return nil, p.fail("melspec output", err)
	}
	if p.melspec, err = bindSession(cfg.MelspecModel, p.melspecIn, p.melspecOut); err != nil {
		return nil, p.fail("melspec session", err)
	}

	if p.embedIn, err = ort.NewEmptyTensor[float32](ort.NewShape(1, melWindow, melBins, 1)); err != nil {
		return nil, p.fail("embedding input", err)
	}
	if p.embedOut, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, 1, embeddingDim)); err != nil {
		return nil, p.fail("embedding output", err)
	}
	if p.embed, err = bindSession(cfg.EmbeddingModel, p.embedIn, p.embedOut); err != nil {
		return nil, p.fail("embedding session", err)
	}

	if p.scoreIn, err = ort.NewEmptyTensor[float32](ort.NewShape(1, embedFrames, embeddingDim)); err != nil {
		return nil, p.fail("classifier input", err)
	}
	if p.scoreOut, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		return nil, p.fail("classifier output", err)
	}
	if p.score, err = bindSession(cfg.WakewordModel, p.scoreIn, p.scoreOut); err != nil {
		return nil, p.fail("classifier session", err)
	}

	return p, nil
}

// bindSession creates a session with the model's own IO names and the
// given pre-allocated tensors.
func bindSession(modelPath string, in, out *ort.Tensor[float32]) (*ort.AdvancedSession, error) {
	inInfo, outInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, err
	}
	return ort.NewAdvancedSession(
		modelPath,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out},
		nil,
	)
}

// fail releases whatever was built before the error.
func (p *pipeline) fail(stage string, err error) error {
	p.destroy()
	return fmt.Errorf("%s: %w", stage, err)
}

// destroy releases all sessions and tensors. Safe on a partially
// constructed pipeline.
func (p *pipeline) destroy() {
	if p.score != nil {
		p.score.Destroy()
	}
	if p.embed != nil {
		p.embed.Destroy()
	}
	if p.melspec != nil {
		p.melspec.Destroy()
	}
	if p.scoreOut != nil {
		p.scoreOut.Destroy()
	}
	if p.scoreIn != nil {
		p.scoreIn.Destroy()
	}
	if p.embedOut != nil {
		p.embedOut.Destroy()
	}
	if p.embedIn != nil {
		p.embedIn.Destroy()
	}
	if p.melspecOut != nil {
		p.melspecOut.Destroy()
	}
	if p.melspecIn != nil {
		p.melspecIn.Destroy()
	}
}

// reset flushes all rolling state, used after a Pause/Resume cycle so
// stale mel frames and embeddings don't pollute scoring.
func (p *pipeline) reset() {
	p.pending = p.pending[:0]
	p.melHist = p.melHist[:0]
	for i := range p.embeds {
		p.embeds[i] = 0
	}
}

// feed consumes captured samples and returns the classifier score for
// each full chunk that produced a fresh embedding.
func (p *pipeline) feed(samples []int16) ([]float32, error) {
	p.pending = append(p.pending, samples...)

	var scores []float32
	for len(p.pending) >= chunkSamples {
		chunk := p.pending[:chunkSamples]
		// Compact in place so the backing array doesn't grow.
		n := copy(p.pending, p.pending[chunkSamples:])
		p.pending = p.pending[:n]

		if err := p.melStep(chunk); err != nil {
			return scores, err
		}

		fresh, err := p.embedStep()
		if err != nil {
			return scores, err
		}
		if !fresh {
			continue
		}

		s, err := p.scoreStep()
		if err != nil {
			return scores, err
		}
		scores = append(scores, s)
	}
	return scores, nil
}

// melStep runs the melspectrogram over one chunk and appends the
// rescaled frames to the rolling history.
func (p *pipeline) melStep(chunk []int16) error {
	in := p.melspecIn.GetData()
	for i, v := range chunk {
		in[i] = float32(v)
	}
	if err := p.melspec.Run(); err != nil {
		return fmt.Errorf("melspec run: %w", err)
	}

	out := p.melspecOut.GetData()
	for f := 0; f < chunkFrames; f++ {
		for b := 0; b < melBins; b++ {
			idx := f*melBins + b
			if idx < len(out) {
				// openWakeWord's canonical rescaling.
				p.melHist = append(p.melHist, out[idx]/10.0+2.0)
			}
		}
	}
	return nil
}

// embedStep slides the embedding model over the mel history, shifting
// each new embedding into the window. Reports whether any embedding
// was produced.
func (p *pipeline) embedStep() (bool, error) {
	fresh := false

	for len(p.melHist)/melBins >= melWindow {
		in := p.embedIn.GetData()
		copy(in, p.melHist[:melWindow*melBins])
		if err := p.embed.Run(); err != nil {
			// Cap the history so a persistent failure can't grow it.
			p.trimMelHist()
			return fresh, fmt.Errorf("embedding run: %w", err)
		}

		// Shift the window left one frame and append the new embedding.
		copy(p.embeds, p.embeds[embeddingDim:])
		copy(p.embeds[(embedFrames-1)*embeddingDim:], p.embedOut.GetData()[:embeddingDim])
		fresh = true

		n := copy(p.melHist, p.melHist[melStep*melBins:])
		p.melHist = p.melHist[:n]
	}
	return fresh, nil
}

func (p *pipeline) trimMelHist() {
	if frames := len(p.melHist) / melBins; frames > melWindow {
		excess := (frames - melWindow) * melBins
		n := copy(p.melHist, p.melHist[excess:])
		p.melHist = p.melHist[:n]
	}
}

// scoreStep runs the classifier over a zero-padded window: only the
// newest liveSlots embeddings are real, older slots are masked to
// zero. This keeps the input close to the fresh-launch state the model
// scores best on, and silence can never accumulate against it.
func (p *pipeline) scoreStep() (float32, error) {
	in := p.scoreIn.GetData()
	pad := (embedFrames - liveSlots) * embeddingDim
	for i := 0; i < pad; i++ {
		in[i] = 0
	}
	copy(in[pad:], p.embeds[pad:])

	if err := p.score.Run(); err != nil {
		return 0, fmt.Errorf("classifier run: %w", err)
	}
	return p.scoreOut.GetData()[0], nil
}
