// Package wakeword provides hands-free activation using the
// openWakeWord ONNX pipeline: melspectrogram, then embedding, then a
// per-phrase classifier.
//
// The detector opens a single capture device via miniaudio (malgo),
// feeds 80 ms chunks through the three models, and fires a callback
// when the classifier score crosses a threshold.
//
// All model files (melspectrogram.onnx, embedding_model.onnx, the
// phrase model) and the ONNX Runtime shared library are provided at
// construction time.
package wakeword

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Architecture constants fixed by the openWakeWord model family.
const (
	sampleRate   = 16000
	chunkSamples = 1280 // 80 ms at 16 kHz
	melBins      = 32   // melspectrogram output bands
	chunkFrames  = 5    // mel frames produced per chunk
	melWindow    = 76   // mel frames consumed per embedding
	melStep      = 8    // mel frames advanced per embedding
	embeddingDim = 96   // values per embedding frame
	embedFrames  = 16   // embedding frames consumed per score

	audioQueueCap = 32

	// scoreWindow is how many recent scores the trigger considers.
	// The peak can land a frame early or late depending on how speech
	// aligns with chunk boundaries, so we trigger on the window max.
	scoreWindow = 5

	// liveSlots is how many of the newest embedding slots reach the
	// classifier. Older slots are zeroed at scoring time, so long
	// stretches of silence never accumulate in the window and drag
	// the score down.
	liveSlots = 5 // roughly 400 ms of context

	statInterval = 2 * time.Second
)

// Config holds the model paths and tuning knobs for a Detector.
type Config struct {
	// Model paths (required).
	WakewordModel  string // e.g. "models/hey_cook.onnx"
	MelspecModel   string // e.g. "bin/melspectrogram.onnx"
	EmbeddingModel string // e.g. "bin/embedding_model.onnx"
	OnnxLib        string // e.g. "bin/libonnxruntime.so"

	// Detection tuning.
	Threshold float64       // score at or above this triggers (default 0.3)
	Cooldown  time.Duration // minimum gap between triggers (default 1.5 s)
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 1500 * time.Millisecond
	}
}

// Detector listens for the wake phrase continuously and fires
// OnDetected each time it hears it.
type Detector struct {
	cfg Config
	log *logger.Logger

	// OnDetected fires from the processing goroutine on each trigger.
	// Set it before calling Start.
	OnDetected func()

	mu         sync.Mutex
	paused     bool
	needsReset bool // set on Resume to flush stale pipeline state
}

// New creates a Detector. Call Start to begin listening.
func New(cfg Config, log *logger.Logger) *Detector {
	cfg.defaults()
	return &Detector{cfg: cfg, log: log}
}

// Pause stops detecting without releasing the device, typically while
// TTS is playing so the assistant doesn't hear itself.
func (d *Detector) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// Resume re-enables detection after a Pause.
func (d *Detector) Resume() {
	d.mu.Lock()
	d.paused = false
	d.needsReset = true
	d.mu.Unlock()
}

func (d *Detector) isPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// takeReset reports, once per Resume, that pipeline buffers need a flush.
func (d *Detector) takeReset() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.needsReset {
		d.needsReset = false
		return true
	}
	return false
}

// Start initialises the ONNX models and the capture device, then
// processes audio in a blocking loop until ctx is cancelled. Run it in
// its own goroutine.
func (d *Detector) Start(ctx context.Context) error {
	d.log.Debug("wakeword: initializing ONNX runtime (lib=%s)", d.cfg.OnnxLib)
	ort.SetSharedLibraryPath(d.cfg.OnnxLib)
	if err := ort.InitializeEnvironment(); err != nil {
		d.log.Error("wakeword: ONNX init failed: %v", err)
		return err
	}
	defer ort.DestroyEnvironment()

	pipe, err := newPipeline(d.cfg)
	if err != nil {
		d.log.Error("wakeword: loading models failed: %v", err)
		return err
	}
	defer pipe.destroy()
	d.log.Debug("wakeword: models loaded (phrase=%s)", d.cfg.WakewordModel)

	// Capture device.
	mCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return err
	}
	defer func() { _ = mCtx.Uninit(); mCtx.Free() }()

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.SampleRate = sampleRate
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = 1
	devCfg.Alsa.NoMMap = 1

	audioCh := make(chan []int16, audioQueueCap)
	var drops atomic.Int64

	callbacks := malgo.DeviceCallbacks{
		Data: func(_ []byte, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			n := len(raw) / 2
			pcm := make([]int16, n)
			for i := 0; i < n; i++ {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			}
			select {
			case audioCh <- pcm:
			default:
				drops.Add(1)
			}
		},
	}

	device, err := malgo.InitDevice(mCtx.Context, devCfg, callbacks)
	if err != nil {
		return err
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		d.log.Error("wakeword: capture start failed: %v", err)
		return err
	}
	defer device.Stop()
	d.log.Debug("wakeword: capture started (rate=%d, chunk=%d)", sampleRate, chunkSamples)

	// Trailing scores; the trigger looks at the window max.
	recent := make([]float32, scoreWindow)
	recentIdx := 0
	lastTrigger := time.Time{}

	var peak float32
	frames := 0
	lastStats := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case samples := <-audioCh:
			if d.isPaused() {
				continue
			}
			if d.takeReset() {
				pipe.reset()
				for i := range recent {
					recent[i] = 0
				}
				recentIdx = 0
				peak = 0
				d.log.Debug("wakeword: pipeline buffers flushed after resume")
			}
			frames++

			if now := time.Now(); now.Sub(lastStats) >= statInterval {
				d.log.Debug("wakeword: frames=%d drops=%d peak=%.4f paused=%v",
					frames, drops.Load(), peak, d.isPaused())
				peak = 0
				lastStats = now
			}

			scores, err := pipe.feed(samples)
			if err != nil {
				d.log.Error("wakeword: %v", err)
				continue
			}

			for _, score := range scores {
				if score > peak {
					peak = score
				}
				recent[recentIdx%scoreWindow] = score
				recentIdx++

				var windowMax float32
				for _, s := range recent {
					if s > windowMax {
						windowMax = s
					}
				}

				if float64(windowMax) >= d.cfg.Threshold*0.1 {
					d.log.Debug("wakeword: score=%.6f max=%.6f (threshold=%.2f)", score, windowMax, d.cfg.Threshold)
				}

				now := time.Now()
				if float64(windowMax) >= d.cfg.Threshold && now.Sub(lastTrigger) > d.cfg.Cooldown {
					d.log.Info("wakeword: detected (score=%.4f, windowMax=%.4f)", score, windowMax)
					lastTrigger = now
					// Clear the window so one peak triggers once.
					for i := range recent {
						recent[i] = 0
					}
					if d.OnDetected != nil {
						d.OnDetected()
					}
				}
			}
		}
	}
}
