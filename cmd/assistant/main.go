// Command assistant runs Hey Cook, a voice-driven cooking companion
// for the terminal.
//
// Usage:
//
//	assistant [-voice] [-wakeword] [-config config.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/config"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/conversation"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/display"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/engine"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/llm"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/recipe"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/response"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/speech"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/storage"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/timer"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/wakeword"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	confPath := flag.String("config", "config.yaml", "path to the YAML config file (missing file is fine)")
	logFile := flag.String("log-file", ".assistant-logs/assistant.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	diskCache := flag.Bool("disk-cache", true, "persist TTS audio cache to disk (reads from disk even when false)")
	cacheDir := flag.String("cache-dir", speech.DefaultCacheDir, "directory for persistent TTS audio cache")
	noAI := flag.Bool("no-ai", false, "disable the model agent even if chat keys are set")
	voice := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 2, "seconds per voice recording chunk")
	wakewordOn := flag.Bool("wakeword", false, "enable the hands-free wake-word detector (needs -voice)")
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Flags the user typed win over both the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-file":
			cfg.Logging.File = *logFile
		case "cache-dir":
			cfg.Speech.CacheDir = *cacheDir
		case "whisper-bin":
			cfg.Listen.WhisperBin = *whisperBin
		case "whisper-model":
			cfg.Listen.WhisperModel = *whisperModel
		case "record-secs":
			cfg.Listen.RecordSecs = *recordSecs
		}
	})

	// Configure logger.
	logLevel := logger.ParseLevel(cfg.Logging.Level)
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.Logging.File != "" && cfg.Logging.File != "stderr" {
		dir := filepath.Dir(cfg.Logging.File)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.Logging.File, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire dependencies.
	recipes := recipe.NewMemorySource(log)

	var store domain.SessionStore = storage.NewMemoryStore(log)
	if cfg.Redis.Enabled() {
		rs, err := storage.NewRedisStore(storage.RedisConfig{
			URL:  cfg.Redis.URL,
			Addr: cfg.Redis.Addr,
			TTL:  cfg.Redis.TTL(),
		}, log)
		if err != nil {
			log.Error("redis unavailable, keeping sessions in memory: %v", err)
		} else {
			store = rs
			defer rs.Close()
			log.Info("session store: redis (ttl=%s)", cfg.Redis.TTL())
		}
	}

	var mouth *speech.Mouth
	ui := display.NewUI(store, display.WithSpeakingProbe(func() bool {
		return mouth != nil && mouth.IsSpeaking()
	}))
	textNotifier := conversation.NewCLINotifier(log, ui.Printf)
	parser := conversation.NewKeywordParser(log)

	// Build the active notifier. If TTS is available, wrap the text notifier
	// with a SpeakingNotifier that also speaks through the Mouth.
	var activeNotifier domain.Notifier = textNotifier

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	if azureKey != "" && azureRegion != "" && !*noSpeech {
		ttsClient := speech.NewAzureClient(azureKey, azureRegion, log,
			speech.WithVoice(cfg.Speech.Voice),
		)

		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, speech disabled: %v", err)
		} else {
			mouth = speech.NewMouth(ttsClient, player, log,
				speech.WithCacheDir(cfg.Speech.CacheDir),
				speech.WithDiskWrite(*diskCache),
			)
			mouth.Start(ctx)
			mouth.Prefetch(ctx, speech.ThinkingFillers()...)
			mouth.Prefetch(ctx, speech.ListeningFillers()...)
			activeNotifier = speech.NewSpeakingNotifier(textNotifier, mouth, log)
			log.Info("TTS enabled (voice=%s, region=%s)", cfg.Speech.Voice, azureRegion)
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	supervisor := timer.New(store, activeNotifier, log,
		timer.WithWatcher(),
	)

	// Build the model agent if chat credentials are available.
	var agent *llm.Agent

	chatKey := os.Getenv(config.EnvChatKey)
	chatEndpoint := os.Getenv(config.EnvChatEndpoint)

	if chatKey != "" && chatEndpoint != "" && !*noAI {
		clientOpts := []llm.ClientOption{
			llm.WithTemperature(cfg.Model.Temperature),
			llm.WithMaxTokens(cfg.Model.MaxTokens),
			llm.WithHTTPTimeout(cfg.Model.Timeout()),
		}
		if cfg.Model.Name != "" {
			clientOpts = append(clientOpts, llm.WithModel(cfg.Model.Name))
		}
		client := llm.NewClient(chatEndpoint, chatKey, log, clientOpts...)
		agent = llm.NewAgent(client, response.NewPipeline(log), log)
		log.Info("model agent enabled")
	} else if !*noAI {
		log.Info("model agent disabled: set %s and %s env vars to enable", config.EnvChatKey, config.EnvChatEndpoint)
	}

	engOpts := []engine.Option{}
	if agent != nil {
		engOpts = append(engOpts, engine.WithAgent(agent))
	}
	eng := engine.New(recipes, store, parser, log, engOpts...)

	// Build voice input (STT) if enabled.
	var ear *speech.Ear
	if *voice {
		if _, err := os.Stat(cfg.Listen.WhisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", cfg.Listen.WhisperModel)
			os.Exit(1)
		}
		os.MkdirAll(speech.DefaultSTTDir, 0o755)
		ear = speech.NewEar(cfg.Listen.WhisperBin, cfg.Listen.WhisperModel, mouth, log,
			speech.WithRecordDuration(cfg.Listen.RecordDuration()),
		)
		go ear.Run(ctx)
		log.Info("voice input enabled (bin=%s, model=%s, chunk=%s)",
			cfg.Listen.WhisperBin, cfg.Listen.WhisperModel, cfg.Listen.RecordDuration())
	}

	// Hands-free activation: an acoustic detector that forces the ear
	// into active listening, skipping the transcription-based wake scan.
	if *wakewordOn {
		if ear == nil {
			log.Error("wakeword: requires -voice, ignoring")
		} else {
			det := wakeword.New(wakeword.Config{
				WakewordModel:  cfg.Wakeword.Model,
				MelspecModel:   cfg.Wakeword.MelspecModel,
				EmbeddingModel: cfg.Wakeword.EmbeddingModel,
				OnnxLib:        cfg.Wakeword.OnnxLib,
				Threshold:      cfg.Wakeword.Threshold,
			}, log)
			det.OnDetected = ear.Wake
			go func() {
				if err := det.Start(ctx); err != nil {
					log.Error("wakeword: %v", err)
				}
			}()
			if mouth != nil {
				go pauseWhileSpeaking(ctx, det, mouth)
			}
			log.Info("wakeword detector enabled (model=%s, threshold=%.2f)",
				cfg.Wakeword.Model, cfg.Wakeword.Threshold)
		}
	}

	// Start background timer supervisor.
	supervisor.Start(ctx)
	defer supervisor.Stop()

	// Build the CLI app.
	app := &cliApp{
		engine: eng,
		mouth:  mouth,
		ear:    ear,
		log:    log,
		ui:     ui,
	}

	fmt.Println(display.RenderBanner())

	if ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON — say \"hey cook\" to get my attention, or type below."))
		fmt.Println(display.BannerStyle.Render("  Type 'quit' to exit."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	}
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()

	fmt.Println(display.BannerStyle.Render("  " + speech.LineShutdown()))
}

// pauseWhileSpeaking keeps the wake-word detector off the microphone
// while the assistant itself is talking, so it can't trigger on its own
// voice coming out of the speakers.
func pauseWhileSpeaking(ctx context.Context, det *wakeword.Detector, mouth *speech.Mouth) {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			speaking := mouth.IsSpeaking() || mouth.QueueLen() > 0
			if speaking && !paused {
				det.Pause()
				paused = true
			} else if !speaking && paused {
				det.Resume()
				paused = false
			}
		}
	}
}

type cliApp struct {
	engine     *engine.Engine
	mouth      *speech.Mouth // nil when TTS is disabled
	ear        *speech.Ear   // nil when voice input is disabled
	log        *logger.Logger
	ui         *display.UI
	sessionID  string // current conversation
	lastRecipe string // recipe whose narration was last prefetched
}

// say prints a message to the REPL and queues it for speech at the given
// priority. Use for conversational lines the user should hear. For raw
// formatting (menus, ingredient lists) use the Print* helpers directly —
// those shouldn't be spoken.
func (a *cliApp) say(text string, priority speech.Priority) {
	a.ui.PrintChat(text)
	if a.mouth != nil {
		a.mouth.Say(text, priority)
	}
}

func (a *cliApp) run(ctx context.Context) {
	session, err := a.engine.StartConversation(ctx)
	if err != nil {
		a.log.Error("starting conversation: %v", err)
		a.ui.PrintUrgent("Could not start a session. See the log for details.")
		return
	}
	a.sessionID = session.ID

	a.say(speech.LineWelcome(), speech.PriorityNormal)
	if a.ear != nil {
		a.say(speech.LineVoiceReady(), speech.PriorityNormal)
	}
	a.ui.Println("")
	a.showMenu(ctx)

	// Voice channel (nil-safe: receiving on a nil channel blocks forever,
	// which is fine — select will only use the keyboard case).
	var voiceCh <-chan string
	if a.ear != nil {
		voiceCh = a.ear.C()
	}

	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			// Print what was heard so the user sees it in the REPL.
			a.ui.PrintVoice(input)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// A new utterance interrupts whatever is still being spoken so
		// the assistant doesn't talk over its own reply.
		if a.mouth != nil {
			a.mouth.Interrupt()
		}

		reply := a.turn(ctx, input)
		if reply == nil {
			continue
		}

		a.say(reply.Text, speech.PriorityNormal)
		a.prefetchNarration(ctx)

		if reply.Quit {
			// Give the goodbye a moment on screen before the UI closes.
			time.Sleep(300 * time.Millisecond)
			return
		}
	}
}

// turn runs one engine exchange. When the turn is slow (usually a model
// call) a filler line is queued at low priority; the real reply flushes
// it if it hasn't started playing yet.
func (a *cliApp) turn(ctx context.Context, input string) *engine.Reply {
	if a.mouth != nil {
		filler := time.AfterFunc(900*time.Millisecond, func() {
			a.mouth.Say(speech.LineThinking(), speech.PriorityLow)
		})
		defer filler.Stop()
	}

	reply, err := a.engine.Handle(ctx, a.sessionID, input)
	if err != nil {
		a.log.Error("handling %q: %v", input, err)
		a.ui.PrintUrgent("Something went wrong saving your session. Please try again.")
		return nil
	}
	return reply
}

// prefetchNarration pre-warms the TTS cache with the narration for the
// recipe the session just landed on, so stepping through it plays back
// instantly. Does nothing until a new recipe has been presented.
func (a *cliApp) prefetchNarration(ctx context.Context) {
	if a.mouth == nil {
		return
	}
	s, err := a.engine.Status(ctx, a.sessionID)
	if err != nil || s.Response == nil || s.RecipeID == a.lastRecipe {
		return
	}
	a.lastRecipe = s.RecipeID
	a.mouth.Prefetch(ctx, speech.NarrationLines(s.Response)...)
}

// showMenu prints the built-in recipes under the banner. Display only;
// search and selection happen conversationally through the engine.
func (a *cliApp) showMenu(ctx context.Context) {
	recipes, err := a.engine.ListRecipes(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error loading recipes: %v", err))
		return
	}

	a.ui.PrintStep("Dishes I know by heart:")
	a.ui.Println("")
	for i, r := range recipes {
		a.ui.PrintInstruction(fmt.Sprintf("[%d] %s", i+1, r.Title))
		a.ui.PrintHint(r.Description)
		if len(r.Tags) > 0 {
			a.ui.PrintHint("Tags: " + strings.Join(r.Tags, ", "))
		}
		a.ui.Println("")
	}
	a.ui.PrintChat("Ask me for one of these, or search for anything else.")
}
