// PantryChef is a hands-free kitchen assistant: say "what can I cook" and
// it answers from your pantry.
//
// Usage:
//
//	pantrychef [-verbose] [-quiet] [-no-speech] [-no-ai] [-no-web] [-store memory|postgres|sqlite]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/assistant"
	"github.com/hammamikhairi/pantrychef/internal/config"
	"github.com/hammamikhairi/pantrychef/internal/conversation"
	"github.com/hammamikhairi/pantrychef/internal/display"
	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/engine"
	"github.com/hammamikhairi/pantrychef/internal/gpt"
	"github.com/hammamikhairi/pantrychef/internal/logger"
	"github.com/hammamikhairi/pantrychef/internal/recipe"
	"github.com/hammamikhairi/pantrychef/internal/speech"
	"github.com/hammamikhairi/pantrychef/internal/storage"
	"github.com/hammamikhairi/pantrychef/internal/web"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (\"stderr\" logs to console; default from PANTRY_LOG_FILE)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if TTS keys are set")
	noAI := flag.Bool("no-ai", false, "disable generated replies even if LLM keys are set")
	noWeb := flag.Bool("no-web", false, "do not start the HTTP/websocket server")
	storeDriver := flag.String("store", "", "item store: memory, postgres or sqlite (default from PANTRY_STORE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *storeDriver != "" {
		cfg.StoreDriver = *storeDriver
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logLevel := logger.ParseLevel(cfg.LogLevel)
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Logs go to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		if dir := filepath.Dir(cfg.LogFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.LogFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Third-party libraries that use the standard logger write to the same place.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	var log *logger.Logger
	if cfg.LogPretty {
		log = logger.NewConsole(logLevel, logOut)
	} else {
		log = logger.New(logLevel, logOut)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	ui := display.NewUI(domain.PageDashboard)
	hub := web.NewHub(log)
	enableWeb := cfg.EnableWeb && !*noWeb

	navs := conversation.Navigators{ui}
	if enableWeb {
		navs = append(navs, hub)
	}

	// Leave gen and suggester as nil interfaces when generation is off.
	var (
		gen       domain.Generator
		suggester recipe.Suggester
	)
	if agent, closeAgent := buildAgent(ctx, cfg, log, *noAI); agent != nil {
		defer closeAgent()
		gen, suggester = agent, agent
	}

	matcher := recipe.NewMatcher(suggester, log, recipe.WithLimit(cfg.RecipeLimit))
	responder := assistant.NewResponder(
		conversation.NewPatternInterpreter(log),
		store, matcher, gen, navs, log,
		assistant.WithContextLimit(cfg.ContextLimit),
		assistant.WithCatalogLimit(cfg.CatalogLimit),
	)

	speaker, mouth := buildSpeaker(ctx, cfg, log, *noSpeech)
	primary, fallback := buildTranscribers(cfg, log)

	opts := []engine.Option{
		engine.WithMaxRecord(cfg.MaxRecord),
		engine.WithTranscribeTimeout(cfg.TranscribeTimeout),
		engine.WithResumeDelay(cfg.ResumeDelay),
		engine.WithMaxEmpty(cfg.MaxEmptyTranscriptions),
		engine.WithReacquire(engine.Backoff{
			Attempts:   cfg.ReacquireAttempts,
			Initial:    cfg.ReacquireBackoff,
			Multiplier: 2,
			Max:        5 * time.Second,
		}),
		engine.WithObserver(ui),
	}
	if fallback != nil {
		opts = append(opts, engine.WithFallback(fallback))
	}
	mic := speech.NewMicrophone(cfg.SampleRate, log)
	ctrl := engine.New(mic, primary, speaker, responder, log, opts...)
	ui.ShowPage(ctrl.Page())

	if enableWeb {
		ctrl.AddObserver(hub)
		srv := web.NewServer(cfg.HTTPAddr, ctrl, hub, log)
		go hub.Run(ctx)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error("web server: %v", err)
			}
		}()
	}

	var notifier domain.Notifier = conversation.NewCLINotifier(log, ui.Printf)
	if mouth != nil {
		notifier = speech.NewSpeakingNotifier(notifier, mouth, log)
	}

	app := &cliApp{
		ctrl:     ctrl,
		ui:       ui,
		notifier: notifier,
		log:      log,
		speechOn: mouth != nil,
		webAddr:  cfg.HTTPAddr,
		webOn:    enableWeb,
	}

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type 'listen' to talk, 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	_ = ctrl.Deactivate()
	cancel()
}

type cliApp struct {
	ctrl     *engine.Controller
	ui       *display.UI
	notifier domain.Notifier
	log      *logger.Logger
	speechOn bool
	webOn    bool
	webAddr  string
}

func (a *cliApp) run(ctx context.Context) {
	_ = a.notifier.Notify(ctx, speech.LineWelcome())
	if !a.speechOn {
		a.ui.PrintHint(speech.LineSpeechOff())
	}
	if a.webOn {
		a.ui.PrintHint("Kitchen display API on " + a.webAddr)
	}

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-a.ui.InputChan():
			if !ok {
				return
			}
			line = l
		}

		cmd := display.ParseCommand(line)
		switch cmd.Kind {
		case display.CmdQuit:
			_ = a.ctrl.Deactivate()
			_ = a.notifier.Notify(ctx, speech.LineBye())
			return
		case display.CmdHelp:
			a.ui.PrintHelp()
		case display.CmdListen:
			a.listen(ctx)
		case display.CmdStop:
			_ = a.ctrl.Deactivate()
			a.ui.PrintHint("Stopped listening.")
		case display.CmdPage:
			if cmd.Page == domain.PageNone {
				a.ui.PrintUrgent(fmt.Sprintf("Unknown page %q.", cmd.Arg))
				continue
			}
			a.ctrl.SetPage(cmd.Page)
			a.ui.ShowPage(cmd.Page)
		case display.CmdSay:
			a.say(ctx, cmd.Text)
		}
	}
}

func (a *cliApp) listen(ctx context.Context) {
	err := a.ctrl.Activate(ctx)
	switch {
	case err == nil:
		a.ui.PrintHint("Listening. Type 'stop' to end.")
	case errors.Is(err, domain.ErrSessionActive):
		a.ui.PrintHint("Already listening.")
	case errors.Is(err, domain.ErrDeviceUnavailable):
		_ = a.notifier.NotifyUrgent(ctx, speech.LineMicUnavailable())
	default:
		a.log.Error("listen: %v", err)
		a.ui.PrintUrgent("Could not start listening.")
	}
}

// say runs typed text through the assistant. The UI observer prints the
// reply, so only failures are handled here.
func (a *cliApp) say(ctx context.Context, text string) {
	if _, err := a.ctrl.Submit(ctx, text); err != nil {
		if errors.Is(err, domain.ErrSessionActive) {
			a.ui.PrintHint("I'm listening right now. Say it, or type 'stop' first.")
			return
		}
		a.log.Error("submit: %v", err)
		a.ui.PrintUrgent("Something went wrong answering that.")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.ItemStore, func(), error) {
	noop := func() {}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		s, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, 10*time.Second, log)
		if err != nil {
			return nil, noop, fmt.Errorf("opening postgres store: %w", err)
		}
		log.Info("item store: postgres")
		return s, func() { _ = s.Close() }, nil

	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		s, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, noop, fmt.Errorf("opening sqlite store: %w", err)
		}
		if empty, err := s.Empty(ctx); err == nil && empty {
			seed, err := storage.DefaultSeed()
			if err == nil {
				err = s.Import(ctx, seed)
			}
			if err != nil {
				log.Warn("sqlite store: seeding demo household failed: %v", err)
			} else {
				log.Info("sqlite store: seeded demo household")
			}
		}
		log.Info("item store: sqlite (%s)", cfg.SQLitePath)
		return s, func() { _ = s.Close() }, nil

	default:
		seed, err := storage.DefaultSeed()
		if err != nil {
			return nil, noop, err
		}
		log.Info("item store: in-memory demo household")
		return storage.NewMemoryStore(seed, log), noop, nil
	}
}

// buildAgent picks the first configured LLM backend. It returns nil when
// generation is disabled.
func buildAgent(ctx context.Context, cfg *config.Config, log *logger.Logger, disabled bool) (*gpt.Agent, func()) {
	noop := func() {}
	if disabled {
		return nil, noop
	}

	var (
		client gpt.Completer
		closer = noop
	)
	switch {
	case cfg.GPTChatEndpoint != "" && cfg.GPTChatKey != "":
		client = gpt.NewChatClient(cfg.GPTChatEndpoint, cfg.GPTChatKey, log)
		log.Info("generation: chat completions endpoint")
	case cfg.OpenAIKey != "":
		client = gpt.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, log)
		log.Info("generation: openai (%s)", cfg.OpenAIModel)
	case cfg.GeminiKey != "":
		g, err := gpt.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel, log)
		if err != nil {
			log.Error("gemini client init failed, generation disabled: %v", err)
			return nil, noop
		}
		client = g
		closer = func() { _ = g.Close() }
		log.Info("generation: gemini (%s)", cfg.GeminiModel)
	default:
		log.Info("generation disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT, OPENAI_API_KEY or GEMINI_API_KEY")
		return nil, noop
	}

	return gpt.NewAgent(client, log, gpt.WithRateLimit(cfg.GenerationRPS, 3)), closer
}

// buildSpeaker returns the Mouth when a synthesizer and audio output are
// available, or a silent speaker otherwise.
func buildSpeaker(ctx context.Context, cfg *config.Config, log *logger.Logger, disabled bool) (engine.Speaker, *speech.Mouth) {
	silent := speech.NewSilent(log)
	if disabled {
		return silent, nil
	}

	var synth speech.Synthesizer
	switch {
	case cfg.AzureSpeechKey != "" && cfg.AzureSpeechRegion != "":
		synth = speech.NewAzureClient(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, log, speech.WithVoice(cfg.Voice))
	case cfg.ElevenLabsKey != "":
		synth = speech.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoice, log)
	default:
		log.Info("TTS disabled: set AZURE_SPEECH_KEY and AZURE_SPEECH_REGION, or ELEVENLABS_API_KEY")
		return silent, nil
	}

	player, err := speech.NewPlayer(cfg.ReleaseGrace, log)
	if err != nil {
		log.Error("audio player init failed, speech disabled: %v", err)
		return silent, nil
	}

	cache := speech.NewAudioCache(synth.Voice(), cfg.CacheDir, cfg.DiskCache, log)
	mouth := speech.NewMouth(synth, player, log, speech.WithCache(cache))
	go mouth.Prefetch(ctx, speech.StatusLines()...)
	log.Info("TTS enabled (voice=%s)", synth.Voice())
	return mouth, mouth
}

// buildTranscribers picks the primary transcriber and, when it is remote,
// the local whisper fallback.
func buildTranscribers(cfg *config.Config, log *logger.Logger) (primary, fallback engine.Transcriber) {
	local := speech.NewLocalWhisper(cfg.WhisperBin, cfg.WhisperModel, cfg.STTTempDir, log)

	switch {
	case cfg.STTURL != "":
		log.Info("transcription: %s, fallback whisper", cfg.STTURL)
		return speech.NewHTTPTranscriber(cfg.STTURL, cfg.TranscribeTimeout, log), local
	case cfg.OpenAIKey != "":
		log.Info("transcription: openai whisper, fallback local whisper")
		return speech.NewOpenAITranscriber(cfg.OpenAIKey, log), local
	default:
		log.Info("transcription: local whisper (%s)", cfg.WhisperModel)
		return local, nil
	}
}
