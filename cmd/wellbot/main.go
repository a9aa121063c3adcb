package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/activity"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/llm"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/orchestrator"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/wakeword"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON/TOML config file (overlays defaults)")
	controlAddr := flag.String("control-addr", "", "address to serve the WebSocket control surface on (empty disables it)")
	userID := flag.String("user", "default", "user id for the session")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using system environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewZapLogger(logging.FileConfig{Path: cfg.LogFilePath}, cfg.Debug)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	sttProvider := buildSTT(logger)
	ttsProvider := buildTTS()
	llmProvider := buildLLM()

	fabric, err := audiofabric.New(audiofabric.Config{
		SampleRate:     cfg.SampleRateHz,
		NudgePreDelay:  time.Duration(cfg.NudgePreDelayMS) * time.Millisecond,
		NudgePostDelay: time.Duration(cfg.NudgePostDelayMS) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("main: audio fabric: %v", err)
		os.Exit(1)
	}

	wakeCfg := wakeword.Config{
		WakewordModel:  os.Getenv("WELLBOT_WAKEWORD_MODEL"),
		MelspecModel:   os.Getenv("WELLBOT_MELSPEC_MODEL"),
		EmbeddingModel: os.Getenv("WELLBOT_EMBEDDING_MODEL"),
		OnnxLib:        os.Getenv("WELLBOT_ONNX_LIB"),
	}
	detector := wakeword.New(wakeCfg, logger)

	store := persistence.NewLocalStore("", logger)
	persona := persistence.NewPersonaFile(cfg.PersonaFallbackPath)

	records := intervention.NewRecordStore(cfg.RecordFilePath)
	client := intervention.NewClient(cfg.InterventionBaseURL)
	poller := intervention.New(client, records, *userID, timeOfDayNow, nil, logger,
		intervention.WithTickInterval(time.Duration(cfg.PollIntervalMinutes)*time.Minute))

	deps := &activity.Deps{
		Audio:   fabric,
		STT:     sttProvider,
		TTS:     ttsProvider,
		LLM:     llmProvider,
		Store:   store,
		Persona: persona,
		Records: records,
		Config:  cfg,
		Log:     logger,
	}
	runtime := activity.NewRuntime(deps)
	bus := orchestrator.NewStatusBus()

	orch := orchestrator.New(runtime, fabric, detector, bus, cfg, logger, *userID, orchestrator.WithPoller(poller))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var server *http.Server
	if *controlAddr != "" {
		socket := orchestrator.NewControlSocket(orch, func(runCtx context.Context) {
			if err := orch.Run(runCtx); err != nil {
				logger.Error("orchestrator: run ended: %v", err)
			}
		}, logger)
		mux := http.NewServeMux()
		mux.Handle("/ws", socket)
		server = &http.Server{Addr: *controlAddr, Handler: mux}
		go func() {
			logger.Info("main: control surface listening on %s", *controlAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("main: control surface: %v", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		logger.Info("main: shutdown signal received")
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.Error("main: orchestrator stopped with error: %v", err)
		}
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

// timeOfDayNow buckets the current hour into the coarse time-of-day
// label the intervention endpoint expects (spec.md §6.5).
func timeOfDayNow() string {
	switch h := time.Now().Hour(); {
	case h < 5:
		return "night"
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 21:
		return "evening"
	default:
		return "night"
	}
}

func buildSTT(logger logging.Logger) stt.StreamingProvider {
	switch provider := envOr("STT_PROVIDER", "groq"); provider {
	case "deepgram":
		return stt.NewDeepgramStreamingSTT(mustEnv("DEEPGRAM_API_KEY"), logger)
	case "openai":
		return stt.NewBatchAdapter(stt.NewOpenAISTT(mustEnv("OPENAI_API_KEY"), "whisper-1"), logger)
	case "assemblyai":
		return stt.NewBatchAdapter(stt.NewAssemblyAISTT(mustEnv("ASSEMBLYAI_API_KEY")), logger)
	case "groq":
		fallthrough
	default:
		model := envOr("GROQ_STT_MODEL", "whisper-large-v3-turbo")
		return stt.NewBatchAdapter(stt.NewGroqSTT(mustEnv("GROQ_API_KEY"), model), logger)
	}
}

func buildTTS() tts.StreamingProvider {
	return tts.NewLokutorTTS(mustEnv("LOKUTOR_API_KEY"))
}

func buildLLM() llm.StreamingProvider {
	switch provider := envOr("LLM_PROVIDER", "groq"); provider {
	case "openai":
		return llm.NewOpenAILLM(mustEnv("OPENAI_API_KEY"), "gpt-4o")
	case "anthropic":
		return llm.NewAnthropicLLM(mustEnv("ANTHROPIC_API_KEY"), "claude-3-5-sonnet-20241022")
	case "google":
		return llm.NewBatchAdapter(llm.NewGoogleLLM(mustEnv("GOOGLE_API_KEY"), "gemini-1.5-flash"))
	case "groq":
		fallthrough
	default:
		return llm.NewGroqLLM(mustEnv("GROQ_API_KEY"), "llama-3.3-70b-versatile")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return v
}
