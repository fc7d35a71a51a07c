package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-agent-platform/internal/analytics"
	"voice-agent-platform/internal/audit"
	"voice-agent-platform/internal/auth"
	"voice-agent-platform/internal/calls"
	"voice-agent-platform/internal/config"
	"voice-agent-platform/internal/dispatch"
	"voice-agent-platform/internal/httpapi"
	"voice-agent-platform/internal/intent"
	"voice-agent-platform/internal/orchestrator"
	"voice-agent-platform/internal/telephony"
	"voice-agent-platform/pkg/logger"
	"voice-agent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	callRepo := calls.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	classifier, err := buildClassifier(cfg, log)
	if err != nil {
		log.Error("classifier init failed", "err", err)
		os.Exit(1)
	}

	dispatcher := dispatch.NewDispatcher(callRepo, auditSvc, log)
	synth, transcriber, dialer := buildProviders(cfg)

	tasks := orchestrator.NewTasks(4, 128, log)
	defer tasks.Close()

	orch := orchestrator.NewService(orchestrator.ServiceParams{
		Repo:        callRepo,
		Classifier:  classifier,
		Dispatcher:  dispatcher,
		Synthesizer: synth,
		Transcriber: transcriber,
		Dialer:      dialer,
		Tasks:       tasks,
		Log:         log,
		CallbackURL: cfg.Providers.PublicBaseURL + "/webhooks/twilio",
		FromNumber:  cfg.Providers.TwilioFromNumber,
	})

	handlers := httpapi.Handlers{
		Auth:      authManager,
		Calls:     callRepo,
		Orch:      orch,
		Analytics: analytics.NewService(callRepo, log),
		Audit:     auditSvc,
	}
	dedup := telephony.NewDeduper(rdb, 15*time.Minute)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, orch, dedup, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "mock_providers", cfg.Flags.MockProviders)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Drain queued call processing before the process exits.
	tasks.Close()
}

func buildClassifier(cfg config.Config, log *slog.Logger) (*intent.Classifier, error) {
	if !cfg.Flags.UseLLMIntent {
		return intent.NewClassifier(log), nil
	}
	if cfg.Flags.MockProviders {
		return intent.NewClassifier(log, intent.WithLLM(intent.MockLLM{})), nil
	}
	llm, err := intent.NewOpenAIClient(cfg.Providers.OpenAIAPIKey, "")
	if err != nil {
		return nil, err
	}
	return intent.NewClassifier(log, intent.WithLLM(llm)), nil
}

func buildProviders(cfg config.Config) (telephony.Synthesizer, telephony.Transcriber, telephony.Dialer) {
	if cfg.Flags.MockProviders {
		return telephony.MockSynthesizer{}, telephony.MockTranscriber{}, nil
	}

	synth := telephony.NewElevenLabsSynthesizer(cfg.Providers.ElevenLabsAPIKey)
	transcriber := telephony.NewWhisperTranscriber(cfg.Providers.OpenAIAPIKey)

	var dialer telephony.Dialer
	if cfg.TwilioDialingEnabled() {
		dialer = telephony.NewTwilioDialer(cfg.Providers.TwilioAccountSID, cfg.Providers.TwilioAuthToken)
	}
	return synth, transcriber, dialer
}
