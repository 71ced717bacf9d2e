// Command lumad runs the Luma multimodal chat orchestration service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumachat/luma/luma/chat"
	"github.com/lumachat/luma/luma/chat/adapters"
	ports "github.com/lumachat/luma/luma/chat/ports"
	"github.com/lumachat/luma/luma/config"
	"github.com/lumachat/luma/luma/providers"
	"github.com/lumachat/luma/luma/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatalLogger := zerolog.New(os.Stderr)
		fatalLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	text := providers.NewDeepSeekClient(providers.DeepSeekConfig{
		Endpoint:             cfg.Providers.DeepSeekEndpoint,
		Model:                cfg.Providers.DeepSeekModel,
		UseMocks:             cfg.Chat.UseMocks,
		EnableCatbotFallback: cfg.Chat.EnableCatbotFallback,
		Timeout:              cfg.Chat.RequestTimeout,
	}, logger.With().Str("component", "deepseek").Logger())

	image := providers.NewStableDiffusionClient(providers.StableDiffusionConfig{
		Endpoint: cfg.Providers.DiffusionEndpoint,
		UseMocks: cfg.Chat.UseMocks,
		Timeout:  cfg.Chat.RequestTimeout,
	}, logger.With().Str("component", "diffusion").Logger())

	var tracer ports.Tracer = adapters.NopTracer{}
	if cfg.Log.EnableTracing {
		tracer = adapters.NewZerologTracer(logger)
	}

	orchestrator := chat.NewOrchestrator(
		adapters.NewMemoryHistoryStore(cfg.Chat.HistoryLimit),
		chat.NewPromptBuilder(),
		chat.NewReplyParser(logger.With().Str("component", "parser").Logger()),
		chat.NewGuardrails(cfg.Chat.BlockedWords),
		text,
		image,
		tracer,
		logger.With().Str("component", "orchestrator").Logger(),
		chat.Options{ImageGenerationEnabled: cfg.Chat.EnableImageGeneration},
	)

	srv := server.New(orchestrator, text, cfg, logger.With().Str("component", "server").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
