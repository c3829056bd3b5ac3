// Command server starts the AI recruiter evaluator HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai"
	httpserver "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/textextractor/local"
	tikaext "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/app"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	ctx := context.Background()
	shutdownTracer, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	aicl, err := app.NewAIClient(ctx, cfg)
	if err != nil {
		slog.Error("ai client configuration failed", slog.Any("error", err))
		os.Exit(1)
	}

	// PDF and DOCX go to Apache Tika when configured, otherwise they are parsed in-process.
	var (
		remote domain.TextExtractor
		tika   app.Pinger
	)
	if cfg.TikaURL != "" {
		tc := tikaext.New(cfg.TikaURL, cfg.TikaTimeout)
		remote, tika = tc, tc
		slog.Info("tika extraction enabled", slog.String("url", cfg.TikaURL))
	}

	evalSvc := usecase.NewEvaluateService(aicl, ai.NewResponseCleaner())
	inputSvc := usecase.NewInputService(local.New(remote))

	srv := httpserver.NewServer(cfg, evalSvc, inputSvc, app.BuildReadinessChecks(cfg, aicl, tika)...)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.Bool("api_key_required", cfg.APIKeyRequired()))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
