package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/consult-api/internal/config"
	"github.com/jwalitptl/consult-api/internal/dispatch"
	"github.com/jwalitptl/consult-api/internal/gemini"
	consultationHandler "github.com/jwalitptl/consult-api/internal/handler/consultation"
	"github.com/jwalitptl/consult-api/internal/handler/health"
	"github.com/jwalitptl/consult-api/internal/middleware"
	"github.com/jwalitptl/consult-api/internal/router"
	consultationService "github.com/jwalitptl/consult-api/internal/service/consultation"
	"github.com/jwalitptl/consult-api/internal/service/fallback"
	"github.com/jwalitptl/consult-api/internal/service/prompt"
	"github.com/jwalitptl/consult-api/internal/service/risk"
	"github.com/jwalitptl/consult-api/internal/service/validation"
	"github.com/jwalitptl/consult-api/pkg/logger"
	"github.com/jwalitptl/consult-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/consult-api/pkg/messaging/redis"
	"github.com/jwalitptl/consult-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal().Msg("gemini api key is not configured")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("consult", "api")

	zl := log.With().Str("component", "gemini").Logger()
	geminiClient := gemini.NewClient(cfg.Gemini, &zl)

	dispatcher := dispatch.NewDispatcher(cfg.Dispatcher, geminiClient, appLogger, appMetrics)

	// The broker is optional: without Redis, completion events are skipped.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		bl := log.With().Str("component", "redis").Logger()
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &bl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	riskSvc := risk.NewService(risk.Terms{
		HighRiskConditions: cfg.Safety.HighRiskConditions,
		UrgentSymptoms:     cfg.Safety.UrgentSymptoms,
		EvolutionCriteria:  cfg.Safety.EvolutionCriteria,
		SystemicSymptoms:   cfg.Safety.SystemicSymptoms,
	})
	promptBuilder := prompt.NewBuilder()
	validator := validation.NewService(cfg.Safety.ProhibitedPhrases)
	fallbackEngine := fallback.NewEngine()
	resultCache := cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	consultSvc := consultationService.NewService(
		cfg.Dispatcher,
		riskSvc,
		promptBuilder,
		dispatcher,
		validator,
		fallbackEngine,
		resultCache,
		broker,
		appLogger,
		appMetrics,
	)

	consultationHandler.RegisterValidators()

	r := router.NewRouter(
		router.Config{
			RateLimit:    rate.Limit(cfg.Server.RateLimit),
			RateBurst:    cfg.Server.RateBurst,
			CORSConfig:   middleware.DefaultCORSConfig(),
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			Timeout:      cfg.Server.RequestTimeout,
		},
		consultationHandler.NewHandler(consultSvc),
		health.NewHandler(dispatcher),
	)

	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Start(dispatchCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Stop accepting requests first, then drain the dispatch queue.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopDispatcher()
	dispatcher.Wait()

	log.Info().Msg("server exited")
}
