package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/app"
	"github.com/xavierca1/ligue-callbridge/internal/config"
	"github.com/xavierca1/ligue-callbridge/internal/infra/cache"
	"github.com/xavierca1/ligue-callbridge/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-callbridge/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-callbridge/internal/infra/integration/elevenlabs"
	"github.com/xavierca1/ligue-callbridge/internal/infra/queue"
	"github.com/xavierca1/ligue-callbridge/internal/infra/worker"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

const (
	shutdownTimeout = 10 * time.Second
	abortGrace      = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = zap.L().Sync() }()

	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	recorder := middleware.PrometheusRecorder{}

	store, releaseStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer releaseStore()

	extractor, extractionReady := app.NewExtractor(cfg, recorder)

	var (
		dedup       usecase.DedupStore = usecase.NoopDedup{}
		redisHealth handlers.Pinger
	)
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return eris.Wrap(err, "connect redis")
		}
		defer client.Close()
		rd := cache.NewRedisDedup(client, time.Duration(cfg.Redis.DedupTTLHours)*time.Hour)
		dedup, redisHealth = rd, rd
	}

	fanOut := app.NewFanOut(cfg)

	var (
		publisher    usecase.LeadPublisher = &usecase.DirectPublisher{FanOut: fanOut}
		brokerHealth handlers.ConnectionState
	)
	if cfg.RabbitMQ.URL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			return eris.Wrap(err, "connect rabbitmq")
		}
		defer rmq.Close()

		consumeCh, err := rmq.Conn.Channel()
		if err != nil {
			return eris.Wrap(err, "open consumer channel")
		}

		publisher = queue.NewProducer(rmq.Ch)
		brokerHealth = rmq.Conn

		leadWorker := queue.NewWorker(consumeCh, fanOut)
		go func() {
			if err := leadWorker.Start(ctx, queue.QueueName); err != nil {
				zap.L().Error("lead worker exited", zap.Error(err))
			}
		}()
	}

	runner := usecase.NewBackgroundRunner()
	pipeline := usecase.NewProcessCallUseCase(
		extractor,
		store,
		publisher,
		dedup,
		runner,
		app.IntakePolicy(cfg),
		app.RetryConfig(cfg),
		recorder,
	)

	statsWorker := worker.NewLeadStatsWorker(store, recorder, time.Duration(cfg.Stats.IntervalSecs)*time.Second)
	go statsWorker.Start(ctx)

	var verifier *handlers.SignatureVerifier
	if cfg.ElevenLabs.WebhookSecret != "" {
		verifier = handlers.NewSignatureVerifier(cfg.ElevenLabs.WebhookSecret)
	} else {
		zap.L().Warn("webhook signature verification disabled")
	}

	agent := elevenlabs.NewClient(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.AgentID, cfg.ElevenLabs.BaseURL)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute)
	defer limiter.Stop()

	router := newRouter(routes{
		ConversationEnd: handlers.NewConversationEndHandler(pipeline, verifier).Handle,
		IncomingCall:    handlers.NewCallSetupHandler(agent).Handle,
		Health:          handlers.NewHealthHandler(store, brokerHealth, redisHealth, extractionReady).Handle,
		RateLimit:       limiter.Handler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("callbridge listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "http server")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("http shutdown incomplete", zap.Error(err))
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), app.DrainTimeout(cfg))
	defer cancelDrain()
	if err := runner.Shutdown(drainCtx, abortGrace); err != nil {
		zap.L().Warn("in-flight calls were aborted at exit, see lead persistence failures", zap.Error(err))
	}

	return nil
}
