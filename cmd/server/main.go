package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/herberelias/cripto-signals/internal/config"
	delivery "github.com/herberelias/cripto-signals/internal/delivery/http"
	"github.com/herberelias/cripto-signals/internal/delivery/websocket"
	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/db"
	"github.com/herberelias/cripto-signals/internal/infrastructure/fcm"
	"github.com/herberelias/cripto-signals/internal/infrastructure/marketdata"
	"github.com/herberelias/cripto-signals/internal/logger"
	"github.com/herberelias/cripto-signals/internal/repository"
	"github.com/herberelias/cripto-signals/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Storage. Without DATABASE_URL everything runs in memory.
	var (
		pool    *pgxpool.Pool
		signals domain.SignalRepository
		buckets domain.BucketRepository
		events  domain.EventRepository
	)
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		var err error
		pool, err = db.NewPool(ctx, databaseURL, db.PoolConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		signals = repository.NewPostgresSignalRepository(pool)
		buckets = repository.NewPostgresBucketRepository(pool)
		events = repository.NewPostgresEventRepository(pool)
		log.Info().Msg("postgres storage ready")
	} else {
		memSignals := repository.NewInMemorySignalRepository()
		signals = memSignals
		buckets = repository.NewInMemoryBucketRepository(memSignals)
		events = repository.NewInMemoryEventRepository()
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}
	tokens := repository.NewTokenRepository(pool)

	// 2. Market data fallback chain.
	chain := marketdata.DefaultChain(log, cfg.CryptoCompareAPIKey)

	// 3. Push notifications.
	fcmClient, err := fcm.NewClient(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("FCM initialization failed")
	}
	notifier := usecase.NewFCMNotifier(fcmClient, tokens, log)

	// 4. Core services.
	scorer := usecase.NewScorer()
	trend := usecase.NewTrendFilter(chain, log)
	calibration := usecase.NewCalibrationService(buckets, log)
	generator := usecase.NewSignalGenerator(chain, scorer, trend, calibration, signals, events, notifier, cfg.Symbol, cfg.SignalTTL, log)
	triggers := usecase.NewTriggerService(chain, generator, signals, cfg.Symbol, cfg.SignalTTL, log)
	lifecycle := usecase.NewLifecycleService(signals, events, chain, calibration, cfg.Symbol, log)
	backtest := usecase.NewBacktestService(scorer)

	timeframe := domain.Timeframe(cfg.Timeframe)

	// 5. Scheduled jobs.
	scheduler := usecase.NewScheduler(log)
	scheduler.Add(usecase.Job{Name: "generation", Interval: cfg.GenerationInterval, Run: func(ctx context.Context) error {
		_, err := generator.EvaluateSignal(ctx, timeframe)
		if err == domain.ErrNoSignal {
			return nil
		}
		return err
	}})
	scheduler.Add(usecase.Job{Name: "dynamic_analysis", Interval: cfg.DynamicInterval, Run: func(ctx context.Context) error {
		_, err := triggers.RunDynamicAnalysis(ctx)
		if err == domain.ErrNoSignal {
			return nil
		}
		return err
	}})
	scheduler.Add(usecase.Job{Name: "monitoring", Interval: cfg.MonitorInterval, Run: lifecycle.MonitorActiveSignals})
	scheduler.Add(usecase.Job{Name: "calibration", Interval: cfg.CalibrationInterval, Run: calibration.Recalculate})
	scheduler.Start(ctx)

	// 6. Delivery.
	signalHandler := delivery.NewSignalHandler(generator, signals, events, timeframe)
	statsHandler := delivery.NewStatsHandler(buckets)
	backtestHandler := delivery.NewBacktestHandler(backtest, chain, cfg.Symbol)
	tokenHandler := delivery.NewTokenHandler(tokens)
	wsHandler := websocket.NewHandler(signals, 5*time.Second, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/signals/evaluate", signalHandler.Evaluate)
	mux.HandleFunc("/api/signals/active", signalHandler.Active)
	mux.HandleFunc("/api/signals/history", signalHandler.History)
	mux.HandleFunc("/api/signals/events", signalHandler.Events)
	mux.HandleFunc("/api/stats/buckets", statsHandler.Buckets)
	mux.HandleFunc("/api/stats/daily", statsHandler.Daily)
	mux.HandleFunc("/api/backtest", backtestHandler.Run)
	mux.HandleFunc("/api/tokens/register", tokenHandler.Register)
	mux.HandleFunc("/api/tokens", tokenHandler.Unregister)
	mux.HandleFunc("/ws", wsHandler.Handle)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Str("symbol", cfg.Symbol).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}

	scheduler.Wait()
	log.Info().Msg("shutdown complete")
}
