package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gridmesh/energymarket/internal/access"
	"github.com/gridmesh/energymarket/internal/book"
	"github.com/gridmesh/energymarket/internal/config"
	"github.com/gridmesh/energymarket/internal/engine"
	"github.com/gridmesh/energymarket/internal/events"
	"github.com/gridmesh/energymarket/internal/handler"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/service"
	"github.com/gridmesh/energymarket/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores: in-memory is the source of truth; PostgreSQL archives
	// trades and audit records when configured.
	var trades store.TradeLog = store.NewMemoryTradeLog()
	var audit store.AuditLog = store.NewMemoryAuditLog()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		trades = store.NewCompositeTradeLog(trades, store.NewPostgresTradeLog(pool))
		audit = store.NewCompositeAuditLog(audit, store.NewPostgresAuditLog(pool))
		logger.Info("postgres archive enabled")
	}

	// Ledger and book.
	lgr := ledger.New(audit)
	bk := book.New(lgr)
	gate := access.NewGate(cfg.AdminAddress)

	// Optional balance read cache.
	var cache *store.BalanceCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = store.NewBalanceCache(rdb, cfg.RedisTTL)
		lgr.Observe(cache)
		logger.Info("balance cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	// Event publishers: WebSocket hub always, Kafka when configured.
	hub := events.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		logger.Info("kafka publisher enabled", slog.String("topic", cfg.KafkaTopic))
	}

	// Engine.
	executor := engine.NewExecutor(lgr, bk, trades, publishers, cfg.TransferTimeout)
	scheduler := engine.NewScheduler(cfg.MatchInterval, executor)
	go scheduler.Start(ctx)

	// Services.
	participantSvc := service.NewParticipantService(lgr, gate, audit, cache)
	orderSvc := service.NewOrderService(bk, executor)
	tradeSvc := service.NewTradeService(lgr, trades, publishers, cfg.TransferTimeout)
	marketSvc := service.NewMarketService(lgr, bk, trades, cfg.VWAPWindow)

	// Router.
	router := handler.NewRouter(participantSvc, orderSvc, tradeSvc, marketSvc, hub, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the
	// scheduler and the hub).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
