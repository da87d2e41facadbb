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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tubegrab/tubegrab/internal/config"
	"github.com/tubegrab/tubegrab/internal/history"
	"github.com/tubegrab/tubegrab/internal/relay"
	"github.com/tubegrab/tubegrab/internal/resolver"
	"github.com/tubegrab/tubegrab/internal/server"
)

func main() {
	var (
		addr      = flag.String("addr", "", "listen address (overrides TUBEGRAB_ADDR)")
		redisAddr = flag.String("redis", "", "redis address for history persistence (overrides TUBEGRAB_REDIS_ADDR)")
		dev       = flag.Bool("dev", false, "human-readable development logging")
	)
	flag.Parse()

	cfg := config.FromEnv()
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}

	logger := newLogger(*dev)
	defer func() { _ = logger.Sync() }()

	var store history.Store = history.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		store = history.NewRedisStore(rdb, logger)
		logger.Info("history persisted to redis", zap.String("addr", cfg.RedisAddr))
	}

	res := resolver.NewYouTube(nil, logger)
	rel := relay.New(res, logger, relay.Options{FirstByteTimeout: cfg.FirstByteTimeout})
	srv := server.New(res, rel, store, logger, server.Options{
		RateRPS:        cfg.RateRPS,
		RateBurst:      cfg.RateBurst,
		ResolveTimeout: cfg.ResolveTimeout,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(dev bool) *zap.Logger {
	if dev {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}
