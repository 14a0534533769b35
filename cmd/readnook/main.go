package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"readnook/internal/album"
	"readnook/internal/app"
	"readnook/internal/assistant"
	"readnook/internal/config"
	"readnook/internal/kvstore"
	"readnook/internal/library"
	"readnook/internal/server"
	"readnook/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	kv, err := newKV(cfg)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}

	var assistantOpts []assistant.Option
	if cfg.ImageWaitSeconds > 0 {
		assistantOpts = append(assistantOpts, assistant.WithImageWait(time.Duration(cfg.ImageWaitSeconds)*time.Second))
	}

	appCore, err := app.New(app.Config{
		Library:   library.New(kv),
		Album:     album.New(kv),
		Assistant: assistant.NewClient(cfg.AssistantURL, assistantOpts...),
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		MaxUploadBytes:             cfg.MaxUploadBytes,
		GenerateRateLimitPerMinute: cfg.GenerateRateLimitPerMinute,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		TrustedProxyCIDRs:          cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr, "storage", storageName(cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newKV(cfg config.FileConfig) (kvstore.KV, error) {
	switch cfg.Storage {
	case config.StorageFile:
		return kvstore.NewFile(cfg.DataDir)
	case config.StorageRedis:
		return kvstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, "readnook"), nil
	case config.StoragePostgres:
		return kvstore.NewGorm(cfg.DatabaseURL)
	default:
		return kvstore.NewMemory(), nil
	}
}

func storageName(storage string) string {
	if storage == "" {
		return config.StorageMemory
	}
	return storage
}
