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

	"saferide/api"
	"saferide/config"
	"saferide/pkg/blob"
	"saferide/pkg/locations"
	"saferide/pkg/logger"
	"saferide/pkg/notify"
	"saferide/pkg/token"
	"saferide/service"
	"saferide/storage/postgres"
)

func main() {
	// 1. Configuration
	cfg := config.Load()

	// 2. Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	// 3. Storage
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	stg, err := postgres.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("failed to connect storage", logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	// 4. Driver location cache
	locs, err := locations.NewRedisSource(cfg.RedisHost+":"+cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		log.Error("failed to connect redis", logger.Error(err))
		os.Exit(1)
	}

	// 5. Verification media store
	blobs, err := blob.NewDiskStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		log.Error("failed to init blob store", logger.Error(err))
		os.Exit(1)
	}

	// 6. Operator alert channel
	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" && cfg.AdminChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.AdminChatID, log)
		if err != nil {
			log.Error("failed to init telegram notifier", logger.Error(err))
			os.Exit(1)
		}
		notifier = tg
	} else {
		log.Warning("no operator alert channel configured; alerts are log-only")
	}

	// 7. Services
	svc := service.New(service.Deps{
		Storage:      stg,
		Blob:         blobs,
		Locations:    locs,
		Notifier:     notifier,
		VerifyWindow: cfg.VerifyWindow,
		Log:          log,
	})

	// 8. HTTP API
	tokens, err := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Error("failed to init token manager", logger.Error(err))
		os.Exit(1)
	}
	router := api.NewRouter(svc, tokens, cfg.BlobDir, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.AppPort),
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", logger.Int("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server stopped", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
	}
}
