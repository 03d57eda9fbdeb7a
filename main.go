package main

import (
	"net/http"

	"github.com/gruntek/audit-intake/internal/config"
	"github.com/gruntek/audit-intake/internal/pkg/logger"
	"github.com/gruntek/audit-intake/internal/services"
	"github.com/gruntek/audit-intake/internal/upstream"
	"go.uber.org/zap"
)

func main() {
	configManager := config.NewConfigManager()
	cfg := configManager.GetConfig()

	log := logger.New(cfg.LogFilePath, cfg.Environment == "production")
	defer log.Sync()

	log.Info("starting server",
		zap.String("port", cfg.ServerPort),
		zap.String("minio_endpoint", cfg.MinioEndpoint),
		zap.String("bucket", cfg.MinioBucket))

	if cfg.LambdaURL == "" {
		log.Warn("LAMBDA_URL is not set; report requests will fail until it is configured")
	}
	if cfg.PublicLambdaURL != "" {
		// Legacy direct-call path. Every analysis call goes through this
		// proxy now, so a set value means a stale deployment config.
		log.Warn("PUBLIC_LAMBDA_URL is set but ignored; analysis calls are proxied server-side")
	}

	storageService, err := services.NewMinioService(cfg)
	if err != nil {
		log.Fatal("failed to initialize MinIO service", zap.Error(err))
	}

	forwarder := upstream.NewForwarder(nil)

	httpHandler := NewHTTPHandler(configManager, storageService, forwarder, log)

	http.HandleFunc("/api/get-report", httpHandler.ReportHandler)
	http.HandleFunc("/api/s3/presign", httpHandler.PresignHandler)

	serverAddr := ":" + cfg.ServerPort
	log.Info("server listening", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, nil); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
