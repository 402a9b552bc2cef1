package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/file-manager-grev/file-service/cmd/middleware"
	"github.com/file-manager-grev/file-service/internal/api"
	"github.com/file-manager-grev/file-service/internal/api/handlers"
	"github.com/file-manager-grev/file-service/internal/configuration"
	"github.com/file-manager-grev/file-service/internal/services"
	"github.com/file-manager-grev/file-service/internal/share"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := configuration.Load()

	store, err := services.NewStore(cfg.Database.ConnectionString(), logger)
	if err != nil {
		logger.Fatal("failed to initialize PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	storage, err := services.NewStorageService(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.BucketName,
		cfg.MinIO.UseSSL,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize MinIO", zap.Error(err))
	}

	mailer := services.NewMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		logger,
	)

	shareManager := share.NewManager(store, storage, mailer, share.Config{
		FrontendBaseURL: cfg.Share.FrontendBaseURL,
		LinkTTL:         cfg.Share.LinkTTL,
		SignedURLTTL:    cfg.Share.SignedURLTTL,
	}, logger)

	h := handlers.New(store, storage, shareManager, logger)

	events, err := services.ConnectEvents(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("NATS unavailable, events disabled", zap.Error(err))
	} else {
		defer events.Close()
		h.WithEvents(events)
	}

	if cfg.ClamAVURL != "" {
		h.WithScanner(services.NewScanner(cfg.ClamAVURL, store, storage, logger))
	}

	var auth *middleware.Authenticator
	if cfg.IssuerURL != "" {
		auth, err = middleware.NewAuthenticator(context.Background(), cfg.IssuerURL, logger)
		if err != nil {
			logger.Fatal("failed to initialize OIDC verifier", zap.Error(err))
		}
		h.WithAuthenticator(auth)
	} else {
		logger.Warn("OIDC_ISSUER_URL not set, running without token verification")
	}

	r := gin.Default()
	api.RegisterRoutes(r, h, auth)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
