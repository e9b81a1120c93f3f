package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hweber/particletrack/internal/api"
	"github.com/hweber/particletrack/internal/config"
	"github.com/hweber/particletrack/internal/inference"
	"github.com/hweber/particletrack/internal/logger"
	"github.com/hweber/particletrack/internal/preprocess"
	"github.com/hweber/particletrack/internal/service"
	"github.com/hweber/particletrack/internal/storage"
	"github.com/hweber/particletrack/internal/store"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "particletrack-api",
		LogFile:     cfg.Log.File,
	})
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Prediction store (redis, sqlite, postgres or memory)
	gateway, err := store.New(&cfg.Store)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize prediction store")
	}

	// Blob storage for uploaded images (supports MinIO, R2, S3, local disk)
	blobs, err := storage.New(&storage.Config{
		Driver: cfg.Blob.Driver,
		S3: storage.S3Config{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			UseSSL:    cfg.Blob.UseSSL,
			Bucket:    cfg.Blob.Bucket,
			Region:    cfg.Blob.Region,
			PublicURL: cfg.Blob.PublicURL,
		},
		LocalDir: cfg.Blob.LocalDir,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize blob storage")
	}

	ctx := context.Background()
	if s3Store, ok := blobs.(*storage.S3Store); ok {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	shape := preprocess.Shape{
		Width:    cfg.Model.Width,
		Height:   cfg.Model.Height,
		Channels: cfg.Model.Channels,
	}
	pre, err := preprocess.New(shape)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize preprocessor")
	}

	// The engine loads the model lazily on first use; a disabled model runs
	// the pipeline without a classifier.
	var classifier service.Classifier
	if cfg.Model.Enabled {
		engine := inference.New(inference.Config{
			ModelPath:  cfg.Model.Path,
			Library:    cfg.Model.Library,
			InputName:  cfg.Model.InputName,
			OutputName: cfg.Model.OutputName,
			Shape:      shape,
			Classes:    cfg.Model.Classes,
			Binary:     cfg.Model.Binary,
		})
		defer engine.Close()
		classifier = engine
	} else {
		appLogger.Warn("Model disabled, running without a classifier")
	}

	pipeline := service.NewPipelineService(blobs, gateway, pre, classifier, appLogger,
		&service.Config{
			Workers:      cfg.Pipeline.Workers,
			DegradedMode: cfg.Pipeline.DegradedMode,
		})

	router := api.SetupRouter(pipeline, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
