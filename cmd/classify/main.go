package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/hweber/particletrack/internal/config"
	"github.com/hweber/particletrack/internal/inference"
	"github.com/hweber/particletrack/internal/logger"
	"github.com/hweber/particletrack/internal/preprocess"
	"github.com/hweber/particletrack/internal/service"
	"github.com/hweber/particletrack/internal/storage"
	"github.com/hweber/particletrack/internal/store"
)

// imageExtensions are the file types picked up from the input directory.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "particletrack-classify",
	})
	logger.SetDefault(appLogger)

	dir := flag.String("dir", ".", "Directory to read images from")
	limit := flag.Int("limit", 0, "Maximum number of images to process (0 = no limit)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	subs, err := collectImages(*dir, *limit)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read input directory")
	}
	if len(subs) == 0 {
		appLogger.WithField("dir", *dir).Fatal("No image files found")
	}

	appLogger.WithFields(logger.Fields{
		"dir":   *dir,
		"count": len(subs),
	}).Info("Starting batch classification")

	gateway, err := store.New(&cfg.Store)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize prediction store")
	}

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
	}

	pipeline := service.NewPipelineService(blobs, gateway, pre, classifier, appLogger,
		&service.Config{
			Workers:      cfg.Pipeline.Workers,
			DegradedMode: cfg.Pipeline.DegradedMode,
		})

	batch := pipeline.ProcessBatch(ctx, subs)

	for _, res := range batch.Results {
		if res.Persisted() {
			appLogger.WithFields(logger.Fields{
				"file":       res.FileName,
				"class":      res.Record.PredictedClass,
				"confidence": res.Record.Confidence,
			}).Info("Classified")
		} else {
			appLogger.WithFields(logger.Fields{
				"file":   res.FileName,
				"stage":  string(res.Stage),
				"reason": res.Reason,
			}).Warn("Failed")
		}
	}

	appLogger.WithFields(logger.Fields{
		"persisted": batch.Persisted,
		"failed":    batch.Failed,
	}).Info("Batch complete")

	if batch.Failed > 0 {
		os.Exit(1)
	}
}

// collectImages gathers image files directly under dir, skipping
// subdirectories. Files are read whole: the pipeline wants bytes, not paths.
func collectImages(dir string, limit int) ([]service.Submission, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var subs []service.Submission
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		subs = append(subs, service.Submission{FileName: entry.Name(), Data: data})
		if limit > 0 && len(subs) >= limit {
			break
		}
	}
	return subs, nil
}
