package storage

import (
	"fmt"
	"strings"
)

// Config selects and configures a BlobStore implementation.
type Config struct {
	Driver   string // s3, r2, minio or local
	S3       S3Config
	LocalDir string
}

// New creates a BlobStore based on the configured driver.
func New(cfg *Config) (BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3", "r2", "minio":
		return NewS3Store(&cfg.S3)
	case "local", "":
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
