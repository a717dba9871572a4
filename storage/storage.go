// Package storage provides interfaces and implementations for object storage.
// Supported providers: local filesystem, Amazon S3 (and S3-compatible
// services). The pipeline reads uploaded videos from storage and writes its
// results (transcript, segments, report) back to it.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Config selects and configures a storage backend.
type Config struct {
	// Provider is the backend name: "local" or "s3".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// BasePath is the root directory for the local backend.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// Bucket is the S3 bucket name.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	// Region is the AWS region.
	Region string `yaml:"region" mapstructure:"region"`
	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// AccessKey is the AWS access key ID.
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	// SecretKey is the AWS secret access key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Factory creates a Storage implementation from configuration.
type Factory func(cfg Config) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a storage backend factory for the given provider
// name. Implementation packages call this in an init function.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Storage backend from configuration.
func New(cfg Config) (Storage, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderLocal
	}
	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
	return f(cfg)
}

// DownloadToFile copies the object at remotePath into localPath, creating
// parent directories as needed.
func DownloadToFile(ctx context.Context, s Storage, remotePath, localPath string) error {
	r, err := s.Download(ctx, remotePath)
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return fmt.Errorf("storage: create local directory: %w", err)
	}
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("storage: create local file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage: copy object: %w", err)
	}
	return nil
}
